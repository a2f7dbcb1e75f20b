package internal

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kontex-neuro/xvcpkg/internal/build"
	"github.com/kontex-neuro/xvcpkg/internal/ctxlog"
	"github.com/kontex-neuro/xvcpkg/internal/env"
	"github.com/kontex-neuro/xvcpkg/internal/pkginfo"
	"github.com/kontex-neuro/xvcpkg/internal/profile"
	"github.com/kontex-neuro/xvcpkg/internal/provider"
)

var (
	settingFlags  []string
	optionFlags   []string
	profileFlag   string
	rootFlag      string
	workspaceFlag string
	catalogFlag   string
	logLevel      string
	logFormat     string
)

var rootCmd = &cobra.Command{
	Use:   "xvcpkg",
	Short: "xvcpkg builds libxvc and resolves its native dependencies",
	Long: `xvcpkg resolves the dependency graph and options of libxvc, generates the
CMake toolchain and package config files, then drives the configure, build
and install steps.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger := ctxlog.New(logLevel, logFormat, cmd.ErrOrStderr())
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
	},
}

func init() {
	addSessionFlags(rootCmd.PersistentFlags())
}

func addSessionFlags(f *pflag.FlagSet) {
	f.StringArrayVarP(&settingFlags, "setting", "s", nil, "Override a setting (key=value)")
	f.StringArrayVarP(&optionFlags, "option", "o", nil, "Set a libxvc option (key=value)")
	f.StringVar(&profileFlag, "profile", "", "Profile file or name in the profiles directory")
	f.StringVar(&rootFlag, "root", ".", "libxvc source tree")
	f.StringVar(&workspaceFlag, "workspace", "", "Package workspace (default $XVCPKG_HOME/packages)")
	f.StringVar(&catalogFlag, "catalog", "", "HCL package catalog replacing the builtin one")
	f.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	f.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		log.Fatal(err)
	}
}

// session is the configuration shared by every command.
type session struct {
	profile *profile.Profile
	builder *build.Builder
}

func (s *session) input() build.Input {
	return build.Input{Settings: s.profile.Settings, Options: s.profile.RecipeOptions()}
}

func newSession() (*session, error) {
	prof := profile.Default()
	if profileFlag != "" {
		var err error
		if prof, err = profile.Load(profileFlag); err != nil {
			return nil, err
		}
	}
	if err := prof.Apply(settingFlags, optionFlags); err != nil {
		return nil, err
	}

	prov, err := loadProvider(firstNonEmpty(catalogFlag, prof.Conf.Catalog))
	if err != nil {
		return nil, err
	}
	workspace, err := workspaceDir(firstNonEmpty(workspaceFlag, prof.Conf.Workspace))
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	return &session{
		profile: prof,
		builder: &build.Builder{
			Provider:  prov,
			Root:      root,
			Workspace: workspace,
			Store:     pkginfo.NewStore(workspace),
			ToolBin:   prof.Conf.CMake,
		},
	}, nil
}

func loadProvider(catalog string) (provider.Provider, error) {
	if catalog == "" {
		return provider.Default(), nil
	}
	c, err := provider.LoadFile(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return c, nil
}

func workspaceDir(dir string) (string, error) {
	if dir == "" {
		return env.PackagesDir()
	}
	return filepath.Abs(dir)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
