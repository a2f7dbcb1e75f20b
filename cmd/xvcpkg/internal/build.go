package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/internal/ctxlog"
	"github.com/kontex-neuro/xvcpkg/internal/libxvc"
	"github.com/kontex-neuro/xvcpkg/internal/pkginfo"
)

var buildVerbose bool
var buildDryRun bool
var buildMatrix []string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build libxvc",
	Long: `Build resolves the dependencies of libxvc, generates the toolchain files,
builds and installs it into the workspace and publishes its package info.
With --matrix it builds every combination of the given setting values.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "Enable verbose build output")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Only resolve requirements and plan the layout")
	buildCmd.Flags().StringArrayVar(&buildMatrix, "matrix", nil, "Build every value of a setting (key=v1,v2)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	if buildVerbose {
		s.builder.Output = cmd.ErrOrStderr()
	}

	matrix, err := parseMatrix(buildMatrix)
	if err != nil {
		return err
	}
	configs, err := matrix.Expand(s.profile.Settings)
	if err != nil {
		return err
	}
	if len(configs) > 1 {
		ctxlog.FromContext(cmd.Context()).Info("building configurations", "count", matrix.Count())
	}

	recipe := libxvc.Recipe()
	out := cmd.OutOrStdout()
	var infos []pkginfo.Info
	for _, settings := range configs {
		in := s.input()
		in.Settings = settings

		if buildDryRun {
			res, err := s.builder.Plan(cmd.Context(), recipe, in)
			if err != nil {
				return fmt.Errorf("failed to plan %s for %s: %w", recipe.Ref(), settings, err)
			}
			fmt.Fprintf(out, "settings:   %s\n", settings)
			fmt.Fprintf(out, "source:     %s\n", res.Layout.SourceDir)
			fmt.Fprintf(out, "build:      %s\n", res.Layout.BuildDir)
			fmt.Fprintf(out, "generators: %s\n", res.Layout.GeneratorsDir)
			fmt.Fprintf(out, "package:    %s\n", res.Layout.PackageDir)
			continue
		}

		res, err := s.builder.Build(cmd.Context(), recipe, in)
		if err != nil {
			return fmt.Errorf("failed to build %s for %s: %w", recipe.Ref(), settings, err)
		}
		infos = append(infos, *res.Info)
	}
	if buildDryRun {
		return nil
	}
	return printInfos(out, "yaml", infos...)
}

// parseMatrix parses "key=v1,v2" values. Repeating a key adds values.
func parseMatrix(specs []string) (formula.Matrix, error) {
	m := formula.Matrix{}
	for _, spec := range specs {
		k, v, ok := strings.Cut(spec, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid matrix %q, want key=v1,v2", spec)
		}
		for _, val := range strings.Split(v, ",") {
			if val = strings.TrimSpace(val); val != "" {
				m[k] = append(m[k], val)
			}
		}
		if len(m[k]) == 0 {
			return nil, fmt.Errorf("matrix %q lists no values", spec)
		}
	}
	return m, nil
}
