package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/kontex-neuro/xvcpkg/internal/libxvc"
	"github.com/kontex-neuro/xvcpkg/internal/pkginfo"
)

var infoOutput string
var infoAll bool

var infoCmd = &cobra.Command{
	Use:   "info [package]",
	Short: "Print published package infos",
	Long: `Info prints the package info published to the workspace for the current
settings, or every published configuration with --all. The package
defaults to libxvc.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().StringVar(&infoOutput, "output", "yaml", "Output format: yaml, json or table")
	infoCmd.Flags().BoolVarP(&infoAll, "all", "a", false, "Print every published configuration")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	name, version := libxvc.Name, libxvc.Version
	if len(args) == 1 {
		name, version = parsePackageArg(args[0])
	}

	var infos []pkginfo.Info
	if infoAll || version == "" {
		all, err := s.builder.Store.List(name)
		if err != nil {
			return err
		}
		for _, i := range all {
			if infoAll || i.Settings == s.profile.Settings {
				infos = append(infos, i)
			}
		}
	} else {
		info, ok, err := s.builder.Store.Lookup(name, version, s.profile.Settings)
		if err != nil {
			return err
		}
		if ok {
			infos = append(infos, info)
		}
	}
	if len(infos) == 0 {
		return fmt.Errorf("no package info published for %s with settings %s", name, s.profile.Settings)
	}
	return printInfos(cmd.OutOrStdout(), infoOutput, infos...)
}

// parsePackageArg parses "name/version" or "name".
func parsePackageArg(arg string) (name, version string) {
	name, version, _ = strings.Cut(arg, "/")
	return name, version
}

func printInfos(w io.Writer, format string, infos ...pkginfo.Info) error {
	var data []byte
	var err error
	switch format {
	case "yaml":
		if len(infos) == 1 {
			data, err = yaml.Marshal(infos[0])
		} else {
			data, err = yaml.Marshal(infos)
		}
	case "json":
		if data, err = json.MarshalIndent(infos, "", "  "); err == nil {
			data = append(data, '\n')
		}
	case "table":
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Package", "Version", "Settings", "Package ID", "Libs"})
		for _, i := range infos {
			t.AppendRow(table.Row{i.Name, i.Version, i.Settings, i.PackageID, strings.Join(i.Libs, " ")})
		}
		style := table.StyleLight
		style.Options.DrawBorder = false
		t.SetStyle(style)
		t.Render()
		return nil
	default:
		err = fmt.Errorf("unknown output format: %q", format)
	}
	if err != nil {
		return fmt.Errorf("encoding package info as %q failed: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}
