package internal

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/kontex-neuro/xvcpkg/internal/libxvc"
	"github.com/kontex-neuro/xvcpkg/internal/options"
)

var optionsPackage string

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Print the resolved dependency options",
	Long: `Options resolves the options of every libxvc dependency and prints each
value with where it came from. Rule assignments that replaced an override
are listed separately.`,
	Args: cobra.NoArgs,
	RunE: runOptions,
}

func init() {
	optionsCmd.Flags().StringVarP(&optionsPackage, "package", "p", "", "Only print the options of this package")
	rootCmd.AddCommand(optionsCmd)
}

func runOptions(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	recipe := libxvc.Recipe()
	res, err := s.builder.Plan(cmd.Context(), recipe, s.input())
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", recipe.Ref(), err)
	}
	out := cmd.OutOrStdout()
	renderOptions(out, res.DependencyOptions, optionsPackage)
	if len(res.Shadows) > 0 {
		fmt.Fprintln(out)
		renderShadows(out, res.Shadows)
	}
	return nil
}

func renderOptions(w io.Writer, m options.Map, pkg string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Package", "Option", "Value", "Source"})
	for _, e := range m.Entries() {
		if pkg != "" && e.Package != pkg {
			continue
		}
		t.AppendRow(table.Row{e.Package, e.Option, e.Value, e.Source})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
	})
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
}

func renderShadows(w io.Writer, shadows []options.Shadow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Overrides replaced by rules")
	t.AppendHeader(table.Row{"Package", "Option", "Override", "Rule", "Value"})
	for _, s := range shadows {
		t.AppendRow(table.Row{s.Package, s.Option, s.Override, s.Pattern, s.Value})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}
