package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/kontex-neuro/xvcpkg/internal/libxvc"
	"github.com/kontex-neuro/xvcpkg/internal/modules"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the resolved dependency graph",
	Long:  `Graph resolves the host and tool dependencies of libxvc and prints them, dependencies first.`,
	Args:  cobra.NoArgs,
	RunE:  runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	recipe := libxvc.Recipe()
	res, err := s.builder.Plan(cmd.Context(), recipe, s.input())
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", recipe.Ref(), err)
	}
	renderGraph(cmd.OutOrStdout(), res.Host, res.Tools)
	return nil
}

// renderGraph prints one row per node of graphs.
func renderGraph(w io.Writer, graphs ...*modules.Graph) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Package", "Version", "Kind", "Range", "Required By"})
	for _, g := range graphs {
		for _, n := range g.Nodes {
			var by []string
			for _, c := range n.Constraints {
				by = append(by, c.RequiredBy)
			}
			t.AppendRow(table.Row{n.Name, n.Version, n.Kind, n.Range, strings.Join(by, ", ")})
		}
	}
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
}
