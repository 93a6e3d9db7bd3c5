package cli

import (
	"fmt"
	"maps"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wfdiagram/pkg/diagram"
	"github.com/matzehuels/wfdiagram/pkg/graph"
)

// hintsCommand creates the hints command for recomputing merge hints.
func (c *CLI) hintsCommand() *cobra.Command {
	var (
		write  bool
		output string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "hints [diagram.json]",
		Short: "Recompute and print the merge hints of a diagram",
		Long: `Recompute the merge hints of a diagram and print them per target.

Hints are recomputed from node positions with the [hints] settings from config,
replacing any hints already stored in the file. Only left-to-right diagrams get
hints. Use --write to save the result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := graph.ReadDiagramFile(args[0])
			if err != nil {
				return err
			}

			h := c.Config.Hints.Hinter()
			d = recomputeHints(d, h)
			rows := hintRows(d, h)
			if !all {
				rows = mergeRows(rows)
			}

			if len(rows) == 0 {
				printInfo("No merge targets")
			} else {
				fmt.Fprintln(stdout, hintTable(rows).Render())
			}
			printStats(len(d.Nodes), len(d.Edges), d.Hints, false)

			if !write && output == "" {
				return nil
			}
			path := output
			if path == "" {
				path = args[0]
			}
			if err := graph.WriteDiagramFile(d, path); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			printSuccess("Hints written")
			printFile(path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the recomputed hints back to the input file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the updated diagram to this file")
	cmd.Flags().BoolVar(&all, "all", false, "include edges into targets with a single predecessor")

	return cmd
}

// recomputeHints drops stored hints and computes them again with h.
func recomputeHints(d graph.Diagram, h diagram.Hinter) graph.Diagram {
	edges := make([]diagram.Edge, len(d.Edges))
	for i, e := range d.Edges {
		if _, ok := e.Data[diagram.KeyPreferredBendX]; ok {
			e.Data = maps.Clone(e.Data)
			delete(e.Data, diagram.KeyPreferredBendX)
		}
		edges[i] = e
	}
	d.Edges = edges
	return d.WithHints(h)
}

// =============================================================================
// Hint Rows
// =============================================================================

// hintRow describes one incoming edge of a target.
type hintRow struct {
	Target  string
	Edge    string
	Source  string
	Fanin   int
	SameRow bool
	BendX   float64
	Hinted  bool
}

// hintRows lists incoming edges grouped by target, in first-seen target order.
func hintRows(d graph.Diagram, h diagram.Hinter) []hintRow {
	index := diagram.NodeIndex(d.Nodes)
	groups := diagram.GroupIncoming(d.Edges)

	var rows []hintRow
	for _, target := range groups.Targets() {
		incoming := groups.Incoming(target)
		t, tok := index[target]
		for _, e := range incoming {
			row := hintRow{Target: target, Edge: e.ID, Source: e.Source, Fanin: len(incoming)}
			if src, ok := index[e.Source]; ok && tok {
				row.SameRow = h.SameRow(src, t)
			}
			row.BendX, row.Hinted = e.PreferredBendX()
			rows = append(rows, row)
		}
	}
	return rows
}

// mergeRows keeps only edges into targets with more than one predecessor.
func mergeRows(rows []hintRow) []hintRow {
	var out []hintRow
	for _, r := range rows {
		if r.Fanin > 1 {
			out = append(out, r)
		}
	}
	return out
}

func (r hintRow) placement() string {
	if r.SameRow {
		return "same row"
	}
	return "off row"
}

func (r hintRow) bend() string {
	if !r.Hinted {
		return "default"
	}
	return strconv.FormatFloat(r.BendX, 'f', 1, 64)
}

func hintTable(rows []hintRow) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{r.Target, r.Source, r.placement(), r.bend()}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Target", "Source", "Placement", "Bend X").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < 0 || row >= len(rows) {
				return lipgloss.NewStyle()
			}
			if rows[row].Hinted && col == 3 {
				return styleHinted
			}
			if col == 2 && !rows[row].SameRow {
				return styleDim
			}
			return lipgloss.NewStyle()
		})
}
