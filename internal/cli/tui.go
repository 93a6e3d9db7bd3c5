package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wfdiagram/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand creates the inspect command for browsing merge targets.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		flags layoutFlags
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [workflow.json | diagram.json]",
		Short: "Browse merge targets and their incoming edges",
		Long: `Browse the merge targets of a diagram interactively.

Each target lists its incoming edges, whether each source sits on the target's
row, and the bend x-coordinate of hinted edges. A workflow input is laid out
first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.loadDiagram(cmd.Context(), args[0], flags)
			if err != nil {
				return err
			}
			m := newInspectModel(d, hintRows(d, c.Config.Hints.Hinter()), all)
			if len(m.targets) == 0 {
				printInfo("No merge targets")
				return nil
			}
			_, err = tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include targets with a single predecessor")
	flags.register(cmd)

	return cmd
}

// loadDiagram reads a diagram file, or lays out a workflow file.
func (c *CLI) loadDiagram(ctx context.Context, path string, flags layoutFlags) (graph.Diagram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return graph.Diagram{}, fmt.Errorf("read %s: %w", path, err)
	}
	if graph.IsDiagram(data) {
		return graph.UnmarshalDiagram(data)
	}

	w, err := graph.UnmarshalWorkflow(data)
	if err != nil {
		return graph.Diagram{}, err
	}
	opts := c.pipelineOptions()
	flags.apply(&opts)

	runner := c.newRunner(ctx, flags.noCache)
	defer runner.Close()
	return runner.Diagram(ctx, w, opts)
}

// =============================================================================
// inspectModel - Merge target browser
// =============================================================================

// inspectTarget groups the rows of one target.
type inspectTarget struct {
	id   string
	rows []hintRow
}

func (t inspectTarget) hinted() int {
	n := 0
	for _, r := range t.rows {
		if r.Hinted {
			n++
		}
	}
	return n
}

// inspectModel is the bubbletea model for the inspect command.
type inspectModel struct {
	title   string
	targets []inspectTarget
	cursor  int
	offset  int
	height  int
}

func newInspectModel(d graph.Diagram, rows []hintRow, all bool) inspectModel {
	if !all {
		rows = mergeRows(rows)
	}
	var targets []inspectTarget
	for _, r := range rows {
		if n := len(targets); n > 0 && targets[n-1].id == r.Target {
			targets[n-1].rows = append(targets[n-1].rows, r)
			continue
		}
		targets = append(targets, inspectTarget{id: r.Target, rows: []hintRow{r}})
	}

	title := d.Name
	if title == "" {
		title = d.WorkflowID
	}
	return inspectModel{title: title, targets: targets, height: 10}
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.targets)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height/2 - 4
		if m.height < 3 {
			m.height = 3
		}
	}
	return m, nil
}

func (m inspectModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Merge targets"))
	if m.title != "" {
		b.WriteString(listDimStyle.Render("  " + m.title))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.targets))
	for i := m.offset; i < end; i++ {
		t := m.targets[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-24s %d in, %d hinted", cursor, t.id, len(t.rows), t.hinted())
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if len(m.targets) > 0 {
		b.WriteString("\n")
		b.WriteString(hintTable(m.targets[m.cursor].rows).Render())
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.targets))))

	return b.String()
}
