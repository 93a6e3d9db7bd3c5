package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wfdiagram/pkg/graph"
	"github.com/matzehuels/wfdiagram/pkg/source"
)

// fetchCommand creates the fetch command for reading workflows from a source.
func (c *CLI) fetchCommand() *cobra.Command {
	var (
		dir    string
		output string
		list   bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "fetch [workflow-id]",
		Short: "Read a workflow from the job database or a workflow directory",
		Long: `Read a workflow and write it as workflow JSON.

By default the workflow is read from the job database configured by [database]
url or WFDIAGRAM_DATABASE_URL. Use --dir to read <id>.json files instead, and
--list to show the workflows a source knows about.`,
		Example: `  wfdiagram fetch --list
  wfdiagram fetch wf_nightly -o nightly.json
  wfdiagram fetch wf_nightly | wfdiagram layout /dev/stdin`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := c.openSource(ctx, dir)
			if err != nil {
				return err
			}
			defer src.Close()

			if list {
				return c.runList(ctx, src, limit)
			}
			return c.runFetch(ctx, src, args[0], output)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory of <id>.json workflow files")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list workflows instead of fetching one")
	cmd.Flags().IntVar(&limit, "limit", source.DefaultListLimit, "maximum number of workflows to list")

	return cmd
}

func (c *CLI) runFetch(ctx context.Context, src source.Source, id, output string) error {
	prog := newProgress(c.Logger)
	w, err := src.Workflow(ctx, id)
	if err != nil {
		return err
	}
	prog.done("Fetched workflow", "source", src.Name(), "id", id, "tasks", len(w.Tasks))

	if output == "" {
		return graph.WriteWorkflow(w, stdout)
	}
	if err := graph.WriteWorkflowFile(w, output); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Fetched %s", styleValue.Render(w.Title()))
	printFile(output)
	printDetail("%d tasks", len(w.Tasks))
	printNewline()
	printNextStep("Layout", appName+" layout "+output)
	return nil
}

func (c *CLI) runList(ctx context.Context, src source.Source, limit int) error {
	summaries, err := src.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		printInfo("No workflows in %s source", src.Name())
		return nil
	}
	fmt.Fprintln(stdout, summaryTable(summaries).Render())
	return nil
}

func summaryTable(summaries []source.Summary) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		updated := "-"
		if !s.UpdatedAt.IsZero() {
			updated = s.UpdatedAt.Format("2006-01-02 15:04")
		}
		rows[i] = []string{s.ID, s.Name, strconv.Itoa(s.Tasks), updated}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Tasks", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 3 {
				return styleDim
			}
			return lipgloss.NewStyle()
		})
}
