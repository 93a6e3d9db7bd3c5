package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wfdiagram/pkg/graph"
	"github.com/matzehuels/wfdiagram/pkg/pipeline"
)

// layoutCommand creates the layout command for computing diagrams.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		flags  layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [workflow.json]",
		Short: "Compute a positioned diagram from a workflow",
		Long: `Compute a positioned diagram from a workflow.

The layout command reads a workflow JSON file (as written by 'fetch'), positions
every task with the selected engine and attaches merge hints to converging
edges. The output is a diagram JSON file that 'render', 'hints' and 'inspect'
accept.

Results are cached for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			flags.apply(&opts)
			return c.runLayout(cmd.Context(), args[0], output, opts, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.diagram.json)")
	flags.register(cmd)

	return cmd
}

// runLayout loads the workflow, computes the diagram, and writes output.
func (c *CLI) runLayout(ctx context.Context, input, output string, opts pipeline.Options, noCache bool) error {
	w, err := graph.ReadWorkflowFile(input)
	if err != nil {
		return fmt.Errorf("load workflow %s: %w", input, err)
	}

	runner := c.newRunner(ctx, noCache)
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, "Computing layout...")
	spinner.Start()

	res, err := runner.ExecuteWorkflow(ctx, w, withFormats(opts, graph.FormatJSON))
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	prog.done("Layout computed", "engine", res.Diagram.Engine, "hinted", res.Stats.Hinted)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = derivePath(input, ".diagram.json")
	}
	if err := graph.WriteDiagramFile(res.Diagram, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(res.Stats.TaskCount, res.Stats.EdgeCount, res.Stats.Hinted, res.CacheInfo.LayoutHit)
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}

func withFormats(opts pipeline.Options, formats ...string) pipeline.Options {
	opts.Formats = formats
	return opts
}

// derivePath replaces the extension of input with suffix, treating
// ".diagram.json" as one extension.
func derivePath(input, suffix string) string {
	base := strings.TrimSuffix(input, ".diagram.json")
	if base == input {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}
	return base + suffix
}
