package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wfdiagram/pkg/graph"
	"github.com/matzehuels/wfdiagram/pkg/pipeline"
)

// renderOpts holds the render command flags.
type renderOpts struct {
	layoutFlags
	output  string
	formats string
	title   string
	scale   float64
	markers bool
}

// renderCommand creates the render command for generating diagram files.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [workflow.json | diagram.json]",
		Short: "Render a workflow or diagram to SVG, PNG, PDF or DOT",
		Long: `Render a workflow or a precomputed diagram to one or more output formats.

A workflow input is laid out first, using the same flags as 'layout'. A diagram
input (from 'layout') is rendered as-is, so its merge hints are kept.

The dot.svg format is laid out and drawn by Graphviz from the DOT export; it
ignores merge hints. PNG and PDF output require rsvg-convert on the PATH.`,
		Example: `  # SVG next to the input
  wfdiagram render nightly.json

  # Several formats at once
  wfdiagram render nightly.diagram.json -f svg,png,pdf -o out/nightly`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output path; the format extension is added per format")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output formats: svg, png, pdf, dot, dot.svg, json (comma-separated)")
	cmd.Flags().StringVar(&opts.title, "title", "", "diagram title (default: workflow name)")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.markers, "hint-markers", false, "mark hinted bend points in SVG output")
	opts.layoutFlags.register(cmd)

	return cmd
}

// runRender loads the input, computes a diagram if needed, and writes one
// file per requested format.
func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	formats := parseFormats(opts.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	popts := c.pipelineOptions()
	opts.layoutFlags.apply(&popts)
	popts.Formats = formats
	popts.Title = opts.title
	popts.Scale = opts.scale
	popts.HintMarkers = opts.markers

	runner := c.newRunner(ctx, opts.noCache)
	defer runner.Close()

	spinner := newSpinner(ctx, "Rendering...")
	spinner.Start()

	var (
		artifacts map[string][]byte
		d         graph.Diagram
		cached    bool
	)
	if graph.IsDiagram(data) {
		d, err = graph.UnmarshalDiagram(data)
		if err == nil {
			c.Logger.Debug("rendering precomputed diagram", "nodes", len(d.Nodes), "edges", len(d.Edges))
			artifacts, cached, err = runner.RenderWithCacheInfo(ctx, d, popts)
		}
	} else {
		var w graph.Workflow
		w, err = graph.UnmarshalWorkflow(data)
		if err == nil {
			var res *pipeline.Result
			res, err = runner.ExecuteWorkflow(ctx, w, popts)
			if err == nil {
				d, artifacts, cached = res.Diagram, res.Artifacts, res.CacheInfo.RenderHit
			}
		}
	}
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render %s: %w", input, err)
	}
	spinner.Stop()

	base := basePath(opts.output, input)
	var paths []string
	for _, format := range formats {
		path := base + "." + format
		if filepath.Clean(path) == filepath.Clean(input) {
			path = base + ".diagram." + format
		}
		if err := writeArtifact(path, artifacts[format]); err != nil {
			return err
		}
		c.Logger.Debug("wrote artifact", "path", path, "bytes", len(artifacts[format]))
		paths = append(paths, path)
	}

	printSuccess("Rendered %d file(s)", len(paths))
	for _, p := range paths {
		printFile(p)
	}
	printStats(len(d.Nodes), len(d.Edges), d.Hints, cached)

	if slices.Contains(formats, graph.FormatSVG) && !slices.Contains(formats, graph.FormatPNG) {
		printNewline()
		printNextStep("PNG export", fmt.Sprintf("%s render %s -f png", appName, input))
	}
	return nil
}

// basePath derives the output path without extension. A known format
// extension on output is stripped; otherwise the input's extension is.
func basePath(output, input string) string {
	if output == "" {
		return derivePath(input, "")
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if pipeline.ValidateFormat(ext) == nil {
		return strings.TrimSuffix(output, "."+ext)
	}
	return output
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
