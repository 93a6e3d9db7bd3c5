package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/wfdiagram/pkg/errors"
	"github.com/matzehuels/wfdiagram/pkg/graph"
	"github.com/matzehuels/wfdiagram/pkg/render"
)

// Render generates the requested formats for d. SVG is rendered once and
// reused for PNG and PDF conversion.
func Render(ctx context.Context, d graph.Diagram, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var svg []byte
	svgOnce := func() []byte {
		if svg == nil {
			svg = render.SVG(d, svgOptions(d, opts)...)
		}
		return svg
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case graph.FormatJSON:
			data, err = graph.MarshalDiagram(d)
		case graph.FormatSVG:
			data = svgOnce()
		case graph.FormatPNG:
			data, err = render.ToPNG(ctx, svgOnce(), opts.Scale)
		case graph.FormatPDF:
			data, err = render.ToPDF(ctx, svgOnce())
		case graph.FormatDOT:
			data = []byte(render.ToDOT(d))
		case graph.FormatDOTSVG:
			data, err = render.RenderDOTSVG(ctx, render.ToDOT(d))
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func svgOptions(d graph.Diagram, opts Options) []render.SVGOption {
	title := opts.Title
	if title == "" {
		title = d.Name
	}
	if title == "" {
		title = d.WorkflowID
	}
	var out []render.SVGOption
	if title != "" {
		out = append(out, render.WithTitle(title))
	}
	if opts.Padding > 0 {
		out = append(out, render.WithPadding(opts.Padding))
	}
	if opts.HintMarkers {
		out = append(out, render.WithHintMarkers())
	}
	return out
}
