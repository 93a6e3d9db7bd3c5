package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/wfdiagram/pkg/graph"
	"github.com/matzehuels/wfdiagram/pkg/layout"
	"github.com/matzehuels/wfdiagram/pkg/observability"
)

// Layout positions the tasks of w without hints. Options must have defaults
// applied.
func Layout(ctx context.Context, w graph.Workflow, opts Options) (graph.Diagram, error) {
	engine, err := layout.NewEngine(opts.Engine)
	if err != nil {
		return graph.Diagram{}, err
	}
	g, err := graph.ToDAG(w)
	if err != nil {
		return graph.Diagram{}, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, engine.Name(), g.NodeCount())
	start := time.Now()

	res, err := engine.Layout(ctx, g, opts.LayoutOptions())
	hooks.OnLayoutComplete(ctx, engine.Name(), time.Since(start), err)
	if err != nil {
		return graph.Diagram{}, err
	}
	return graph.NewDiagram(w, engine.Name(), opts.Direction, res.Width, res.Height, res.Nodes, res.Edges), nil
}

// ApplyHints attaches merge hints to d when opts enables them and reports
// the number of hinted edges through the pipeline hooks.
func ApplyHints(ctx context.Context, d graph.Diagram, opts Options) graph.Diagram {
	if !opts.HintsEnabled() {
		return d
	}
	start := time.Now()
	d = d.WithHints(opts.Hinter)
	observability.Pipeline().OnHintsComplete(ctx, len(d.Edges), d.Hints, time.Since(start))
	return d
}
