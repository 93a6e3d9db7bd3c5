package layout

import (
	"context"
	"fmt"

	"github.com/matzehuels/wfdiagram/pkg/dag"
	"github.com/matzehuels/wfdiagram/pkg/diagram"
	"github.com/matzehuels/wfdiagram/pkg/errors"
	"github.com/matzehuels/wfdiagram/pkg/graph"
)

// Default geometry, in diagram units (pixels).
const (
	DefaultNodeWidth  = 220.0
	DefaultNodeHeight = diagram.DefaultNodeHeight
	DefaultRankSep    = 80.0
	DefaultNodeSep    = 24.0
)

// Engine computes node positions for a workflow graph.
type Engine interface {
	// Name returns the engine identifier (graph.EngineLayered, graph.EngineGraphviz).
	Name() string
	// Layout positions every task in g. The graph is not modified.
	Layout(ctx context.Context, g *dag.DAG, opts Options) (Result, error)
}

// Options configures a layout run. Zero values select the defaults.
type Options struct {
	Direction  string  // graph.DirectionLR (default) or graph.DirectionTB
	NodeWidth  float64 // Declared node width
	NodeHeight float64 // Declared node height
	RankSep    float64 // Gap between ranks
	NodeSep    float64 // Gap between nodes within a rank

	// BreakCycles removes back edges instead of failing on cyclic input.
	BreakCycles bool
	// Sweeps is the number of crossing-reduction passes (layered engine only).
	Sweeps int
}

// WithDefaults returns a copy of o with zero fields replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Direction == "" {
		o.Direction = graph.DirectionLR
	}
	if o.NodeWidth <= 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.RankSep <= 0 {
		o.RankSep = DefaultRankSep
	}
	if o.NodeSep <= 0 {
		o.NodeSep = DefaultNodeSep
	}
	return o
}

// Validate checks the direction and rejects negative sizes.
func (o Options) Validate() error {
	switch o.Direction {
	case "", graph.DirectionLR, graph.DirectionTB:
	default:
		return errors.New(errors.ErrCodeInvalidDirection, "unknown direction %q (want LR or TB)", o.Direction)
	}
	if o.NodeWidth < 0 || o.NodeHeight < 0 || o.RankSep < 0 || o.NodeSep < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "layout sizes must not be negative")
	}
	return nil
}

// Result is a positioned diagram, ready for edge routing.
type Result struct {
	Nodes  []diagram.Node
	Edges  []diagram.Edge
	Width  float64
	Height float64
}

// NewEngine returns the engine registered under name. An empty name selects
// the layered engine.
func NewEngine(name string) (Engine, error) {
	switch name {
	case "", graph.EngineLayered:
		return Layered{}, nil
	case graph.EngineGraphviz:
		return Graphviz{}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidEngine, "unknown layout engine %q (want %s or %s)",
			name, graph.EngineLayered, graph.EngineGraphviz)
	}
}

// Engines lists the available engine names.
func Engines() []string { return []string{graph.EngineLayered, graph.EngineGraphviz} }

// EdgeID formats the identifier of the edge source→target.
func EdgeID(source, target string) string { return source + "->" + target }

// Edges converts the task edges of g into diagram edges in insertion order.
// Parallel edges get a "#n" suffix so IDs stay unique.
func Edges(g *dag.DAG) []diagram.Edge {
	all := g.Edges()
	out := make([]diagram.Edge, 0, len(all))
	seen := make(map[string]int, len(all))
	for _, e := range all {
		id := EdgeID(e.From, e.To)
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id = fmt.Sprintf("%s#%d", id, n)
		} else {
			seen[id] = 1
		}
		out = append(out, diagram.Edge{ID: id, Source: e.From, Target: e.To})
	}
	return out
}

// prepare validates g and returns a working copy, breaking cycles if asked.
func prepare(g *dag.DAG, opts Options) (*dag.DAG, error) {
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil graph")
	}
	work := g.Clone()
	if opts.BreakCycles {
		breakCycles(work)
	}
	if err := work.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidWorkflow, err, "workflow graph")
	}
	return work, nil
}
