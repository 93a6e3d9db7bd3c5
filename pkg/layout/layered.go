package layout

import (
	"context"

	"github.com/matzehuels/wfdiagram/pkg/dag"
	"github.com/matzehuels/wfdiagram/pkg/dag/transform"
	"github.com/matzehuels/wfdiagram/pkg/diagram"
	"github.com/matzehuels/wfdiagram/pkg/graph"
)

// Layered is a Sugiyama-style engine implemented in Go.
//
// Ranks come from the longest dependency chain, in-rank order from barycentric
// crossing reduction over the subdivided graph. Each rank is centered on the
// widest rank along the cross axis:
//
//	LR: x = rank*(NodeWidth+RankSep), y = offset + i*(NodeHeight+NodeSep)
//	TB: y = rank*(NodeHeight+RankSep), x = offset + i*(NodeWidth+NodeSep)
type Layered struct{}

// Name implements [Engine].
func (Layered) Name() string { return graph.EngineLayered }

// Layout implements [Engine].
func (Layered) Layout(ctx context.Context, g *dag.DAG, opts Options) (Result, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	work, err := prepare(g, opts)
	if err != nil {
		return Result{}, err
	}
	edges := Edges(work)

	transform.AssignLayers(work)
	transform.Subdivide(work)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	transform.OrderBarycentric(work, opts.Sweeps)

	ranks := make([][]*dag.Node, 0, work.MaxRow()+1)
	widest := 0
	for _, row := range work.RowIDs() {
		var tasks []*dag.Node
		for _, n := range work.NodesInRow(row) {
			if !n.IsVirtual() {
				tasks = append(tasks, n)
			}
		}
		ranks = append(ranks, tasks)
		widest = max(widest, len(tasks))
	}

	vertical := opts.Direction == graph.DirectionTB
	rankSize, crossSize := opts.NodeWidth, opts.NodeHeight
	if vertical {
		rankSize, crossSize = opts.NodeHeight, opts.NodeWidth
	}
	span := func(n int) float64 {
		if n == 0 {
			return 0
		}
		return float64(n)*crossSize + float64(n-1)*opts.NodeSep
	}
	crossExtent := span(widest)

	nodes := make([]diagram.Node, 0, g.NodeCount())
	for r, tasks := range ranks {
		offset := (crossExtent - span(len(tasks))) / 2
		for i, n := range tasks {
			along := float64(r) * (rankSize + opts.RankSep)
			across := offset + float64(i)*(crossSize+opts.NodeSep)
			pos := diagram.Position{X: along, Y: across}
			if vertical {
				pos = diagram.Position{X: across, Y: along}
			}
			nodes = append(nodes, diagram.Node{
				ID:       n.ID,
				Position: pos,
				Width:    opts.NodeWidth,
				Height:   opts.NodeHeight,
				Data:     graph.NodeData(n),
			})
		}
	}

	rankExtent := 0.0
	if len(ranks) > 0 {
		rankExtent = float64(len(ranks))*rankSize + float64(len(ranks)-1)*opts.RankSep
	}
	res := Result{Nodes: nodes, Edges: edges, Width: rankExtent, Height: crossExtent}
	if vertical {
		res.Width, res.Height = crossExtent, rankExtent
	}
	return res, nil
}

func breakCycles(g *dag.DAG) int { return transform.BreakCycles(g) }
