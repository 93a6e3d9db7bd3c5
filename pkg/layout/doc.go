// Package layout positions workflow tasks for display.
//
// Two engines implement [Engine]:
//
//   - [Layered]: a pure-Go layered layout (rank assignment, long-edge
//     subdivision, barycentric crossing reduction) with evenly spaced ranks.
//   - [Graphviz]: the Graphviz dot engine through go-graphviz, parsed back
//     into top-left anchored positions.
//
// Both produce a [Result] of diagram nodes and edges. Node payloads carry
// the task label, state and kind; edge IDs have the form "source->target".
// The result is the input to the merge-hint pass in package diagram:
//
//	engine, _ := layout.NewEngine("layered")
//	res, err := engine.Layout(ctx, g, layout.Options{Direction: "LR"})
//	edges := diagram.WithMergeHints(res.Nodes, res.Edges)
package layout
