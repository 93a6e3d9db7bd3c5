// Package transform provides the graph passes used by the layered layout:
// rank assignment, cycle breaking, long-edge subdivision and crossing
// reduction.
//
// # Layered Pipeline
//
// The layered engine runs the passes on a clone of the workflow graph:
//
//	transform.AssignLayers(g)          // rank = longest dependency chain
//	transform.Subdivide(g)             // virtual nodes on multi-rank edges
//	transform.OrderBarycentric(g, 0)   // in-rank order with fewer crossings
//
// [BreakCycles] is not part of the default pipeline; workflows are acyclic and
// cyclic input is rejected unless the caller opts in.
//
// All passes modify the graph in place and panic if g is nil.
package transform
