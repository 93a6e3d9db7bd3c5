// Package dag provides the task graph of a workflow: tasks as nodes and
// dependencies as directed edges, with the rank and in-rank order assigned by
// the layout stage.
//
// # Basic Usage
//
// Create a graph with [New], add tasks with [DAG.AddNode] and dependencies
// with [DAG.AddEdge]. Task IDs must be unique; edges may only reference tasks
// that already exist:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "extract"})
//	g.AddNode(dag.Node{ID: "load"})
//	g.AddEdge(dag.Edge{From: "extract", To: "load"})
//
// [DAG.Validate] rejects dangling edges and dependency cycles. Edges may span
// any number of ranks; the layered layout inserts [NodeKindVirtual] nodes
// (see the transform subpackage) before ordering.
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] count inversions with a Fenwick
// tree in O(E log V). The layout engine logs them before and after crossing
// reduction.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph.
package dag
