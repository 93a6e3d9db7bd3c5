package dag_test

import (
	"fmt"

	"github.com/matzehuels/wfdiagram/pkg/dag"
)

func ExampleDAG_basic() {
	// extract → transform → load
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "extract"})
	_ = g.AddNode(dag.Node{ID: "transform"})
	_ = g.AddNode(dag.Node{ID: "load"})
	_ = g.AddEdge(dag.Edge{From: "extract", To: "transform"})
	_ = g.AddEdge(dag.Edge{From: "transform", To: "load"})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Valid:", g.Validate() == nil)
	// Output:
	// Nodes: 3
	// Edges: 2
	// Valid: true
}

func ExampleDAG_traversal() {
	// Fan-in: report waits for both fetch tasks
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "fetch-a"})
	_ = g.AddNode(dag.Node{ID: "fetch-b"})
	_ = g.AddNode(dag.Node{ID: "report"})
	_ = g.AddEdge(dag.Edge{From: "fetch-a", To: "report"})
	_ = g.AddEdge(dag.Edge{From: "fetch-b", To: "report"})

	fmt.Println("Parents of report:", g.Parents("report"))
	fmt.Println("In-degree of report:", g.InDegree("report"))
	fmt.Println("Sources:", dag.NodeIDs(g.Sources()))
	// Output:
	// Parents of report: [fetch-a fetch-b]
	// In-degree of report: 2
	// Sources: [fetch-a fetch-b]
}

func ExampleDAG_Validate() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "a"})
	_ = g.AddNode(dag.Node{ID: "b"})
	_ = g.AddEdge(dag.Edge{From: "a", To: "b"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "a"})

	fmt.Println(g.Validate())
	// Output:
	// graph contains a cycle
}

func ExampleCountLayerCrossings() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "a", Row: 0})
	_ = g.AddNode(dag.Node{ID: "b", Row: 0})
	_ = g.AddNode(dag.Node{ID: "x", Row: 1})
	_ = g.AddNode(dag.Node{ID: "y", Row: 1})

	// a→y and b→x cross when a is above b
	_ = g.AddEdge(dag.Edge{From: "a", To: "y"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "x"})

	lower := []string{"x", "y"}
	fmt.Println("Crossings:", dag.CountLayerCrossings(g, []string{"a", "b"}, lower))
	fmt.Println("After reorder:", dag.CountLayerCrossings(g, []string{"b", "a"}, lower))
	// Output:
	// Crossings: 1
	// After reorder: 0
}
