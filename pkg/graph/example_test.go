package graph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/wfdiagram/pkg/graph"
)

func ExampleToDAG() {
	w, _ := graph.ReadWorkflow(strings.NewReader(`{
		"id": "wf_nightly",
		"tasks": [
			{"name": "extract"},
			{"name": "transform", "deps": ["extract"]},
			{"name": "load", "deps": ["transform", "extract"]}
		]
	}`))

	g, _ := graph.ToDAG(w)
	for _, e := range g.Edges() {
		fmt.Printf("%s -> %s\n", e.From, e.To)
	}
	// Output:
	// extract -> transform
	// transform -> load
	// extract -> load
}
