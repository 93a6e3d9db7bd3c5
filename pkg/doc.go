// Package pkg provides the core libraries for wfdiagram workflow diagrams.
//
// # Overview
//
// wfdiagram turns workflow task graphs into positioned diagrams. Converging
// edges get merge hints so that edges arriving from other rows share one
// vertical trunk just left of their target instead of each bending halfway.
//
// # Architecture
//
// The typical data flow:
//
//	Job database / workflow file
//	         ↓
//	    [source] (load a graph.Workflow)
//	         ↓
//	    [dag] + [dag/transform] (task graph, cycles, layering, ordering)
//	         ↓
//	    [layout] (layered or graphviz positions)
//	         ↓
//	    [diagram] (merge hints)
//	         ↓
//	    [render] (SVG, DOT, PNG, PDF)
//
// [pipeline] runs these steps behind a [cache] for the CLI and the HTTP API.
//
// # Quick Start
//
//	w, _ := graph.ReadWorkflowFile("nightly.json")
//	d, _ := pipeline.Layout(ctx, w, pipeline.Options{}.WithDefaults())
//	d = d.WithHints(diagram.Hinter{})
//	svg := render.SVG(d)
//
// Or run the cached pipeline:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	res, _ := runner.ExecuteWorkflow(ctx, w, pipeline.Options{Formats: []string{"svg"}})
//
// # Packages
//
// [diagram] - Positioned nodes and edges in the wire shape the browser
// component consumes, plus the merge-hint heuristic.
//
// [graph] - Workflow and Diagram serialization.
//
// [dag] - Task graph with rows and orders for layered layout.
//
// [dag/transform] - Cycle breaking, layering, long-edge subdivision and
// barycentric crossing reduction.
//
// [layout] - Layout engines behind one interface.
//
// [render] - SVG and DOT output, PNG/PDF conversion.
//
// [source] - Workflow sources: a directory of JSON files or a job table in
// PostgreSQL.
//
// [cache] - File, Redis and MongoDB cache backends with typed keys.
//
// [config] - TOML configuration with environment overrides.
//
// [errors] - Coded errors shared by the CLI and HTTP API.
//
// [observability] - Pipeline, cache and HTTP hooks.
//
// [diagram]: https://pkg.go.dev/github.com/matzehuels/wfdiagram/pkg/diagram
// [graph]: https://pkg.go.dev/github.com/matzehuels/wfdiagram/pkg/graph
// [dag]: https://pkg.go.dev/github.com/matzehuels/wfdiagram/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/wfdiagram/pkg/dag/transform
// [layout]: https://pkg.go.dev/github.com/matzehuels/wfdiagram/pkg/layout
// [render]: https://pkg.go.dev/github.com/matzehuels/wfdiagram/pkg/render
// [source]: https://pkg.go.dev/github.com/matzehuels/wfdiagram/pkg/source
// [cache]: https://pkg.go.dev/github.com/matzehuels/wfdiagram/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/wfdiagram/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/wfdiagram/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/wfdiagram/pkg/observability
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/wfdiagram/pkg/pipeline
package pkg
