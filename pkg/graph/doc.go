// Package graph provides serialization types for workflows and diagrams.
//
// This package defines the canonical wire format for wfdiagram's data, used
// for JSON files, API responses, caching and the browser diagram component.
//
// # Architecture
//
// The package sits at the serialization boundary between internal
// representations and external formats:
//
//   - [Workflow], [Diagram]: Serialization types (this package)
//   - dag.DAG: Internal task graph used by the layout engines
//   - diagram.Node, diagram.Edge: Positioned elements consumed by the edge router
//
// Use [ToDAG]/[FromDAG] to convert between a Workflow and its DAG.
//
// # Constants
//
// This package is the single source of truth for engine, direction, format
// and task state names:
//
//	graph.EngineLayered     // "layered"
//	graph.EngineGraphviz    // "graphviz"
//	graph.DirectionLR       // "LR"
//	graph.FormatSVG         // "svg"
//	graph.StateRunning      // "running"
//
// # Diagram Serialization
//
// A [Diagram] carries the layout result together with the merge hints
// attached to its edges. [Diagram.WithHints] recomputes hints for positions
// that changed, for example after a renderer reported measured node sizes.
package graph
