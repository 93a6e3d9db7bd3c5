// Package diagram holds the positioned node/edge model of a workflow diagram and
// the merge-hint heuristic that biases how incoming edges converge on a task.
//
// # Model
//
// A [Node] is a laid-out box: a top-left [Position], a declared size and an
// optional [Size] measured by the renderer. An [Edge] is a directed connector
// between two node ids with an opaque Data payload that renderers read for
// styling and routing hints.
//
// # Merge Hints
//
// When a task has several incoming edges and at least one of them arrives
// horizontally aligned with the task (same row), the remaining off-row edges
// are bent at one shared x-coordinate just left of the task:
//
//	preferredBendX = target.Position.X - BendPadding
//
// The hint is written to Edge.Data under [KeyPreferredBendX]. Renderers that
// understand the key place the vertical segment of the connector there, so
// the off-row edges merge into a comb before reaching the target instead of
// each bending at its own midpoint. Without a same-row edge there is no line
// to merge toward and no hints are produced.
//
// The computation is a pure function of its inputs:
//
//	edges = diagram.WithMergeHints(nodes, edges)
//
// Dangling references (edges whose source or target is not in the node set)
// never produce an error; such edges simply receive no hint. When nothing
// qualifies, [ApplyMergeHints] returns the input slice itself so memoized
// consumers can compare by identity.
//
// # Constants
//
// [DefaultNodeHeight], [RowTolerance] and [BendPadding] are visual policy.
// Use a [Hinter] to run the heuristic with different values.
//
// # Concurrency
//
// All functions are safe for concurrent use. Inputs are never modified.
package diagram
