package graph

import (
	"fmt"
	"maps"

	"github.com/matzehuels/wfdiagram/pkg/dag"
	"github.com/matzehuels/wfdiagram/pkg/errors"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Layout engines.
const (
	EngineLayered  = "layered"
	EngineGraphviz = "graphviz"
)

// Layout directions. LR places dependency ranks in columns (left to right),
// TB places them in rows (top to bottom).
const (
	DirectionLR = "LR"
	DirectionTB = "TB"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	// FormatDOTSVG is the DOT export rendered by Graphviz itself. Graphviz
	// routes edges on its own, so merge hints do not show.
	FormatDOTSVG = "dot.svg"
)

// Task states as reported by the job queue.
const (
	StatePending   = "pending"
	StateScheduled = "scheduled"
	StateAvailable = "available"
	StateRunning   = "running"
	StateRetryable = "retryable"
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateDiscarded = "discarded"
	StateCancelled = "cancelled"
)

// Metadata keys shared by DAG nodes and diagram node payloads.
const (
	MetaLabel = "label"
	MetaState = "state"
	MetaKind  = "kind"

	MetaWorkflowID   = "workflow_id"
	MetaWorkflowName = "workflow_name"
)

// =============================================================================
// Workflow - Task Graph Serialization
// =============================================================================

// Workflow is the canonical serialization format for a workflow: a named set
// of tasks, each listing the tasks it depends on.
//
//	{
//	  "id": "wf_nightly",
//	  "tasks": [
//	    {"name": "extract"},
//	    {"name": "load", "deps": ["extract"], "state": "running"}
//	  ]
//	}
type Workflow struct {
	ID    string `json:"id" bson:"id"`
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
	Tasks []Task `json:"tasks" bson:"tasks"`
}

// Task is one unit of work in a workflow.
type Task struct {
	Name  string         `json:"name" bson:"name"`
	Deps  []string       `json:"deps,omitempty" bson:"deps,omitempty"`
	Label string         `json:"label,omitempty" bson:"label,omitempty"` // Display label (defaults to Name)
	State string         `json:"state,omitempty" bson:"state,omitempty"`
	Kind  string         `json:"kind,omitempty" bson:"kind,omitempty"` // Job kind (worker name)
	Meta  map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the task name.
func (t Task) DisplayLabel() string {
	if t.Label != "" {
		return t.Label
	}
	return t.Name
}

// Title returns the workflow name if set, otherwise the ID.
func (w Workflow) Title() string {
	if w.Name != "" {
		return w.Name
	}
	return w.ID
}

// Validate checks task names, uniqueness and dependency references. It does
// not check for cycles; see [dag.DAG.Validate].
func (w Workflow) Validate() error {
	_, err := ToDAG(w)
	return err
}

// =============================================================================
// DAG ↔ Workflow Conversion
// =============================================================================

// ToDAG converts a Workflow to a DAG with one node per task and one edge per
// dependency (dep → task). Edges are added in task order, then dependency order.
//
// Errors carry [errors.ErrCodeInvalidWorkflow]. Cycles are not rejected here so
// that callers can choose between failing and breaking them.
func ToDAG(w Workflow) (*dag.DAG, error) {
	d := dag.New(dag.Metadata{MetaWorkflowID: w.ID})
	if w.Name != "" {
		d.Meta()[MetaWorkflowName] = w.Name
	}

	for _, t := range w.Tasks {
		if err := errors.ValidateTaskName(t.Name); err != nil {
			return nil, err
		}
		if err := d.AddNode(dag.Node{ID: t.Name, Meta: taskMeta(t)}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidWorkflow, err, "task %q", t.Name)
		}
	}

	for _, t := range w.Tasks {
		for _, dep := range t.Deps {
			if err := d.AddEdge(dag.Edge{From: dep, To: t.Name}); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidWorkflow, err, "dependency %s→%s", dep, t.Name)
			}
		}
	}

	return d, nil
}

// FromDAG converts a DAG back to a Workflow. Tasks are sorted by name and
// virtual layout nodes are skipped.
func FromDAG(g *dag.DAG) Workflow {
	w := Workflow{}
	w.ID, _ = g.Meta()[MetaWorkflowID].(string)
	w.Name, _ = g.Meta()[MetaWorkflowName].(string)

	for _, n := range g.Nodes() {
		if n.IsVirtual() {
			continue
		}
		w.Tasks = append(w.Tasks, taskFromNode(n, g.Parents(n.ID)))
	}
	return w
}

// NodeData builds the diagram payload for a task node: label, state and kind
// when present, plus any extra metadata.
func NodeData(n *dag.Node) map[string]any {
	data := make(map[string]any, len(n.Meta)+1)
	maps.Copy(data, n.Meta)
	data[MetaLabel] = n.Label()
	return data
}

// =============================================================================
// Internal Helpers
// =============================================================================

func taskMeta(t Task) dag.Metadata {
	m := make(dag.Metadata, len(t.Meta)+3)
	maps.Copy(m, t.Meta)
	if t.Label != "" {
		m[MetaLabel] = t.Label
	}
	if t.State != "" {
		m[MetaState] = t.State
	}
	if t.Kind != "" {
		m[MetaKind] = t.Kind
	}
	return m
}

func taskFromNode(n *dag.Node, parents []string) Task {
	t := Task{Name: n.ID}
	if len(parents) > 0 {
		t.Deps = append([]string(nil), parents...)
	}

	meta := make(map[string]any, len(n.Meta))
	for k, v := range n.Meta {
		switch k {
		case MetaLabel:
			t.Label = fmt.Sprint(v)
		case MetaState:
			t.State = fmt.Sprint(v)
		case MetaKind:
			t.Kind = fmt.Sprint(v)
		default:
			meta[k] = v
		}
	}
	if len(meta) > 0 {
		t.Meta = meta
	}
	return t
}
