package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/matzehuels/wfdiagram/pkg/diagram"
	"github.com/matzehuels/wfdiagram/pkg/errors"
)

// =============================================================================
// Diagram - Positioned Workflow Layout
// =============================================================================

// Diagram is the serialization format for a laid-out workflow. Nodes and
// edges use the wire shape the browser diagram component consumes: nodes
// carry a top-left position plus size, edges carry an optional
// data.preferredBendX routing hint.
//
//	{
//	  "workflow_id": "wf_nightly",
//	  "engine": "layered",
//	  "direction": "LR",
//	  "nodes": [{"id": "load", "position": {"x": 540, "y": 0}, "width": 220, "height": 44}],
//	  "edges": [{"id": "extract->load", "source": "extract", "target": "load",
//	             "data": {"preferredBendX": 520}}],
//	  "hints": 1
//	}
type Diagram struct {
	WorkflowID string         `json:"workflow_id,omitempty" bson:"workflow_id,omitempty"`
	Name       string         `json:"name,omitempty" bson:"name,omitempty"`
	Engine     string         `json:"engine,omitempty" bson:"engine,omitempty"`
	Direction  string         `json:"direction,omitempty" bson:"direction,omitempty"`
	Width      float64        `json:"width" bson:"width"`
	Height     float64        `json:"height" bson:"height"`
	Nodes      []diagram.Node `json:"nodes" bson:"nodes"`
	Edges      []diagram.Edge `json:"edges" bson:"edges"`
	Hints      int            `json:"hints" bson:"hints"` // Number of edges carrying a bend hint
}

// NewDiagram builds a Diagram envelope for a workflow and fills in Hints.
func NewDiagram(w Workflow, engine, direction string, width, height float64, nodes []diagram.Node, edges []diagram.Edge) Diagram {
	return Diagram{
		WorkflowID: w.ID,
		Name:       w.Name,
		Engine:     engine,
		Direction:  direction,
		Width:      width,
		Height:     height,
		Nodes:      nodes,
		Edges:      edges,
		Hints:      diagram.CountHinted(edges),
	}
}

// DiagramNodes returns a copy of the positioned nodes.
func (d Diagram) DiagramNodes() []diagram.Node { return slices.Clone(d.Nodes) }

// DiagramEdges returns a copy of the edges.
func (d Diagram) DiagramEdges() []diagram.Edge { return slices.Clone(d.Edges) }

// Node returns the node with the given ID.
func (d Diagram) Node(id string) (diagram.Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return diagram.Node{}, false
}

// IsVertical reports whether ranks run top to bottom.
func (d Diagram) IsVertical() bool { return d.Direction == DirectionTB }

// WithHints returns a copy of d whose edges carry merge hints computed by h.
// Hints only apply to left-to-right diagrams; other directions are returned
// with Hints recounted and edges untouched.
func (d Diagram) WithHints(h diagram.Hinter) Diagram {
	if !d.IsVertical() {
		d.Edges = h.Apply(d.Nodes, d.Edges)
	}
	d.Hints = diagram.CountHinted(d.Edges)
	return d
}

// =============================================================================
// Diagram Serialization API
// =============================================================================

// MarshalDiagram serializes a Diagram to pretty-printed JSON bytes.
func MarshalDiagram(d Diagram) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// UnmarshalDiagram deserializes JSON bytes into a Diagram.
// Every node needs an id. Edges may reference nodes that are not in the
// diagram; they get no merge hint and are skipped by renderers.
func UnmarshalDiagram(data []byte) (Diagram, error) {
	var d Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return Diagram{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unmarshal diagram")
	}
	if d.Direction == "" {
		d.Direction = DirectionLR
	}

	for _, n := range d.Nodes {
		if n.ID == "" {
			return Diagram{}, errors.New(errors.ErrCodeInvalidFormat, "diagram node without id")
		}
	}
	return d, nil
}

// WriteDiagramFile writes a Diagram to a JSON file.
func WriteDiagramFile(d Diagram, path string) error {
	data, err := MarshalDiagram(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadDiagramFile reads a Diagram from a JSON file.
func ReadDiagramFile(path string) (Diagram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Diagram{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalDiagram(data)
}

// IsDiagram reports whether data looks like a serialized Diagram rather than
// a Workflow.
func IsDiagram(data []byte) bool {
	var probe struct {
		Nodes json.RawMessage `json:"nodes"`
		Tasks json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Nodes != nil && probe.Tasks == nil
}
