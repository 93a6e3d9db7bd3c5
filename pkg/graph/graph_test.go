package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/wfdiagram/pkg/dag"
	"github.com/matzehuels/wfdiagram/pkg/diagram"
	"github.com/matzehuels/wfdiagram/pkg/errors"
)

func sampleWorkflow() Workflow {
	return Workflow{
		ID:   "wf_nightly",
		Name: "Nightly ETL",
		Tasks: []Task{
			{Name: "extract", State: StateCompleted, Kind: "extract_job"},
			{Name: "transform", Deps: []string{"extract"}, State: StateRunning},
			{Name: "validate", Deps: []string{"extract"}, Label: "Validate rows"},
			{Name: "load", Deps: []string{"transform", "validate"}, Meta: map[string]any{"attempt": 2.0}},
		},
	}
}

func TestToDAG(t *testing.T) {
	g, err := ToDAG(sampleWorkflow())
	if err != nil {
		t.Fatalf("ToDAG() error: %v", err)
	}
	if g.NodeCount() != 4 || g.EdgeCount() != 4 {
		t.Fatalf("nodes=%d edges=%d, want 4 and 4", g.NodeCount(), g.EdgeCount())
	}
	if got := g.Parents("load"); len(got) != 2 || got[0] != "transform" || got[1] != "validate" {
		t.Errorf("Parents(load) = %v", got)
	}

	n, _ := g.Node("transform")
	if n.Meta[MetaState] != StateRunning {
		t.Errorf("transform state = %v", n.Meta[MetaState])
	}
	v, _ := g.Node("validate")
	if v.Label() != "Validate rows" {
		t.Errorf("validate label = %q", v.Label())
	}
	if g.Meta()[MetaWorkflowID] != "wf_nightly" {
		t.Errorf("workflow id meta = %v", g.Meta()[MetaWorkflowID])
	}
}

func TestToDAGErrors(t *testing.T) {
	tests := []struct {
		name string
		w    Workflow
	}{
		{"empty task name", Workflow{Tasks: []Task{{Name: ""}}}},
		{"duplicate task", Workflow{Tasks: []Task{{Name: "a"}, {Name: "a"}}}},
		{"unknown dep", Workflow{Tasks: []Task{{Name: "a", Deps: []string{"ghost"}}}}},
		{"self dep", Workflow{Tasks: []Task{{Name: "a", Deps: []string{"a"}}}}},
		{"arrow in name", Workflow{Tasks: []Task{{Name: "a->b"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToDAG(tt.w)
			if err == nil {
				t.Fatal("ToDAG() error = nil")
			}
			if !errors.Is(err, errors.ErrCodeInvalidWorkflow) {
				t.Errorf("code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidWorkflow)
			}
		})
	}
}

func TestToDAGAllowsCycles(t *testing.T) {
	w := Workflow{Tasks: []Task{
		{Name: "a", Deps: []string{"b"}},
		{Name: "b", Deps: []string{"a"}},
	}}
	g, err := ToDAG(w)
	if err != nil {
		t.Fatalf("ToDAG() error: %v", err)
	}
	if err := g.Validate(); err != dag.ErrGraphHasCycle {
		t.Errorf("Validate() = %v, want ErrGraphHasCycle", err)
	}
}

func TestFromDAGRoundTrip(t *testing.T) {
	w := sampleWorkflow()
	g, err := ToDAG(w)
	if err != nil {
		t.Fatal(err)
	}
	_ = g.AddNode(dag.Node{ID: "extract_v_1", Kind: dag.NodeKindVirtual})

	back := FromDAG(g)
	if back.ID != w.ID || back.Name != w.Name {
		t.Errorf("id/name = %q/%q", back.ID, back.Name)
	}
	if len(back.Tasks) != 4 {
		t.Fatalf("tasks = %d, want 4 (virtual nodes skipped)", len(back.Tasks))
	}

	byName := map[string]Task{}
	for _, task := range back.Tasks {
		byName[task.Name] = task
	}
	if got := byName["load"]; len(got.Deps) != 2 || got.Meta["attempt"] != 2.0 {
		t.Errorf("load = %+v", got)
	}
	if got := byName["extract"]; got.State != StateCompleted || got.Kind != "extract_job" {
		t.Errorf("extract = %+v", got)
	}
	if got := byName["validate"]; got.Label != "Validate rows" {
		t.Errorf("validate label = %q", got.Label)
	}
}

func TestReadWorkflow(t *testing.T) {
	input := `{"id":"wf","tasks":[{"name":"a"},{"name":"b","deps":["a"]}]}`
	w, err := ReadWorkflow(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadWorkflow() error: %v", err)
	}
	if len(w.Tasks) != 2 || w.Tasks[1].Deps[0] != "a" {
		t.Errorf("tasks = %+v", w.Tasks)
	}

	if _, err := ReadWorkflow(strings.NewReader(`{"tasks":`)); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("truncated JSON error = %v, want INVALID_FORMAT", err)
	}
	if _, err := ReadWorkflow(strings.NewReader(`{"tasks":[{"name":"b","deps":["a"]}]}`)); !errors.Is(err, errors.ErrCodeInvalidWorkflow) {
		t.Errorf("unknown dep error = %v, want INVALID_WORKFLOW", err)
	}
}

func TestWorkflowFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wf.json")
	if err := WriteWorkflowFile(sampleWorkflow(), path); err != nil {
		t.Fatalf("WriteWorkflowFile() error: %v", err)
	}
	w, err := ReadWorkflowFile(path)
	if err != nil {
		t.Fatalf("ReadWorkflowFile() error: %v", err)
	}
	if w.Title() != "Nightly ETL" || len(w.Tasks) != 4 {
		t.Errorf("read back %+v", w)
	}

	_, err = ReadWorkflowFile(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestDiagramWithHints(t *testing.T) {
	d := Diagram{
		Direction: DirectionLR,
		Nodes: []diagram.Node{
			{ID: "a", Position: diagram.Position{X: 0, Y: 0}, Height: 44},
			{ID: "b", Position: diagram.Position{X: 0, Y: 100}, Height: 44},
			{ID: "c", Position: diagram.Position{X: 300, Y: 100}, Height: 44},
		},
		Edges: []diagram.Edge{
			{ID: "a->c", Source: "a", Target: "c"},
			{ID: "b->c", Source: "b", Target: "c"},
		},
	}

	got := d.WithHints(diagram.DefaultHinter())
	if got.Hints != 1 {
		t.Fatalf("Hints = %d, want 1", got.Hints)
	}
	if x, ok := got.Edges[0].PreferredBendX(); !ok || x != 280 {
		t.Errorf("a->c bend = %v, %v; want 280", x, ok)
	}
	if d.Edges[0].Data != nil {
		t.Error("WithHints modified the receiver's edges")
	}

	d.Direction = DirectionTB
	if got := d.WithHints(diagram.DefaultHinter()); got.Hints != 0 {
		t.Errorf("TB Hints = %d, want 0", got.Hints)
	}
}

func TestDiagramFileRoundTrip(t *testing.T) {
	d := NewDiagram(sampleWorkflow(), EngineLayered, DirectionLR, 800, 200,
		[]diagram.Node{
			{ID: "a", Position: diagram.Position{X: 1, Y: 2}, Width: 10, Height: 20, Data: map[string]any{"state": "running"}},
			{ID: "b", Position: diagram.Position{X: 50, Y: 2}, Width: 10, Height: 20, Measured: &diagram.Size{Width: 12, Height: 22}},
		},
		[]diagram.Edge{{ID: "a->b", Source: "a", Target: "b", Data: map[string]any{diagram.KeyPreferredBendX: 30.0}}},
	)
	if d.Hints != 1 || d.WorkflowID != "wf_nightly" {
		t.Fatalf("NewDiagram() = %+v", d)
	}

	path := filepath.Join(t.TempDir(), "diagram.json")
	if err := WriteDiagramFile(d, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !bytes.Contains(data, []byte(`"preferredBendX": 30`)) {
		t.Errorf("serialized diagram missing hint:\n%s", data)
	}
	if !IsDiagram(data) {
		t.Error("IsDiagram() = false for a diagram")
	}

	back, err := ReadDiagramFile(path)
	if err != nil {
		t.Fatal(err)
	}
	n, ok := back.Node("b")
	if !ok || n.Measured == nil || n.Measured.Height != 22 {
		t.Errorf("node b = %+v", n)
	}
	if x, ok := back.Edges[0].PreferredBendX(); !ok || x != 30 {
		t.Errorf("bend = %v, %v", x, ok)
	}
}

func TestUnmarshalDiagramDanglingEdges(t *testing.T) {
	d, err := UnmarshalDiagram([]byte(`{
		"nodes": [
			{"id":"a","position":{"x":0,"y":0},"height":44},
			{"id":"b","position":{"x":0,"y":100},"height":44},
			{"id":"t","position":{"x":300,"y":100},"height":44}
		],
		"edges": [
			{"id":"e1","source":"a","target":"t"},
			{"id":"e2","source":"ghost","target":"t"},
			{"id":"e3","source":"b","target":"t"},
			{"id":"e4","source":"a","target":"nowhere"}
		]
	}`))
	if err != nil {
		t.Fatalf("UnmarshalDiagram() error = %v", err)
	}
	if len(d.Edges) != 4 {
		t.Fatalf("edges = %d, want 4", len(d.Edges))
	}

	got := d.WithHints(diagram.DefaultHinter())
	if got.Hints != 1 {
		t.Errorf("Hints = %d, want 1", got.Hints)
	}
	if x, ok := got.Edges[0].PreferredBendX(); !ok || x != 280 {
		t.Errorf("e1 bend = %v, %v; want 280", x, ok)
	}
	for _, i := range []int{1, 3} {
		if _, ok := got.Edges[i].PreferredBendX(); ok {
			t.Errorf("%s got a hint", got.Edges[i].ID)
		}
	}

	if _, err := UnmarshalDiagram([]byte(`{"nodes":[{"position":{"x":0,"y":0}}],"edges":[]}`)); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("node without id: error = %v, want INVALID_FORMAT", err)
	}
}

func TestIsDiagram(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{`{"nodes":[],"edges":[]}`, true},
		{`{"id":"wf","tasks":[]}`, false},
		{`not json`, false},
	}
	for _, tt := range tests {
		if got := IsDiagram([]byte(tt.input)); got != tt.want {
			t.Errorf("IsDiagram(%s) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
