package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/wfdiagram/pkg/errors"
	"github.com/matzehuels/wfdiagram/pkg/graph"
)

func writeWorkflow(t *testing.T, dir, name string, w graph.Workflow) {
	t.Helper()
	if err := graph.WriteWorkflowFile(w, filepath.Join(dir, name)); err != nil {
		t.Fatal(err)
	}
}

func TestSource(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeWorkflow(t, dir, "etl.json", graph.Workflow{Name: "ETL", Tasks: []graph.Task{{Name: "a"}, {Name: "b", Deps: []string{"a"}}}})
	writeWorkflow(t, dir, "report.json", graph.Workflow{ID: "report", Tasks: []graph.Task{{Name: "x"}}})
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "report.json"), old, old); err != nil {
		t.Fatal(err)
	}

	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	w, err := s.Workflow(ctx, "etl")
	if err != nil {
		t.Fatalf("Workflow(etl) error: %v", err)
	}
	if w.ID != "etl" || len(w.Tasks) != 2 {
		t.Errorf("etl = %+v", w)
	}

	if _, err := s.Workflow(ctx, "missing"); !errors.Is(err, errors.ErrCodeWorkflowNotFound) {
		t.Errorf("missing error = %v, want WORKFLOW_NOT_FOUND", err)
	}
	if _, err := s.Workflow(ctx, "../etc/passwd"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("traversal error = %v, want INVALID_INPUT", err)
	}

	list, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("List() = %+v, want 2 entries (broken file skipped)", list)
	}
	if list[0].ID != "etl" || list[0].Tasks != 2 || list[0].Name != "ETL" {
		t.Errorf("first summary = %+v, want most recent (etl)", list[0])
	}

	limited, _ := s.List(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("List(1) returned %d", len(limited))
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nope")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing dir error = %v", err)
	}
	f := filepath.Join(t.TempDir(), "f.json")
	_ = os.WriteFile(f, []byte("{}"), 0644)
	if _, err := New(f); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("file as dir error = %v", err)
	}
}
