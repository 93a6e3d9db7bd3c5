// Package file reads workflows from a directory of JSON files.
package file

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/wfdiagram/pkg/errors"
	"github.com/matzehuels/wfdiagram/pkg/graph"
	"github.com/matzehuels/wfdiagram/pkg/source"
)

// Name is the source kind reported by [Source.Name].
const Name = "file"

// Source serves <dir>/<id>.json files. A file without an "id" field takes
// its ID from the file name.
type Source struct {
	dir string
}

// New returns a source rooted at dir. The directory must exist.
func New(dir string) (*Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "workflow directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s is not a directory", dir)
	}
	return &Source{dir: dir}, nil
}

// Name implements [source.Source].
func (s *Source) Name() string { return Name }

// Workflow implements [source.Source].
func (s *Source) Workflow(ctx context.Context, id string) (graph.Workflow, error) {
	if err := errors.ValidateWorkflowID(id); err != nil {
		return graph.Workflow{}, err
	}
	w, err := graph.ReadWorkflowFile(filepath.Join(s.dir, id+".json"))
	if errors.Is(err, errors.ErrCodeFileNotFound) {
		return graph.Workflow{}, errors.Wrap(errors.ErrCodeWorkflowNotFound, err, "workflow %s", id)
	}
	if err != nil {
		return graph.Workflow{}, err
	}
	if w.ID == "" {
		w.ID = id
	}
	return w, nil
}

// List implements [source.Source]. Files that fail to parse are skipped.
func (s *Source) List(ctx context.Context, limit int) ([]source.Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", s.dir)
	}

	var out []source.Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		w, err := s.Workflow(ctx, id)
		if err != nil {
			continue
		}
		sum := source.Summary{ID: w.ID, Name: w.Name, Tasks: len(w.Tasks)}
		if info, err := e.Info(); err == nil {
			sum.UpdatedAt = info.ModTime().UTC()
		}
		out = append(out, sum)
	}

	slices.SortStableFunc(out, func(a, b source.Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if n := source.Limit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Close implements [source.Source].
func (s *Source) Close() error { return nil }

var _ source.Source = (*Source)(nil)
