// Package source defines where workflows come from.
//
// A [Source] loads a workflow by ID and lists the workflows it knows about.
// Implementations live in subpackages:
//
//   - source/file: a directory of <id>.json workflow files
//   - source/postgres: a River-style job table, where each job is a task and
//     the job metadata names its workflow and dependencies
//
// Missing workflows are reported with errors.ErrCodeWorkflowNotFound.
package source

import (
	"context"
	"time"

	"github.com/matzehuels/wfdiagram/pkg/graph"
)

// Source loads workflows.
type Source interface {
	// Name identifies the source kind ("file", "postgres") in cache keys and logs.
	Name() string
	// Workflow loads the workflow with the given ID.
	Workflow(ctx context.Context, id string) (graph.Workflow, error)
	// List returns up to limit workflow summaries, most recent first.
	// A limit <= 0 selects DefaultListLimit.
	List(ctx context.Context, limit int) ([]Summary, error)
	// Close releases resources held by the source.
	Close() error
}

// Summary describes a workflow without its tasks.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Tasks     int       `json:"tasks"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// MaxListLimit is the largest accepted limit.
const MaxListLimit = 1000

// Limit normalizes a requested list limit.
func Limit(n int) int {
	switch {
	case n <= 0:
		return DefaultListLimit
	case n > MaxListLimit:
		return MaxListLimit
	default:
		return n
	}
}
