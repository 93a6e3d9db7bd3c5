// Package postgres reads workflows from a River-style job table.
//
// Each job is one workflow task. The job's metadata JSONB names the workflow
// and the task's dependencies:
//
//	{"workflow_id": "wf_01J...", "workflow_name": "nightly", "task": "load", "deps": ["extract"]}
//
// The job's state and kind become the task's state and kind. The source only
// reads; it never changes job rows.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matzehuels/wfdiagram/pkg/errors"
	"github.com/matzehuels/wfdiagram/pkg/graph"
	"github.com/matzehuels/wfdiagram/pkg/source"
)

// Name is the source kind reported by [Source.Name].
const Name = "postgres"

// Defaults for [Config].
const (
	DefaultSchema = "public"
	DefaultTable  = "river_job"
)

// Metadata keys read from each job.
const (
	metaWorkflowID   = "workflow_id"
	metaWorkflowName = "workflow_name"
	metaTask         = "task"
	metaDeps         = "deps"
)

// Config configures the job table connection.
type Config struct {
	URL    string // postgres:// connection string
	Schema string // default public
	Table  string // default river_job
}

func (c Config) withDefaults() Config {
	if c.Schema == "" {
		c.Schema = DefaultSchema
	}
	if c.Table == "" {
		c.Table = DefaultTable
	}
	return c
}

// Validate checks the URL scheme and the identifiers interpolated into SQL.
func (c Config) Validate() error {
	c = c.withDefaults()
	if err := errors.ValidateDatabaseURL(c.URL); err != nil {
		return err
	}
	if err := errors.ValidateSQLIdentifier(c.Schema); err != nil {
		return err
	}
	return errors.ValidateSQLIdentifier(c.Table)
}

// Source implements [source.Source] over a pgx connection pool.
type Source struct {
	db      *pgxpool.Pool
	ownPool bool
	qWork   string
	qList   string
}

// Open connects to the database described by cfg and pings it.
func Open(ctx context.Context, cfg Config) (*Source, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "ping")
	}
	s, err := New(pool, cfg.Schema, cfg.Table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	s.ownPool = true
	return s, nil
}

// New creates a Source backed by an existing pool. Close does not close a
// pool passed in here.
func New(db *pgxpool.Pool, schema, table string) (*Source, error) {
	cfg := Config{Schema: schema, Table: table}.withDefaults()
	if err := errors.ValidateSQLIdentifier(cfg.Schema); err != nil {
		return nil, err
	}
	if err := errors.ValidateSQLIdentifier(cfg.Table); err != nil {
		return nil, err
	}
	return &Source{
		db:    db,
		qWork: WorkflowQuery(cfg.Schema, cfg.Table),
		qList: ListQuery(cfg.Schema, cfg.Table),
	}, nil
}

// Name implements [source.Source].
func (s *Source) Name() string { return Name }

// Workflow implements [source.Source].
func (s *Source) Workflow(ctx context.Context, id string) (graph.Workflow, error) {
	if err := errors.ValidateWorkflowID(id); err != nil {
		return graph.Workflow{}, err
	}

	rows, err := s.db.Query(ctx, s.qWork, id)
	if err != nil {
		return graph.Workflow{}, errors.Wrap(errors.ErrCodeDatabase, err, "query workflow %s", id)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.Kind, &j.State, &j.Metadata); err != nil {
			return graph.Workflow{}, errors.Wrap(errors.ErrCodeDatabase, err, "scan job")
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return graph.Workflow{}, errors.Wrap(errors.ErrCodeDatabase, err, "read jobs")
	}

	if len(jobs) == 0 {
		return graph.Workflow{}, errors.New(errors.ErrCodeWorkflowNotFound, "workflow %s not found", id)
	}
	return BuildWorkflow(id, jobs)
}

// List implements [source.Source].
func (s *Source) List(ctx context.Context, limit int) ([]source.Summary, error) {
	rows, err := s.db.Query(ctx, s.qList, source.Limit(limit))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "list workflows")
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (source.Summary, error) {
		var sum source.Summary
		var updated *time.Time
		if err := row.Scan(&sum.ID, &sum.Name, &sum.Tasks, &updated); err != nil {
			return source.Summary{}, err
		}
		if updated != nil {
			sum.UpdatedAt = updated.UTC()
		}
		return sum, nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "scan workflows")
	}
	return out, nil
}

// Close implements [source.Source].
func (s *Source) Close() error {
	if s.ownPool {
		s.db.Close()
	}
	return nil
}

var _ source.Source = (*Source)(nil)

// =============================================================================
// Query text
// =============================================================================

// Qualified returns the quoted schema.table reference. Both parts must pass
// errors.ValidateSQLIdentifier.
func Qualified(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}

// WorkflowQuery selects the jobs of one workflow ($1 = workflow ID).
func WorkflowQuery(schema, table string) string {
	return fmt.Sprintf(`SELECT id, kind, state::text, metadata
FROM %s
WHERE metadata->>'%s' = $1
ORDER BY id`, Qualified(schema, table), metaWorkflowID)
}

// ListQuery summarizes workflows by most recent job ($1 = limit).
func ListQuery(schema, table string) string {
	return fmt.Sprintf(`SELECT metadata->>'%[2]s' AS workflow_id,
       COALESCE(max(metadata->>'%[3]s'), '') AS name,
       count(*)::int AS tasks,
       max(created_at) AS updated_at
FROM %[1]s
WHERE metadata ? '%[2]s'
GROUP BY 1
ORDER BY updated_at DESC, workflow_id
LIMIT $1`, Qualified(schema, table), metaWorkflowID, metaWorkflowName)
}

// =============================================================================
// Job rows → Workflow
// =============================================================================

// Job is one row of the job table.
type Job struct {
	ID       int64
	Kind     string
	State    string
	Metadata []byte
}

type jobMeta struct {
	WorkflowID   string   `json:"workflow_id"`
	WorkflowName string   `json:"workflow_name"`
	Task         string   `json:"task"`
	Deps         []string `json:"deps"`
}

// BuildWorkflow assembles a workflow from its jobs. Jobs without a task name
// are named job_<id>. Dependencies on tasks that have no job (for example
// because the job was pruned) are dropped and recorded in the task's
// "missing_deps" metadata.
func BuildWorkflow(id string, jobs []Job) (graph.Workflow, error) {
	w := graph.Workflow{ID: id}
	names := make(map[string]bool, len(jobs))
	metas := make([]jobMeta, len(jobs))

	for i, j := range jobs {
		var m jobMeta
		if len(j.Metadata) > 0 {
			if err := json.Unmarshal(j.Metadata, &m); err != nil {
				return graph.Workflow{}, errors.Wrap(errors.ErrCodeInvalidWorkflow, err, "job %d metadata", j.ID)
			}
		}
		if m.Task == "" {
			m.Task = fmt.Sprintf("job_%d", j.ID)
		}
		if w.Name == "" {
			w.Name = m.WorkflowName
		}
		metas[i] = m
		names[m.Task] = true
	}

	for i, j := range jobs {
		m := metas[i]
		t := graph.Task{
			Name:  m.Task,
			State: j.State,
			Kind:  j.Kind,
			Meta:  map[string]any{"job_id": j.ID},
		}
		var missing []string
		for _, dep := range m.Deps {
			if names[dep] {
				t.Deps = append(t.Deps, dep)
			} else {
				missing = append(missing, dep)
			}
		}
		if len(missing) > 0 {
			t.Meta["missing_deps"] = slices.Clone(missing)
		}
		w.Tasks = append(w.Tasks, t)
	}

	if err := w.Validate(); err != nil {
		return graph.Workflow{}, err
	}
	return w, nil
}
