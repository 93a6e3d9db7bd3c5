package postgres

import (
	"strings"
	"testing"

	"github.com/matzehuels/wfdiagram/pkg/errors"
)

func TestQualified(t *testing.T) {
	if got := Qualified("public", "river_job"); got != `"public"."river_job"` {
		t.Errorf("Qualified() = %s", got)
	}
}

func TestWorkflowQuery(t *testing.T) {
	q := WorkflowQuery("jobs", "river_job")
	for _, want := range []string{
		`FROM "jobs"."river_job"`,
		`metadata->>'workflow_id' = $1`,
		"state::text",
		"ORDER BY id",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("WorkflowQuery missing %q:\n%s", want, q)
		}
	}
}

func TestListQuery(t *testing.T) {
	q := ListQuery("public", "river_job")
	for _, want := range []string{
		`FROM "public"."river_job"`,
		"metadata ? 'workflow_id'",
		"max(metadata->>'workflow_name')",
		"GROUP BY 1",
		"LIMIT $1",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("ListQuery missing %q:\n%s", want, q)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{URL: "postgres://localhost/river"}, false},
		{"custom table", Config{URL: "postgresql://db/river", Schema: "queue", Table: "jobs"}, false},
		{"no url", Config{}, true},
		{"mysql", Config{URL: "mysql://db"}, true},
		{"injected table", Config{URL: "postgres://db", Table: "jobs; DROP TABLE x"}, true},
		{"bad schema", Config{URL: "postgres://db", Schema: "a.b"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsBadIdentifiers(t *testing.T) {
	if _, err := New(nil, "public", `river"job`); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New() error = %v, want INVALID_INPUT", err)
	}
}

func TestBuildWorkflow(t *testing.T) {
	jobs := []Job{
		{ID: 1, Kind: "extract_job", State: "completed", Metadata: []byte(`{"workflow_id":"wf1","workflow_name":"nightly","task":"extract"}`)},
		{ID: 2, Kind: "transform_job", State: "running", Metadata: []byte(`{"workflow_id":"wf1","task":"transform","deps":["extract"]}`)},
		{ID: 3, Kind: "load_job", State: "pending", Metadata: []byte(`{"workflow_id":"wf1","task":"load","deps":["transform","archived"]}`)},
		{ID: 4, Kind: "notify_job", State: "available", Metadata: []byte(`{"workflow_id":"wf1"}`)},
	}

	w, err := BuildWorkflow("wf1", jobs)
	if err != nil {
		t.Fatalf("BuildWorkflow() error: %v", err)
	}
	if w.ID != "wf1" || w.Name != "nightly" {
		t.Errorf("id/name = %q/%q", w.ID, w.Name)
	}
	if len(w.Tasks) != 4 {
		t.Fatalf("tasks = %d", len(w.Tasks))
	}

	transform := w.Tasks[1]
	if transform.State != "running" || transform.Kind != "transform_job" || transform.Meta["job_id"] != int64(2) {
		t.Errorf("transform = %+v", transform)
	}

	load := w.Tasks[2]
	if len(load.Deps) != 1 || load.Deps[0] != "transform" {
		t.Errorf("load deps = %v", load.Deps)
	}
	if missing, _ := load.Meta["missing_deps"].([]string); len(missing) != 1 || missing[0] != "archived" {
		t.Errorf("missing_deps = %v", load.Meta["missing_deps"])
	}

	if w.Tasks[3].Name != "job_4" {
		t.Errorf("unnamed task = %q, want job_4", w.Tasks[3].Name)
	}
}

func TestBuildWorkflowErrors(t *testing.T) {
	tests := []struct {
		name string
		jobs []Job
	}{
		{"bad metadata", []Job{{ID: 1, Metadata: []byte(`{`)}}},
		{"duplicate task", []Job{
			{ID: 1, Metadata: []byte(`{"task":"a"}`)},
			{ID: 2, Metadata: []byte(`{"task":"a"}`)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildWorkflow("wf", tt.jobs)
			if !errors.Is(err, errors.ErrCodeInvalidWorkflow) {
				t.Errorf("error = %v, want INVALID_WORKFLOW", err)
			}
		})
	}
}
