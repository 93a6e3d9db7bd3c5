package pipeline

import (
	"bytes"
	"context"
	"testing"

	"github.com/matzehuels/wfdiagram/pkg/cache"
	"github.com/matzehuels/wfdiagram/pkg/diagram"
	"github.com/matzehuels/wfdiagram/pkg/errors"
	"github.com/matzehuels/wfdiagram/pkg/graph"
	"github.com/matzehuels/wfdiagram/pkg/source"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"dot", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Invalid format should fail with INVALID_FORMAT, got %v", err)
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()

	if opts.Engine != DefaultEngine || opts.Direction != DefaultDirection {
		t.Errorf("engine/direction = %s/%s", opts.Engine, opts.Direction)
	}
	if opts.NodeWidth == 0 || opts.NodeHeight == 0 || opts.RankSep == 0 || opts.NodeSep == 0 {
		t.Errorf("layout sizes not defaulted: %+v", opts.LayoutOptions())
	}
	if opts.Hinter != diagram.DefaultHinter() {
		t.Errorf("Hinter = %+v", opts.Hinter)
	}
	exact := diagram.Hinter{RowTolerance: 0, BendPadding: 0, DefaultNodeHeight: 44, Exact: true}
	if got := (Options{Hinter: exact}).WithDefaults().Hinter; got != exact {
		t.Errorf("exact Hinter = %+v, want %+v", got, exact)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != graph.FormatSVG {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if opts.Scale != DefaultScale || opts.Logger == nil {
		t.Errorf("Scale = %v, Logger = %v", opts.Scale, opts.Logger)
	}

	// Idempotent
	if again := opts.WithDefaults(); again.Engine != opts.Engine || again.Hinter != opts.Hinter {
		t.Error("WithDefaults should be idempotent")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"engine", Options{Engine: "elk"}, errors.ErrCodeInvalidEngine},
		{"direction", Options{Direction: "RL"}, errors.ErrCodeInvalidDirection},
		{"format", Options{Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"hinter", Options{Hinter: diagram.Hinter{BendPadding: -5}}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if opts.Hinter == (diagram.Hinter{}) {
				opts = opts.WithDefaults()
			} else {
				// WithDefaults would replace the negative value.
				opts.Engine, opts.Direction, opts.Formats = DefaultEngine, DefaultDirection, []string{"svg"}
			}
			if err := opts.Validate(); !errors.Is(err, tt.code) {
				t.Errorf("Validate() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDiagramKeyOpts(t *testing.T) {
	lr := Options{}.WithDefaults()
	if k := lr.DiagramKeyOpts(); !k.Hints || k.BendPadding != diagram.BendPadding {
		t.Errorf("LR key = %+v, want hints", k)
	}
	if k := lr.LayoutKeyOpts(); k.Hints {
		t.Errorf("layout key should not include hints: %+v", k)
	}

	tb := Options{Direction: graph.DirectionTB}.WithDefaults()
	if tb.HintsEnabled() || tb.DiagramKeyOpts().Hints {
		t.Error("TB diagrams should not be hinted")
	}

	off := Options{NoHints: true}.WithDefaults()
	if off.HintsEnabled() {
		t.Error("NoHints should disable hints")
	}

	padded := Options{Hinter: diagram.Hinter{BendPadding: 40}}.WithDefaults()
	k := cache.NewDefaultKeyer()
	if k.DiagramKey("h", lr.DiagramKeyOpts()) == k.DiagramKey("h", padded.DiagramKeyOpts()) {
		t.Error("bend padding should change the diagram key")
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	o := Options{Scale: 3, Title: "Nightly", HintMarkers: true, Padding: 10}

	if k := o.ArtifactKeyOpts(graph.FormatPNG); k.Scale != 3 || !k.HintMarkers || k.Padding != 10 {
		t.Errorf("png key = %+v", k)
	}
	if k := o.ArtifactKeyOpts(graph.FormatSVG); k.Scale != 0 || !k.HintMarkers {
		t.Errorf("svg key = %+v, want markers and no scale", k)
	}
	if k := o.ArtifactKeyOpts(graph.FormatDOT); k.HintMarkers || k.Padding != 0 || k.Title != "Nightly" {
		t.Errorf("dot key = %+v, want title only", k)
	}
}

func TestRenderHintMarkers(t *testing.T) {
	d, err := Layout(context.Background(), fanIn(), Options{}.WithDefaults())
	if err != nil {
		t.Fatal(err)
	}
	d = ApplyHints(context.Background(), d, Options{}.WithDefaults())

	plain, err := Render(context.Background(), d, Options{Formats: []string{graph.FormatSVG}})
	if err != nil {
		t.Fatal(err)
	}
	marked, err := Render(context.Background(), d, Options{Formats: []string{graph.FormatSVG}, HintMarkers: true})
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(plain[graph.FormatSVG], []byte(`class="hint"`)) {
		t.Error("markers drawn without HintMarkers")
	}
	if got := bytes.Count(marked[graph.FormatSVG], []byte(`class="hint"`)); got != 2 {
		t.Errorf("hint markers = %d, want 2", got)
	}
}

// memSource serves workflows from memory and counts loads.
type memSource struct {
	workflows map[string]graph.Workflow
	loads     int
}

func (s *memSource) Name() string { return "mem" }

func (s *memSource) Workflow(_ context.Context, id string) (graph.Workflow, error) {
	s.loads++
	w, ok := s.workflows[id]
	if !ok {
		return graph.Workflow{}, errors.New(errors.ErrCodeWorkflowNotFound, "workflow %q not found", id)
	}
	return w, nil
}

func (s *memSource) List(context.Context, int) ([]source.Summary, error) { return nil, nil }
func (s *memSource) Close() error                                         { return nil }

// fanIn has three tasks converging on load. The layered engine centers load
// on the middle predecessor, so the two outer edges get hints.
func fanIn() graph.Workflow {
	return graph.Workflow{
		ID:   "wf_fan_in",
		Name: "Fan in",
		Tasks: []graph.Task{
			{Name: "extract", State: graph.StateCompleted},
			{Name: "transform", State: graph.StateCompleted},
			{Name: "validate", State: graph.StateRunning},
			{Name: "load", Deps: []string{"extract", "transform", "validate"}, State: graph.StatePending},
		},
	}
}

func TestRunnerExecuteWorkflow(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.ExecuteWorkflow(context.Background(), fanIn(), Options{
		Formats: []string{graph.FormatJSON, graph.FormatSVG, graph.FormatDOT},
	})
	if err != nil {
		t.Fatalf("ExecuteWorkflow() error: %v", err)
	}

	if res.Stats.TaskCount != 4 || res.Stats.EdgeCount != 3 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Diagram.Hints != 2 || res.Stats.Hinted != 2 {
		t.Errorf("hinted = %d, want 2", res.Diagram.Hints)
	}
	load, _ := res.Diagram.Node("load")
	for _, e := range res.Diagram.Edges {
		if x, ok := e.PreferredBendX(); ok && x != load.Position.X-diagram.BendPadding {
			t.Errorf("%s bends at %v, want %v", e.ID, x, load.Position.X-diagram.BendPadding)
		}
	}

	for _, f := range []string{graph.FormatJSON, graph.FormatSVG, graph.FormatDOT} {
		if len(res.Artifacts[f]) == 0 {
			t.Errorf("missing %s artifact", f)
		}
	}
	d, err := graph.UnmarshalDiagram(res.Artifacts[graph.FormatJSON])
	if err != nil || d.Hints != 2 {
		t.Errorf("json artifact: hints=%d err=%v", d.Hints, err)
	}
	if !bytes.Contains(res.Artifacts[graph.FormatSVG], []byte("<title>Fan in</title>")) {
		t.Error("svg should carry the workflow name as title")
	}
}

func TestRunnerNoHintsAndVertical(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()

	for _, opts := range []Options{{NoHints: true}, {Direction: graph.DirectionTB}} {
		d, err := r.Diagram(ctx, fanIn(), opts)
		if err != nil {
			t.Fatalf("Diagram(%+v) error: %v", opts, err)
		}
		if d.Hints != 0 {
			t.Errorf("Diagram(%+v) hints = %d, want 0", opts, d.Hints)
		}
	}
}

func TestRunnerExecuteCaches(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	src := &memSource{workflows: map[string]graph.Workflow{"wf_fan_in": fanIn()}}
	r := NewRunner(c, nil, nil)
	defer r.Close()

	ctx := context.Background()
	opts := Options{Formats: []string{graph.FormatSVG}}

	first, err := r.Execute(ctx, src, "wf_fan_in", opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if first.CacheInfo != (CacheInfo{}) {
		t.Errorf("first run cache info = %+v, want all misses", first.CacheInfo)
	}

	second, err := r.Execute(ctx, src, "wf_fan_in", opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if want := (CacheInfo{LoadHit: true, LayoutHit: true, RenderHit: true}); second.CacheInfo != want {
		t.Errorf("second run cache info = %+v, want %+v", second.CacheInfo, want)
	}
	if src.loads != 1 {
		t.Errorf("source loads = %d, want 1", src.loads)
	}
	if !bytes.Equal(first.Artifacts["svg"], second.Artifacts["svg"]) {
		t.Error("cached svg differs from rendered svg")
	}

	opts.Refresh = true
	if _, err := r.Execute(ctx, src, "wf_fan_in", opts); err != nil {
		t.Fatal(err)
	}
	if src.loads != 2 {
		t.Errorf("refresh should reload, loads = %d", src.loads)
	}
}

func TestRunnerExecuteNotFound(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), &memSource{}, "missing", Options{})
	if !errors.Is(err, errors.ErrCodeWorkflowNotFound) {
		t.Errorf("Execute() error = %v, want WORKFLOW_NOT_FOUND", err)
	}
}

func TestRunnerCyclicWorkflow(t *testing.T) {
	w := graph.Workflow{ID: "loop", Tasks: []graph.Task{
		{Name: "a", Deps: []string{"b"}},
		{Name: "b", Deps: []string{"a"}},
	}}
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()

	if _, err := r.Diagram(ctx, w, Options{}); !errors.Is(err, errors.ErrCodeInvalidWorkflow) {
		t.Errorf("Diagram() error = %v, want INVALID_WORKFLOW", err)
	}
	d, err := r.Diagram(ctx, w, Options{BreakCycles: true})
	if err != nil {
		t.Fatalf("Diagram(BreakCycles) error: %v", err)
	}
	if len(d.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(d.Nodes))
	}
}
