package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/wfdiagram/pkg/diagram"
	"github.com/matzehuels/wfdiagram/pkg/graph"
	"github.com/matzehuels/wfdiagram/pkg/pipeline"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"SVG, png ,pdf", []string{"svg", "png", "pdf"}},
		{"json,,dot", []string{"json", "dot"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLayoutFlagsApply(t *testing.T) {
	base := pipeline.Options{Engine: graph.EngineLayered, Direction: graph.DirectionLR}

	opts := base
	(&layoutFlags{}).apply(&opts)
	if opts.Engine != graph.EngineLayered || opts.Direction != graph.DirectionLR || opts.NoHints {
		t.Errorf("unset flags changed options: %+v", opts)
	}

	opts = base
	(&layoutFlags{engine: "graphviz", direction: "tb", noHints: true, breakCycles: true}).apply(&opts)
	if opts.Engine != graph.EngineGraphviz {
		t.Errorf("Engine = %q", opts.Engine)
	}
	if opts.Direction != graph.DirectionTB {
		t.Errorf("Direction = %q, want TB", opts.Direction)
	}
	if !opts.NoHints || !opts.BreakCycles {
		t.Errorf("NoHints/BreakCycles not applied: %+v", opts)
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "nightly.json", "nightly"},
		{"", "out/nightly.diagram.json", "out/nightly"},
		{"diagram.svg", "nightly.json", "diagram"},
		{"out/diagram", "nightly.json", "out/diagram"},
		{"diagram.v2", "nightly.json", "diagram.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestDerivePath(t *testing.T) {
	if got := derivePath("nightly.json", ".diagram.json"); got != "nightly.diagram.json" {
		t.Errorf("derivePath() = %q", got)
	}
	if got := derivePath("nightly.diagram.json", ".svg"); got != "nightly.svg" {
		t.Errorf("derivePath() = %q", got)
	}
}

func TestCacheDir(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config.Cache.Dir = "/tmp/wf-cache"
	if dir, err := c.cacheDir(); err != nil || dir != "/tmp/wf-cache" {
		t.Errorf("cacheDir() = %q, %v", dir, err)
	}

	c.Config.Cache.Dir = ""
	dir, err := c.cacheDir()
	if err != nil {
		t.Skipf("no user cache dir: %v", err)
	}
	if filepath.Base(dir) != appName {
		t.Errorf("cacheDir() = %q, want .../%s", dir, appName)
	}
}

// =============================================================================
// Hints
// =============================================================================

func fanInDiagram() graph.Diagram {
	return graph.Diagram{
		WorkflowID: "wf_fan_in",
		Direction:  graph.DirectionLR,
		Nodes: []diagram.Node{
			{ID: "extract", Position: diagram.Position{X: 700, Y: 20}, Height: 44},
			{ID: "transform", Position: diagram.Position{X: 700, Y: 200}, Height: 44},
			{ID: "validate", Position: diagram.Position{X: 700, Y: 360}, Height: 44},
			{ID: "load", Position: diagram.Position{X: 1000, Y: 200}, Height: 44},
			{ID: "report", Position: diagram.Position{X: 1300, Y: 200}, Height: 44},
		},
		Edges: []diagram.Edge{
			{ID: "extract->load", Source: "extract", Target: "load"},
			{ID: "transform->load", Source: "transform", Target: "load"},
			{ID: "validate->load", Source: "validate", Target: "load"},
			{ID: "load->report", Source: "load", Target: "report"},
		},
	}
}

func TestRecomputeHints(t *testing.T) {
	d := fanInDiagram()
	// A stale hint on a same-row edge is dropped.
	d.Edges[1].Data = map[string]any{diagram.KeyPreferredBendX: 123.0, "label": "x"}

	got := recomputeHints(d, diagram.Hinter{})
	if got.Hints != 2 {
		t.Fatalf("Hints = %d, want 2", got.Hints)
	}
	if _, ok := got.Edges[1].PreferredBendX(); ok {
		t.Error("stale hint on same-row edge should be removed")
	}
	if got.Edges[1].Data["label"] != "x" {
		t.Error("other edge data should be kept")
	}
	if _, ok := d.Edges[1].PreferredBendX(); !ok {
		t.Error("input diagram should not be modified")
	}
	if x, ok := got.Edges[0].PreferredBendX(); !ok || x != 980 {
		t.Errorf("extract->load bend = %v, %v; want 980", x, ok)
	}

	d.Direction = graph.DirectionTB
	if got := recomputeHints(d, diagram.Hinter{}); got.Hints != 0 {
		t.Errorf("TB diagram Hints = %d, want 0", got.Hints)
	}
}

func TestHintRows(t *testing.T) {
	h := diagram.Hinter{}
	d := recomputeHints(fanInDiagram(), h)

	rows := hintRows(d, h)
	if len(rows) != 4 {
		t.Fatalf("len(rows) = %d, want 4", len(rows))
	}
	merge := mergeRows(rows)
	if len(merge) != 3 {
		t.Fatalf("len(mergeRows) = %d, want 3", len(merge))
	}

	want := map[string]struct {
		sameRow bool
		bend    string
	}{
		"extract":   {false, "980.0"},
		"transform": {true, "default"},
		"validate":  {false, "980.0"},
	}
	for _, r := range merge {
		w := want[r.Source]
		if r.Target != "load" || r.SameRow != w.sameRow || r.bend() != w.bend {
			t.Errorf("row %+v, want sameRow=%v bend=%s", r, w.sameRow, w.bend)
		}
	}

	out := hintTable(merge).Render()
	for _, s := range []string{"Target", "transform", "same row", "off row", "980.0"} {
		if !strings.Contains(out, s) {
			t.Errorf("hint table missing %q:\n%s", s, out)
		}
	}
}

func TestInspectModel(t *testing.T) {
	h := diagram.Hinter{}
	d := recomputeHints(fanInDiagram(), h)
	rows := hintRows(d, h)

	m := newInspectModel(d, rows, false)
	if len(m.targets) != 1 || m.targets[0].id != "load" || m.targets[0].hinted() != 2 {
		t.Fatalf("targets = %+v", m.targets)
	}

	m = newInspectModel(d, rows, true)
	if len(m.targets) != 2 {
		t.Fatalf("with all: %d targets, want 2", len(m.targets))
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(inspectModel)
	if m.cursor != 1 {
		t.Errorf("cursor = %d after down, want 1", m.cursor)
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if next.(inspectModel).cursor != 1 {
		t.Error("cursor should stop at the last target")
	}
	if !strings.Contains(m.View(), "report") {
		t.Errorf("View() should list the selected target's rows:\n%s", m.View())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q should quit")
	}
}

// =============================================================================
// Commands
// =============================================================================

// runCLI executes the root command with a config pointing the file cache at a
// temporary directory.
func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	out := captureStdout(t)
	quietSpinner(t)

	cfg := filepath.Join(t.TempDir(), "config.toml")
	body := "[cache]\ndir = " + quoteTOML(filepath.Join(t.TempDir(), "cache")) + "\n"
	if err := os.WriteFile(cfg, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func quoteTOML(s string) string {
	return `'` + s + `'`
}

func writeFanIn(t *testing.T, dir string) string {
	t.Helper()
	w := graph.Workflow{
		ID:   "wf_fan_in",
		Name: "Fan in",
		Tasks: []graph.Task{
			{Name: "extract"},
			{Name: "transform"},
			{Name: "validate"},
			{Name: "load", Deps: []string{"extract", "transform", "validate"}},
		},
	}
	path := filepath.Join(dir, "wf_fan_in.json")
	if err := graph.WriteWorkflowFile(w, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLayoutCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFanIn(t, dir)

	out := runCLI(t, "layout", input)
	if !strings.Contains(out, "Layout complete") {
		t.Errorf("output = %q", out)
	}

	d, err := graph.ReadDiagramFile(filepath.Join(dir, "wf_fan_in.diagram.json"))
	if err != nil {
		t.Fatalf("read diagram: %v", err)
	}
	if len(d.Nodes) != 4 || len(d.Edges) != 3 || d.Hints != 2 {
		t.Errorf("diagram: %d nodes, %d edges, %d hints", len(d.Nodes), len(d.Edges), d.Hints)
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFanIn(t, dir)
	base := filepath.Join(dir, "out", "fan")

	runCLI(t, "render", input, "-f", "svg,dot,json", "-o", base)

	svg, err := os.ReadFile(base + ".svg")
	if err != nil || !strings.HasPrefix(string(svg), "<svg") {
		t.Errorf("svg output: %v", err)
	}
	dot, err := os.ReadFile(base + ".dot")
	if err != nil || !strings.Contains(string(dot), "digraph") {
		t.Errorf("dot output: %v", err)
	}
	d, err := graph.ReadDiagramFile(base + ".json")
	if err != nil || d.Hints != 2 {
		t.Errorf("json output: %v (hints %d)", err, d.Hints)
	}
}

func TestRenderCommandInvalidFormat(t *testing.T) {
	input := writeFanIn(t, t.TempDir())
	c := New(io.Discard, LogInfo)
	captureStdout(t)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"render", input, "-f", "gif"})
	if err := root.Execute(); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestHintsCommandWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fan.diagram.json")
	if err := graph.WriteDiagramFile(fanInDiagram(), path); err != nil {
		t.Fatal(err)
	}

	out := runCLI(t, "hints", path, "--write")
	if !strings.Contains(out, "980.0") {
		t.Errorf("output should show the bend: %q", out)
	}

	d, err := graph.ReadDiagramFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if d.Hints != 2 {
		t.Errorf("written Hints = %d, want 2", d.Hints)
	}
}

func TestFetchCommand(t *testing.T) {
	dir := t.TempDir()
	writeFanIn(t, dir)

	out := runCLI(t, "fetch", "wf_fan_in", "--dir", dir)
	w, err := graph.UnmarshalWorkflow([]byte(out))
	if err != nil {
		t.Fatalf("stdout is not a workflow: %v\n%s", err, out)
	}
	if w.ID != "wf_fan_in" || len(w.Tasks) != 4 {
		t.Errorf("workflow = %+v", w)
	}

	list := runCLI(t, "fetch", "--list", "--dir", dir)
	if !strings.Contains(list, "wf_fan_in") {
		t.Errorf("list output = %q", list)
	}
}

func TestCachePathCommand(t *testing.T) {
	out := runCLI(t, "cache", "path")
	if !strings.HasSuffix(strings.TrimSpace(out), "cache") {
		t.Errorf("cache path = %q", out)
	}
}
