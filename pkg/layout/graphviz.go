package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/wfdiagram/pkg/dag"
	"github.com/matzehuels/wfdiagram/pkg/diagram"
	"github.com/matzehuels/wfdiagram/pkg/errors"
	"github.com/matzehuels/wfdiagram/pkg/graph"
)

// pointsPerInch converts Graphviz inch attributes to points (diagram units).
const pointsPerInch = 72.0

// Graphviz delegates node placement to the Graphviz dot engine through
// go-graphviz. Nodes are fixed-size boxes, so the positions Graphviz reports
// line up with the declared sizes the edge router works with.
type Graphviz struct{}

// Name implements [Engine].
func (Graphviz) Name() string { return graph.EngineGraphviz }

// Layout implements [Engine].
func (Graphviz) Layout(ctx context.Context, g *dag.DAG, opts Options) (Result, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	work, err := prepare(g, opts)
	if err != nil {
		return Result{}, err
	}

	tasks := work.Nodes()
	if len(tasks) == 0 {
		return Result{}, nil
	}

	src, ids := LayoutDOT(work, opts)
	out, err := runDot(ctx, src)
	if err != nil {
		return Result{}, err
	}

	placed, bb, err := parsePlacement(out)
	if err != nil {
		return Result{}, err
	}

	nodes := make([]diagram.Node, 0, len(tasks))
	for _, n := range tasks {
		p, ok := placed[ids[n.ID]]
		if !ok {
			return Result{}, errors.New(errors.ErrCodeInternal, "graphviz output missing node %q", n.ID)
		}
		w, h := p.width*pointsPerInch, p.height*pointsPerInch
		nodes = append(nodes, diagram.Node{
			ID: n.ID,
			Position: diagram.Position{
				X: p.x - bb.minX - w/2,
				Y: (bb.maxY - p.y) - h/2,
			},
			Width:  w,
			Height: h,
			Data:   graph.NodeData(n),
		})
	}

	return Result{
		Nodes:  nodes,
		Edges:  Edges(work),
		Width:  bb.maxX - bb.minX,
		Height: bb.maxY - bb.minY,
	}, nil
}

// LayoutDOT builds the DOT input for the dot engine. Tasks are renamed to
// n0, n1, ... (in ID order) so arbitrary task names need no quoting; the
// returned map gives each task's DOT name.
func LayoutDOT(g *dag.DAG, opts Options) (string, map[string]string) {
	opts = opts.WithDefaults()
	ids := make(map[string]string, g.NodeCount())

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", opts.Direction)
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(opts.RankSep))
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(opts.NodeSep))
	fmt.Fprintf(&buf, "  node [shape=box, fixedsize=true, label=\"\", width=%s, height=%s];\n",
		inches(opts.NodeWidth), inches(opts.NodeHeight))
	buf.WriteString("\n")

	for i, n := range g.Nodes() {
		ids[n.ID] = fmt.Sprintf("n%d", i)
		fmt.Fprintf(&buf, "  %s;\n", ids[n.ID])
	}
	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %s -> %s;\n", ids[e.From], ids[e.To])
	}
	buf.WriteString("}\n")
	return buf.String(), ids
}

func inches(px float64) string {
	return strconv.FormatFloat(px/pointsPerInch, 'f', 4, 64)
}

func runDot(ctx context.Context, src string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "graphviz layout")
	}
	return buf.Bytes(), nil
}

// =============================================================================
// Laid-out DOT parsing
// =============================================================================

type placement struct {
	x, y          float64 // center, points, y up
	width, height float64 // inches
}

type bounds struct{ minX, minY, maxX, maxY float64 }

var (
	stmtRe = regexp.MustCompile(`(?m)^\s*("(?:[^"\\]|\\.)*"|[A-Za-z0-9_.]+)\s*\[([^\]]*)\]\s*;?`)
	attrRe = regexp.MustCompile(`(\w+)=("(?:[^"\\]|\\.)*"|[^,\s\]]+)`)
)

// parsePlacement extracts node centers and sizes plus the graph bounding box
// from Graphviz "dot" output. Edge statements are ignored.
func parsePlacement(out []byte) (map[string]placement, bounds, error) {
	// Graphviz wraps long attribute values with a backslash-newline.
	text := strings.ReplaceAll(string(out), "\\\n", "")

	nodes := make(map[string]placement)
	var bb bounds
	var haveBB bool

	for _, m := range stmtRe.FindAllStringSubmatch(text, -1) {
		name := strings.Trim(m[1], `"`)
		attrs := parseAttrs(m[2])

		switch name {
		case "graph":
			if v, ok := attrs["bb"]; ok {
				f, err := floats(v, 4)
				if err != nil {
					return nil, bounds{}, errors.Wrap(errors.ErrCodeInternal, err, "parse bb")
				}
				bb, haveBB = bounds{f[0], f[1], f[2], f[3]}, true
			}
		case "node", "edge":
		default:
			pos, ok := attrs["pos"]
			if !ok {
				continue
			}
			f, err := floats(pos, 2)
			if err != nil {
				return nil, bounds{}, errors.Wrap(errors.ErrCodeInternal, err, "parse pos of %s", name)
			}
			w, _ := strconv.ParseFloat(attrs["width"], 64)
			h, _ := strconv.ParseFloat(attrs["height"], 64)
			nodes[name] = placement{x: f[0], y: f[1], width: w, height: h}
		}
	}

	if !haveBB {
		return nil, bounds{}, errors.New(errors.ErrCodeInternal, "graphviz output has no bounding box")
	}
	return nodes, bb, nil
}

func parseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(s, -1) {
		attrs[m[1]] = strings.Trim(m[2], `"`)
	}
	return attrs
}

func floats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) < n {
		return nil, fmt.Errorf("want %d values in %q", n, s)
	}
	out := make([]float64, n)
	for i := range n {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
