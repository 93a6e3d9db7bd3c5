package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/wfdiagram/pkg/diagram"
	"github.com/matzehuels/wfdiagram/pkg/graph"
)

const (
	defaultPadding = 24.0
	cornerRadius   = 6.0
	edgeColor      = "#6b7280"
	fontSizeMax    = 14.0
	fontSizeMin    = 8.0
	fontCharWidth  = 0.58
)

// SVGOption configures [SVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	padding   float64
	title     string
	showHints bool
}

// WithPadding sets the margin around the diagram (default 24).
func WithPadding(p float64) SVGOption { return func(r *svgRenderer) { r.padding = p } }

// WithTitle adds an SVG <title>.
func WithTitle(t string) SVGOption { return func(r *svgRenderer) { r.title = t } }

// WithHintMarkers draws a small dot at every hinted bend, for debugging routing.
func WithHintMarkers() SVGOption { return func(r *svgRenderer) { r.showHints = true } }

// SVG renders d as a standalone SVG document. Edges are drawn below nodes so
// connectors never cover task labels.
func SVG(d graph.Diagram, opts ...SVGOption) []byte {
	r := svgRenderer{padding: defaultPadding}
	for _, opt := range opts {
		opt(&r)
	}

	width, height := extent(d)
	w, h := width+2*r.padding, height+2*r.padding
	index := diagram.NodeIndex(d.Nodes)
	vertical := d.IsVertical()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		w, h, w, h)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escapeXML(r.title))
	}
	renderDefs(&buf)
	fmt.Fprintf(&buf, `  <g transform="translate(%.1f,%.1f)">`+"\n", r.padding, r.padding)

	for _, e := range d.Edges {
		pts, ok := EdgeRoute(e, index, vertical)
		if !ok {
			continue
		}
		renderEdge(&buf, e, pts)
		if x, hinted := e.PreferredBendX(); r.showHints && hinted && !vertical {
			fmt.Fprintf(&buf, `    <circle class="hint" cx="%.1f" cy="%.1f" r="3" fill="#f59e0b"/>`+"\n", x, pts[1].Y)
		}
	}
	for _, n := range d.Nodes {
		renderNode(&buf, n)
	}

	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

func extent(d graph.Diagram) (float64, float64) {
	w, h := d.Width, d.Height
	for _, n := range d.Nodes {
		nw, nh := size(n)
		w = max(w, n.Position.X+nw)
		h = max(h, n.Position.Y+nh)
	}
	return w, h
}

func renderDefs(buf *bytes.Buffer) {
	fmt.Fprintf(buf, `  <defs>
    <marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="7" markerHeight="7" orient="auto-start-reverse">
      <path d="M 0 0 L 10 5 L 0 10 z" fill="%s"/>
    </marker>
  </defs>
`, edgeColor)
}

func renderEdge(buf *bytes.Buffer, e diagram.Edge, pts []Point) {
	fmt.Fprintf(buf, `    <path id="edge-%s" class="edge" d="%s" fill="none" stroke="%s" stroke-width="1.5" marker-end="url(#arrow)"/>`+"\n",
		escapeXML(e.ID), PathData(pts), edgeColor)
}

func renderNode(buf *bytes.Buffer, n diagram.Node) {
	w, h := size(n)
	state, _ := n.Data[graph.MetaState].(string)
	label, _ := n.Data[graph.MetaLabel].(string)
	if label == "" {
		label = n.ID
	}
	st := StyleForState(state)

	fmt.Fprintf(buf, `    <g id="node-%s" class="node state-%s">`+"\n", escapeXML(n.ID), escapeXML(stateClass(state)))
	fmt.Fprintf(buf, `      <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.0f" fill="%s" stroke="%s" stroke-width="1.5"/>`+"\n",
		n.Position.X, n.Position.Y, w, h, cornerRadius, st.Fill, st.Stroke)

	fs := fontSize(w, h, len(label))
	fmt.Fprintf(buf, `      <text x="%.1f" y="%.1f" font-family="ui-sans-serif, system-ui, sans-serif" font-size="%.1f" fill="%s" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
		n.Position.X+w/2, n.Position.Y+h/2, fs, st.Text, escapeXML(truncate(label, w, fs)))
	buf.WriteString("    </g>\n")
}

// PathData formats points as an SVG path "d" attribute.
func PathData(pts []Point) string {
	var sb strings.Builder
	for i, p := range pts {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		} else {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s %.1f %.1f", cmd, p.X, p.Y)
	}
	return sb.String()
}

func stateClass(state string) string {
	if state == "" {
		return "unknown"
	}
	return state
}

func fontSize(w, h float64, n int) float64 {
	byHeight := h * 0.4
	byWidth := (w * 0.85) / (float64(max(1, n)) * fontCharWidth)
	return max(fontSizeMin, min(fontSizeMax, min(byHeight, byWidth)))
}

func truncate(label string, w, fs float64) string {
	maxChars := max(3, int(w*0.85/(fs*fontCharWidth)))
	runes := []rune(label)
	if len(runes) <= maxChars {
		return label
	}
	return string(runes[:maxChars-2]) + ".."
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
