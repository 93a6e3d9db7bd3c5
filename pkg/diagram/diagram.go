package diagram

import (
	"encoding/json"
	"maps"
	"math"
)

// KeyPreferredBendX is the Edge.Data key carrying the bend x-coordinate hint.
// The value is a float64 in the same coordinate space as node positions.
const KeyPreferredBendX = "preferredBendX"

// Position is a point in diagram coordinates. Nodes use it as their top-left anchor.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a rendered width and height.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is a positioned, sized box representing one workflow task.
//
// Width and Height are the declared (nominal) size assigned by the layout
// engine. Measured is the size reported by a renderer after drawing, when
// known; it takes precedence over the declared size.
type Node struct {
	ID       string         `json:"id"`
	Position Position       `json:"position"`
	Width    float64        `json:"width,omitempty"`
	Height   float64        `json:"height,omitempty"`
	Measured *Size          `json:"measured,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// EffectiveHeight returns the measured height if available, else the declared
// height, else [DefaultNodeHeight].
func (n Node) EffectiveHeight() float64 {
	return n.effectiveHeight(DefaultNodeHeight)
}

func (n Node) effectiveHeight(fallback float64) float64 {
	if n.Measured != nil && n.Measured.Height > 0 {
		return n.Measured.Height
	}
	if n.Height > 0 {
		return n.Height
	}
	return fallback
}

// EffectiveWidth returns the measured width if available, else the declared width.
func (n Node) EffectiveWidth() float64 {
	if n.Measured != nil && n.Measured.Width > 0 {
		return n.Measured.Width
	}
	return n.Width
}

// CenterY returns the vertical center of the node.
func (n Node) CenterY() float64 {
	return n.Position.Y + n.EffectiveHeight()/2
}

// Edge is a directed connector from Source to Target.
type Edge struct {
	ID     string         `json:"id"`
	Source string         `json:"source"`
	Target string         `json:"target"`
	Data   map[string]any `json:"data,omitempty"`
}

// PreferredBendX returns the bend hint stored on the edge, if any.
// Integer, float and [json.Number] payload values are accepted; non-finite
// numbers and anything else report false.
func (e Edge) PreferredBendX() (float64, bool) {
	v, ok := e.Data[KeyPreferredBendX]
	if !ok {
		return 0, false
	}
	var x float64
	switch n := v.(type) {
	case float64:
		x = n
	case float32:
		x = float64(n)
	case int:
		x = float64(n)
	case int64:
		x = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		x = f
	default:
		return 0, false
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

// withData returns a copy of e whose payload is the shallow union of the
// existing payload and extra. The original payload map is not modified.
func (e Edge) withData(extra map[string]any) Edge {
	data := make(map[string]any, len(e.Data)+len(extra))
	maps.Copy(data, e.Data)
	maps.Copy(data, extra)
	e.Data = data
	return e
}

// NodeIndex builds an id → node lookup. Later duplicates win.
func NodeIndex(nodes []Node) map[string]Node {
	m := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n
	}
	return m
}
