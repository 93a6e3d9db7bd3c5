package diagram

import "math"

// Reference policy values for the merge-hint heuristic.
const (
	// DefaultNodeHeight is used for nodes with neither a measured nor a declared height.
	DefaultNodeHeight = 44.0

	// RowTolerance is the maximum difference between two vertical centers
	// for the nodes to count as the same row.
	RowTolerance = 1.0

	// BendPadding is the distance left of the target at which off-row edges bend.
	BendPadding = 20.0
)

// Hinter runs the merge-hint heuristic with configurable constants.
// Unless Exact is set, zero fields fall back to the package defaults, so the
// zero Hinter behaves exactly like [WithMergeHints].
type Hinter struct {
	RowTolerance      float64
	BendPadding       float64
	DefaultNodeHeight float64

	// Exact uses the fields as given, zero included.
	Exact bool
}

// DefaultHinter returns an exact Hinter populated with the reference constants.
func DefaultHinter() Hinter {
	return Hinter{
		RowTolerance:      RowTolerance,
		BendPadding:       BendPadding,
		DefaultNodeHeight: DefaultNodeHeight,
		Exact:             true,
	}
}

// Resolved returns an exact Hinter with unset fields replaced by the package defaults.
func (h Hinter) Resolved() Hinter {
	return Hinter{
		RowTolerance:      h.tolerance(),
		BendPadding:       h.padding(),
		DefaultNodeHeight: h.nodeHeight(),
		Exact:             true,
	}
}

func (h Hinter) value(v, def float64) float64 {
	if h.Exact || v > 0 {
		return v
	}
	return def
}

func (h Hinter) tolerance() float64 { return h.value(h.RowTolerance, RowTolerance) }
func (h Hinter) padding() float64 { return h.value(h.BendPadding, BendPadding) }
func (h Hinter) nodeHeight() float64 { return h.value(h.DefaultNodeHeight, DefaultNodeHeight) }

// SameRow reports whether the vertical centers of a and b are within the row tolerance.
func (h Hinter) SameRow(a, b Node) bool {
	fallback := h.nodeHeight()
	ca := a.Position.Y + a.effectiveHeight(fallback)/2
	cb := b.Position.Y + b.effectiveHeight(fallback)/2
	return math.Abs(ca-cb) <= h.tolerance()
}

// Assign computes the hints for a single target and its incoming edges.
// It returns nil when the group does not qualify.
func (h Hinter) Assign(target string, group []Edge, nodes map[string]Node) map[string]float64 {
	var hints map[string]float64
	h.assign(target, group, nodes, func(id string, x float64) {
		if hints == nil {
			hints = make(map[string]float64)
		}
		hints[id] = x
	})
	return hints
}

func (h Hinter) assign(target string, group []Edge, nodes map[string]Node, emit func(id string, x float64)) {
	if len(group) < 2 {
		return
	}
	t, ok := nodes[target]
	if !ok {
		return
	}

	sameRow := false
	var offRow []string
	for _, e := range group {
		src, ok := nodes[e.Source]
		if !ok {
			continue
		}
		if h.SameRow(src, t) {
			sameRow = true
		} else {
			offRow = append(offRow, e.ID)
		}
	}
	if !sameRow || len(offRow) == 0 {
		return
	}

	bendX := t.Position.X - h.padding()
	for _, id := range offRow {
		emit(id, bendX)
	}
}

// Hints computes the merge hints for every target in the diagram, keyed by edge id.
// The returned map is empty (never nil) when no edge qualifies.
func (h Hinter) Hints(nodes []Node, edges []Edge) map[string]float64 {
	hints := make(map[string]float64)
	index := NodeIndex(nodes)
	groups := GroupIncoming(edges)
	for _, target := range groups.Targets() {
		h.assign(target, groups.Incoming(target), index, func(id string, x float64) {
			hints[id] = x
		})
	}
	return hints
}

// Apply returns edges annotated with the merge hints computed for nodes.
// See [ApplyMergeHints] for the identity guarantees.
func (h Hinter) Apply(nodes []Node, edges []Edge) []Edge {
	return ApplyMergeHints(edges, h.Hints(nodes, edges))
}

// SameRow reports whether a and b sit on the same horizontal row using the
// reference tolerance and fallback height.
func SameRow(a, b Node) bool {
	return Hinter{}.SameRow(a, b)
}

// AssignMergeHints computes the hints for one target group with the reference constants.
func AssignMergeHints(target string, group []Edge, nodes map[string]Node) map[string]float64 {
	return Hinter{}.Assign(target, group, nodes)
}

// MergeHints computes the hints for a whole diagram with the reference constants.
func MergeHints(nodes []Node, edges []Edge) map[string]float64 {
	return Hinter{}.Hints(nodes, edges)
}

// WithMergeHints returns edges annotated with merge hints computed with the
// reference constants. When no edge qualifies the input slice is returned as is.
func WithMergeHints(nodes []Node, edges []Edge) []Edge {
	return Hinter{}.Apply(nodes, edges)
}

// ApplyMergeHints merges the hint for each edge into a copy of its payload.
//
// With an empty hint map the input slice is returned unchanged. Otherwise a
// new slice of the same length and order is returned: hinted edges carry a new
// Data map (existing keys plus [KeyPreferredBendX]); all other edges are
// copied as is and keep sharing their original Data map.
func ApplyMergeHints(edges []Edge, hints map[string]float64) []Edge {
	if len(hints) == 0 {
		return edges
	}
	out := make([]Edge, len(edges))
	for i, e := range edges {
		if x, ok := hints[e.ID]; ok {
			out[i] = e.withData(map[string]any{KeyPreferredBendX: x})
			continue
		}
		out[i] = e
	}
	return out
}

// CountHinted returns the number of edges carrying a bend hint.
func CountHinted(edges []Edge) int {
	n := 0
	for _, e := range edges {
		if _, ok := e.PreferredBendX(); ok {
			n++
		}
	}
	return n
}
