package render

import "github.com/matzehuels/wfdiagram/pkg/diagram"

// Point is a vertex of a connector path.
type Point struct{ X, Y float64 }

// Route returns the orthogonal connector from src to dst.
//
// Horizontal (LR) connectors run from the middle of the source's right side
// to the middle of the target's left side, turning at x = bendX when hasBend
// is true and halfway between the two sides otherwise. Vertical (TB)
// connectors run bottom-middle to top-middle and turn halfway; the hint is
// ignored. Endpoints at the same height (or x, for TB) give a straight line.
func Route(src, dst diagram.Node, bendX float64, hasBend, vertical bool) []Point {
	sw, sh := size(src)
	dw, dh := size(dst)

	if vertical {
		start := Point{src.Position.X + sw/2, src.Position.Y + sh}
		end := Point{dst.Position.X + dw/2, dst.Position.Y}
		if start.X == end.X {
			return []Point{start, end}
		}
		mid := (start.Y + end.Y) / 2
		return []Point{start, {start.X, mid}, {end.X, mid}, end}
	}

	start := Point{src.Position.X + sw, src.Position.Y + sh/2}
	end := Point{dst.Position.X, dst.Position.Y + dh/2}
	if start.Y == end.Y {
		return []Point{start, end}
	}
	x := (start.X + end.X) / 2
	if hasBend {
		x = bendX
	}
	return []Point{start, {x, start.Y}, {x, end.Y}, end}
}

// EdgeRoute routes e between the nodes in index. It reports false when an
// endpoint is missing.
func EdgeRoute(e diagram.Edge, index map[string]diagram.Node, vertical bool) ([]Point, bool) {
	src, ok := index[e.Source]
	if !ok {
		return nil, false
	}
	dst, ok := index[e.Target]
	if !ok {
		return nil, false
	}
	x, hasBend := e.PreferredBendX()
	return Route(src, dst, x, hasBend, vertical), true
}

func size(n diagram.Node) (float64, float64) {
	return n.EffectiveWidth(), n.EffectiveHeight()
}
