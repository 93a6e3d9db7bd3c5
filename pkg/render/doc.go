// Package render draws diagrams.
//
// # SVG
//
// [SVG] draws a [graph.Diagram] the way the browser diagram component does:
// tasks as rounded boxes colored by state, dependencies as orthogonal
// stepped connectors. In left-to-right diagrams a connector leaves its source
// on the right, turns at a vertical segment and enters its target on the left.
// The vertical segment sits at the edge's preferredBendX hint when present,
// so connectors converging on one task share a single bend column:
//
//	svg := render.SVG(d)
//
// [Route] exposes the connector geometry on its own.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg):
//
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// # Graphviz Export
//
// [ToDOT] writes a diagram as Graphviz DOT for use with other tooling, and
// [RenderDOTSVG] renders DOT through the embedded Graphviz library.
package render
