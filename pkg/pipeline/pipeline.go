// Package pipeline provides the load → layout → hints → render pipeline for
// workflow diagrams.
//
// The CLI and the HTTP API both go through this package so diagrams come out
// identical regardless of the entry point.
//
// # Stages
//
//  1. Load: read a workflow from a [source.Source] (or accept one directly)
//  2. Layout: position every task with a [layout.Engine]
//  3. Hints: attach merge-hint bend positions to converging edges
//  4. Render: produce SVG, PNG, PDF, DOT or JSON artifacts
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, src, "wf_nightly", pipeline.Options{
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
//
// Each stage can also run on its own through [Runner.LoadWorkflow],
// [Runner.Layout], [Runner.Diagram] and [Runner.Render].
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wfdiagram/pkg/cache"
	"github.com/matzehuels/wfdiagram/pkg/diagram"
	"github.com/matzehuels/wfdiagram/pkg/errors"
	"github.com/matzehuels/wfdiagram/pkg/graph"
	"github.com/matzehuels/wfdiagram/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultEngine is the default layout engine.
const DefaultEngine = graph.EngineLayered

// DefaultDirection is the default layout direction.
const DefaultDirection = graph.DirectionLR

// DefaultScale is the PNG resolution multiplier.
const DefaultScale = 2.0

// ValidFormats lists the supported output formats.
var ValidFormats = []string{graph.FormatJSON, graph.FormatSVG, graph.FormatPNG, graph.FormatPDF, graph.FormatDOT, graph.FormatDOTSVG}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run. It supports JSON
// serialization for API requests.
type Options struct {
	// Layout options
	Engine      string  `json:"engine,omitempty"`
	Direction   string  `json:"direction,omitempty"`
	NodeWidth   float64 `json:"node_width,omitempty"`
	NodeHeight  float64 `json:"node_height,omitempty"`
	RankSep     float64 `json:"rank_sep,omitempty"`
	NodeSep     float64 `json:"node_sep,omitempty"`
	BreakCycles bool    `json:"break_cycles,omitempty"`

	// Hint options. The zero Hinter uses the reference constants; an exact
	// Hinter is kept as given.
	NoHints bool           `json:"no_hints,omitempty"`
	Hinter  diagram.Hinter `json:"-"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Scale   float64  `json:"scale,omitempty"`
	Title   string   `json:"title,omitempty"`
	// HintMarkers draws a marker at each hinted bend in SVG output.
	HintMarkers bool    `json:"hint_markers,omitempty"`
	Padding     float64 `json:"padding,omitempty"`

	// Refresh bypasses cached workflows and diagrams.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Workflow  graph.Workflow
	Diagram   graph.Diagram
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	TaskCount  int
	EdgeCount  int
	Hinted     int
	LoadTime   time.Duration
	LayoutTime time.Duration
	HintTime   time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // Workflow came from cache
	LayoutHit bool // Positioned diagram came from cache
	RenderHit bool // Every requested artifact came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(ValidFormats, format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)",
			format, strings.Join(ValidFormats, ", "))
	}
	return nil
}

// ValidateFormats checks that every format is supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// WithDefaults returns a copy of o with empty fields filled in.
func (o Options) WithDefaults() Options {
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.Direction == "" {
		o.Direction = DefaultDirection
	}
	lo := o.LayoutOptions().WithDefaults()
	o.NodeWidth, o.NodeHeight, o.RankSep, o.NodeSep = lo.NodeWidth, lo.NodeHeight, lo.RankSep, lo.NodeSep

	if !o.Hinter.Exact {
		o.Hinter = o.Hinter.Resolved()
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{graph.FormatSVG}
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Validate checks the engine, direction, sizes and formats.
func (o Options) Validate() error {
	if _, err := layout.NewEngine(o.Engine); err != nil {
		return err
	}
	if err := o.LayoutOptions().Validate(); err != nil {
		return err
	}
	if o.Hinter.RowTolerance < 0 || o.Hinter.BendPadding < 0 || o.Hinter.DefaultNodeHeight < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "hint constants must not be negative")
	}
	return ValidateFormats(o.Formats)
}

// LayoutOptions returns the options passed to the layout engine.
func (o Options) LayoutOptions() layout.Options {
	return layout.Options{
		Direction:   o.Direction,
		NodeWidth:   o.NodeWidth,
		NodeHeight:  o.NodeHeight,
		RankSep:     o.RankSep,
		NodeSep:     o.NodeSep,
		BreakCycles: o.BreakCycles,
	}
}

// HintsEnabled reports whether merge hints are attached. Hints only apply to
// left-to-right diagrams.
func (o Options) HintsEnabled() bool {
	return !o.NoHints && o.Direction != graph.DirectionTB
}

// LayoutKeyOpts returns cache key options for the positioned diagram before hints.
func (o Options) LayoutKeyOpts() cache.DiagramKeyOpts {
	return cache.DiagramKeyOpts{
		Engine:      o.Engine,
		Direction:   o.Direction,
		NodeWidth:   o.NodeWidth,
		NodeHeight:  o.NodeHeight,
		RankSep:     o.RankSep,
		NodeSep:     o.NodeSep,
		BreakCycles: o.BreakCycles,
	}
}

// DiagramKeyOpts returns cache key options for the hinted diagram.
func (o Options) DiagramKeyOpts() cache.DiagramKeyOpts {
	k := o.LayoutKeyOpts()
	if o.HintsEnabled() {
		k.Hints = true
		k.RowTolerance = o.Hinter.RowTolerance
		k.BendPadding = o.Hinter.BendPadding
		k.DefaultNodeHeight = o.Hinter.DefaultNodeHeight
	}
	return k
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Title: o.Title}
	switch format {
	case graph.FormatSVG, graph.FormatPNG, graph.FormatPDF:
		k.HintMarkers = o.HintMarkers
		k.Padding = o.Padding
		if format == graph.FormatPNG {
			k.Scale = o.Scale
		}
	}
	return k
}
