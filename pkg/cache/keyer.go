package cache

import "strings"

// Keyer generates cache keys for each pipeline stage.
type Keyer interface {
	// WorkflowKey identifies a workflow loaded from a source.
	WorkflowKey(source, workflowID string) string
	// DiagramKey identifies a positioned diagram for a workflow content hash.
	DiagramKey(workflowHash string, opts DiagramKeyOpts) string
	// ArtifactKey identifies a rendered artifact for a diagram content hash.
	ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string
}

// DiagramKeyOpts lists every option that changes a computed diagram.
type DiagramKeyOpts struct {
	Engine      string  `json:"engine"`
	Direction   string  `json:"direction"`
	NodeWidth   float64 `json:"node_width"`
	NodeHeight  float64 `json:"node_height"`
	RankSep     float64 `json:"rank_sep"`
	NodeSep     float64 `json:"node_sep"`
	BreakCycles bool    `json:"break_cycles"`

	Hints             bool    `json:"hints"`
	RowTolerance      float64 `json:"row_tolerance"`
	BendPadding       float64 `json:"bend_padding"`
	DefaultNodeHeight float64 `json:"default_node_height"`
}

// ArtifactKeyOpts lists every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Scale  float64 `json:"scale,omitempty"`
	Title  string  `json:"title,omitempty"`

	HintMarkers bool    `json:"hint_markers,omitempty"`
	Padding     float64 `json:"padding,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
//
//	workflow:<source>:<id>
//	diagram:<sha256(workflowHash, opts)>
//	artifact:<sha256(diagramHash, opts)>
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// WorkflowKey implements [Keyer].
func (DefaultKeyer) WorkflowKey(source, workflowID string) string {
	return "workflow:" + strings.ToLower(source) + ":" + workflowID
}

// DiagramKey implements [Keyer].
func (DefaultKeyer) DiagramKey(workflowHash string, opts DiagramKeyOpts) string {
	return hashKey("diagram", workflowHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", diagramHash, opts)
}
