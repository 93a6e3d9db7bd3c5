package render

import "github.com/matzehuels/wfdiagram/pkg/graph"

// StateStyle is the fill and stroke used for a task state.
type StateStyle struct {
	Fill   string
	Stroke string
	Text   string
}

var defaultStateStyle = StateStyle{Fill: "#ffffff", Stroke: "#9ca3af", Text: "#111827"}

var stateStyles = map[string]StateStyle{
	graph.StatePending:   {Fill: "#f3f4f6", Stroke: "#9ca3af", Text: "#374151"},
	graph.StateScheduled: {Fill: "#f5f3ff", Stroke: "#8b5cf6", Text: "#4c1d95"},
	graph.StateAvailable: {Fill: "#eff6ff", Stroke: "#60a5fa", Text: "#1e3a8a"},
	graph.StateRunning:   {Fill: "#dbeafe", Stroke: "#2563eb", Text: "#1e3a8a"},
	graph.StateRetryable: {Fill: "#fef3c7", Stroke: "#d97706", Text: "#78350f"},
	graph.StateCompleted: {Fill: "#dcfce7", Stroke: "#16a34a", Text: "#14532d"},
	graph.StateFailed:    {Fill: "#fee2e2", Stroke: "#dc2626", Text: "#7f1d1d"},
	graph.StateDiscarded: {Fill: "#fee2e2", Stroke: "#b91c1c", Text: "#7f1d1d"},
	graph.StateCancelled: {Fill: "#e5e7eb", Stroke: "#6b7280", Text: "#374151"},
}

// StyleForState returns the colors for a task state. Unknown or empty states
// use a neutral style.
func StyleForState(state string) StateStyle {
	if s, ok := stateStyles[state]; ok {
		return s
	}
	return defaultStateStyle
}
