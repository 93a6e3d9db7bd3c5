package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments (or the CLI
// and the server) can share one Redis or Mongo instance without collisions.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// WorkflowKey generates a prefixed workflow key.
func (k *ScopedKeyer) WorkflowKey(source, workflowID string) string {
	return k.prefix + k.inner.WorkflowKey(source, workflowID)
}

// DiagramKey generates a prefixed diagram key.
func (k *ScopedKeyer) DiagramKey(workflowHash string, opts DiagramKeyOpts) string {
	return k.prefix + k.inner.DiagramKey(workflowHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(diagramHash, opts)
}
