package diagram

// IncomingGroups maps each target node id to the edges pointing at it.
// Targets are kept in first-seen order and each group keeps input order.
type IncomingGroups struct {
	order  []string
	groups map[string][]Edge
}

// GroupIncoming groups edges by their Target. Every edge appears in exactly one group.
func GroupIncoming(edges []Edge) *IncomingGroups {
	g := &IncomingGroups{groups: make(map[string][]Edge)}
	for _, e := range edges {
		if _, seen := g.groups[e.Target]; !seen {
			g.order = append(g.order, e.Target)
		}
		g.groups[e.Target] = append(g.groups[e.Target], e)
	}
	return g
}

// Targets returns the target ids in the order they were first seen.
func (g *IncomingGroups) Targets() []string { return g.order }

// Incoming returns the edges pointing at target, or nil.
func (g *IncomingGroups) Incoming(target string) []Edge { return g.groups[target] }

// Len returns the number of distinct targets.
func (g *IncomingGroups) Len() int { return len(g.order) }
