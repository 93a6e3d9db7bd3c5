package dag

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the same
	// ID already exists. Task names are unique within a workflow.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [DAG.Validate] when an edge
	// references a node that doesn't exist.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrSelfLoop is returned by [DAG.AddEdge] when a task depends on itself.
	ErrSelfLoop = errors.New("task cannot depend on itself")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a dependency cycle is detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value pairs attached to nodes, edges or the graph.
// Task state, job kind and display labels live here.
type Metadata map[string]any

// NodeKind distinguishes workflow tasks from nodes synthesized for layout.
type NodeKind int

const (
	// NodeKindTask is a workflow task.
	NodeKindTask NodeKind = iota
	// NodeKindVirtual is a bend point inserted by the layered layout to split an
	// edge spanning several ranks. MasterID names the edge's source task.
	NodeKindVirtual
)

// Node is a task in the workflow graph.
//
// Row is the rank assigned by layering (0 = no dependencies). Order is the
// position within the rank after crossing reduction.
type Node struct {
	ID    string
	Row   int
	Order int
	Meta  Metadata
	Kind  NodeKind
	// MasterID links virtual nodes back to the task whose edge they split.
	MasterID string
}

// IsVirtual reports whether the node was synthesized for layout.
func (n Node) IsVirtual() bool { return n.Kind == NodeKindVirtual }

// Label returns the display label stored in metadata, or the ID.
func (n Node) Label() string {
	if l, ok := n.Meta["label"].(string); ok && l != "" {
		return l
	}
	return n.ID
}

// Edge is a dependency: To cannot start before From completes.
type Edge struct {
	From string
	To   string
	Meta Metadata
}

// DAG is a workflow task graph. Unlike a strict layered graph, edges may
// span any number of rows; layout code subdivides them where needed.
//
// The zero value is not usable - use New. DAG is not safe for concurrent
// use without external synchronization.
type DAG struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]string
	incoming map[string][]string
	meta     Metadata
}

// New creates an empty DAG with optional graph-level metadata.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map. It is never nil.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds a node. Meta is initialized to an empty map if nil.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	d.nodes[n.ID] = &n
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.From == e.To {
		return ErrSelfLoop
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// RemoveEdge removes every edge from→to. Missing edges are ignored.
func (d *DAG) RemoveEdge(from, to string) {
	d.edges = slices.DeleteFunc(d.edges, func(e Edge) bool { return e.From == from && e.To == to })
	d.outgoing[from] = slices.DeleteFunc(d.outgoing[from], func(s string) bool { return s == to })
	d.incoming[to] = slices.DeleteFunc(d.incoming[to], func(s string) bool { return s == from })
}

// SetRows updates row assignments. Nodes missing from rows keep their current row.
func (d *DAG) SetRows(rows map[string]int) {
	for id, row := range rows {
		if n, ok := d.nodes[id]; ok {
			n.Row = row
		}
	}
}

// SetOrder sets the Order of each node to its index in ids.
func (d *DAG) SetOrder(ids []string) {
	for i, id := range ids {
		if n, ok := d.nodes[id]; ok {
			n.Order = i
		}
	}
}

// Clone returns a deep copy of the graph structure. Metadata maps are copied shallowly.
func (d *DAG) Clone() *DAG {
	c := New(maps.Clone(d.meta))
	for id, n := range d.nodes {
		cp := *n
		cp.Meta = maps.Clone(n.Meta)
		c.nodes[id] = &cp
	}
	c.edges = make([]Edge, len(d.edges))
	for i, e := range d.edges {
		e.Meta = maps.Clone(e.Meta)
		c.edges[i] = e
	}
	for id, out := range d.outgoing {
		c.outgoing[id] = slices.Clone(out)
	}
	for id, in := range d.incoming {
		c.incoming[id] = slices.Clone(in)
	}
	return c
}

// Nodes returns all nodes sorted by ID. The pointers refer to the graph's nodes.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, 0, len(d.nodes))
	for _, n := range d.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *Node) int { return strings.Compare(a.ID, b.ID) })
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the IDs of the tasks that depend on id. Read-only view.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the IDs of the tasks id depends on. Read-only view.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// OutDegree returns the number of outgoing edges.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// InDegree returns the number of incoming edges.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Node returns the node with the given ID.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// NodesInRow returns the nodes of a row sorted by Order, then ID.
func (d *DAG) NodesInRow(row int) []*Node {
	var out []*Node
	for _, n := range d.nodes {
		if n.Row == row {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b *Node) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// RowIDs returns all distinct row indices in ascending order.
func (d *DAG) RowIDs() []int {
	seen := make(map[int]struct{})
	for _, n := range d.nodes {
		seen[n.Row] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// RowCount returns the number of distinct rows.
func (d *DAG) RowCount() int { return len(d.RowIDs()) }

// MaxRow returns the highest row index, or 0 for an empty graph.
func (d *DAG) MaxRow() int {
	maxRow := 0
	for _, n := range d.nodes {
		if n.Row > maxRow {
			maxRow = n.Row
		}
	}
	return maxRow
}

// Sources returns tasks without dependencies, sorted by ID.
func (d *DAG) Sources() []*Node {
	var out []*Node
	for _, n := range d.Nodes() {
		if len(d.incoming[n.ID]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Sinks returns tasks nothing depends on, sorted by ID.
func (d *DAG) Sinks() []*Node {
	var out []*Node
	for _, n := range d.Nodes() {
		if len(d.outgoing[n.ID]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks that every edge references existing nodes and that the
// graph has no directed cycle.
func (d *DAG) Validate() error {
	for _, e := range d.edges {
		_, okS := d.nodes[e.From]
		_, okD := d.nodes[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
	}
	return d.detectCycles()
}

func (d *DAG) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, n := range d.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// PosMap maps each ID to its index in ids.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// NodeIDs extracts the ID from each node, preserving order.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
