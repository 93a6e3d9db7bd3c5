package transform

import (
	"fmt"

	"github.com/matzehuels/wfdiagram/pkg/dag"
)

// MetaEdgeTarget is the metadata key on virtual nodes naming the task at the
// end of the edge they split.
const MetaEdgeTarget = "edge_target"

// Subdivide replaces every edge spanning more than one rank with a chain of
// [dag.NodeKindVirtual] nodes, one per intermediate rank, so that crossing
// reduction only has to consider edges between adjacent ranks.
//
//	Before: extract (rank 0) → publish (rank 3)
//	After:  extract → extract_v_1 → extract_v_2 → publish
//
// Virtual nodes carry MasterID = source task and [MetaEdgeTarget] = target
// task. Edge metadata is kept on the final edge of the chain. Rows must be
// assigned (see [AssignLayers]) before calling Subdivide. It returns the number
// of virtual nodes inserted.
func Subdivide(g *dag.DAG) int {
	gen := newIDGen(g.Nodes())
	added := 0

	var toRemove []dag.Edge
	for _, e := range g.Edges() {
		src, srcOK := g.Node(e.From)
		dst, dstOK := g.Node(e.To)
		if !srcOK || !dstOK || dst.Row <= src.Row+1 {
			continue
		}

		toRemove = append(toRemove, e)
		prevID := src.ID
		for row := src.Row + 1; row < dst.Row; row++ {
			prevID = addVirtual(g, gen, prevID, src.ID, dst.ID, row)
			added++
		}
		if err := g.AddEdge(dag.Edge{From: prevID, To: dst.ID, Meta: e.Meta}); err != nil {
			panic(err)
		}
	}

	for _, e := range toRemove {
		g.RemoveEdge(e.From, e.To)
	}
	return added
}

func addVirtual(g *dag.DAG, gen *idGen, from, master, target string, row int) string {
	id := gen.next(master, row)
	if err := g.AddNode(dag.Node{
		ID:       id,
		Row:      row,
		Kind:     dag.NodeKindVirtual,
		MasterID: master,
		Meta:     dag.Metadata{MetaEdgeTarget: target},
	}); err != nil {
		panic(err)
	}
	if err := g.AddEdge(dag.Edge{From: from, To: id}); err != nil {
		panic(err)
	}
	return id
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(nodes []*dag.Node) *idGen {
	m := make(map[string]struct{}, len(nodes)*2)
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(base string, row int) string {
	prefix := fmt.Sprintf("%s_v_%d", base, row)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
