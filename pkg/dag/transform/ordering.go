package transform

import (
	"cmp"
	"maps"
	"slices"

	"github.com/matzehuels/wfdiagram/pkg/dag"
)

// DefaultSweeps is the number of down/up barycenter passes used by [OrderBarycentric].
const DefaultSweeps = 8

// OrderBarycentric reduces edge crossings by repeatedly sorting each rank by
// the average position of its neighbors in the adjacent rank (parents on the
// downward pass, children on the upward pass).
//
// The initial order follows a depth-first walk from the sources so connected
// tasks start close together. Ties keep the previous relative order, and the
// best ordering seen across all sweeps is written back to the graph through
// [dag.Node.Order]. Rows must be assigned and long edges subdivided before
// calling it. It returns the number of crossings of the chosen ordering.
func OrderBarycentric(g *dag.DAG, sweeps int) int {
	if sweeps <= 0 {
		sweeps = DefaultSweeps
	}

	orders := initialOrder(g)
	best := cloneOrders(orders)
	bestCrossings := dag.CountCrossings(g, orders)
	rows := slices.Sorted(maps.Keys(orders))

	for i := 0; i < sweeps && bestCrossings > 0; i++ {
		for j := 1; j < len(rows); j++ {
			orders[rows[j]] = sortByBarycenter(orders[rows[j]], orders[rows[j-1]], g.Parents)
		}
		for j := len(rows) - 2; j >= 0; j-- {
			orders[rows[j]] = sortByBarycenter(orders[rows[j]], orders[rows[j+1]], g.Children)
		}

		if c := dag.CountCrossings(g, orders); c < bestCrossings {
			bestCrossings = c
			best = cloneOrders(orders)
		}
	}

	for _, ids := range best {
		g.SetOrder(ids)
	}
	return bestCrossings
}

func sortByBarycenter(row, adjacent []string, neighbors func(string) []string) []string {
	adjPos := dag.PosMap(adjacent)

	type entry struct {
		id     string
		center float64
		index  int
	}
	entries := make([]entry, len(row))
	for i, id := range row {
		sum, count := 0, 0
		for _, nb := range neighbors(id) {
			if p, ok := adjPos[nb]; ok {
				sum += p
				count++
			}
		}
		center := float64(i)
		if count > 0 {
			center = float64(sum) / float64(count)
		}
		entries[i] = entry{id: id, center: center, index: i}
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(a.center, b.center); c != 0 {
			return c
		}
		return a.index - b.index
	})

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.id
	}
	return out
}

// initialOrder places nodes in the order a depth-first walk from the sources
// first reaches them, ranks taken independently.
func initialOrder(g *dag.DAG) map[int][]string {
	orders := make(map[int][]string)
	visited := make(map[string]bool, g.NodeCount())

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		n, _ := g.Node(id)
		orders[n.Row] = append(orders[n.Row], id)
		for _, child := range g.Children(id) {
			visit(child)
		}
	}

	for _, n := range g.Sources() {
		visit(n.ID)
	}
	for _, n := range g.Nodes() {
		visit(n.ID)
	}
	return orders
}

func cloneOrders(orders map[int][]string) map[int][]string {
	out := make(map[int][]string, len(orders))
	for r, ids := range orders {
		out[r] = slices.Clone(ids)
	}
	return out
}
