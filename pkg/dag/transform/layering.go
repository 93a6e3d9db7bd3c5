package transform

import "github.com/matzehuels/wfdiagram/pkg/dag"

// AssignLayers assigns every task to a rank based on its longest dependency
// chain: tasks without dependencies sit at rank 0 and every task sits one rank
// after its deepest dependency.
//
// The traversal is Kahn's topological sort. Existing row assignments are
// overwritten. If the graph has cycles, tasks on the cycle never reach zero
// in-degree and stay at rank 0; run [BreakCycles] first.
//
// Time complexity is O(V + E).
func AssignLayers(g *dag.DAG) {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	rows := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		rows[n.ID] = 0
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.Children(curr) {
			if row := rows[curr] + 1; row > rows[child] {
				rows[child] = row
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	g.SetRows(rows)
}
