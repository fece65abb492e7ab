package transform

import (
	"fmt"

	"github.com/matzehuels/lineage/pkg/dag"
)

// AssignLayers sets every node's row to its longest distance from a source
// and returns the number of rows used. In a tree that distance is the depth.
//
// Nodes are released in insertion order once all their parents are placed,
// so the result is deterministic. Previous rows are overwritten. If some
// nodes are never released because they sit on a cycle, the error wraps
// [dag.ErrGraphHasCycle] and their rows are meaningless.
func AssignLayers(g *dag.DAG) (int, error) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return 0, nil
	}

	waiting := make(map[string]int, len(nodes)) // unplaced parents
	rows := make(map[string]int, len(nodes))
	ready := make([]string, 0, len(nodes))
	for _, n := range nodes {
		rows[n.ID] = 0
		if waiting[n.ID] = g.InDegree(n.ID); waiting[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}

	depth := 0
	for i := 0; i < len(ready); i++ {
		id := ready[i]
		depth = max(depth, rows[id])
		for _, child := range g.Children(id) {
			rows[child] = max(rows[child], rows[id]+1)
			if waiting[child]--; waiting[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	g.SetRows(rows)
	if stuck := len(nodes) - len(ready); stuck > 0 {
		return depth + 1, fmt.Errorf("%w: %d nodes unreachable in topological order", dag.ErrGraphHasCycle, stuck)
	}
	return depth + 1, nil
}
