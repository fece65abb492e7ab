package dag

import (
	"maps"
	"slices"
)

// CountCrossings sums [CountLayerCrossings] over every pair of consecutive
// rows in orders. A row absent from orders counts as empty.
func CountCrossings(g *DAG, orders map[int][]string) int {
	total := 0
	for _, r := range slices.Sorted(maps.Keys(orders)) {
		total += CountLayerCrossings(g, orders[r], orders[r+1])
	}
	return total
}

// CountLayerCrossings counts pairs of edges between upper and lower that
// cross when both rows are drawn in the given order.
//
// Listing each edge's lower position while walking upper left to right (and
// each node's children left to right) reduces the problem to counting
// inversions in that list.
func CountLayerCrossings(g *DAG, upper, lower []string) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}
	lowerPos := PosMap(lower)

	targets := make([]int, 0, len(lower))
	for _, id := range upper {
		start := len(targets)
		for _, child := range g.Children(id) {
			if p, ok := lowerPos[child]; ok {
				targets = append(targets, p)
			}
		}
		slices.Sort(targets[start:])
	}
	return inversions(targets, len(lower))
}

// inversions counts pairs i < j with xs[i] > xs[j] for values in [0, n).
func inversions(xs []int, n int) int {
	seen := make(bitCounter, n+1)
	count := 0
	for i, x := range xs {
		count += i - seen.atMost(x)
		seen.add(x)
	}
	return count
}

// bitCounter is a Fenwick tree over positions 0..len-2.
type bitCounter []int

func (b bitCounter) add(pos int) {
	for i := pos + 1; i < len(b); i += i & -i {
		b[i]++
	}
}

// atMost returns how many added positions are <= pos.
func (b bitCounter) atMost(pos int) int {
	n := 0
	for i := pos + 1; i > 0; i -= i & -i {
		n += b[i]
	}
	return n
}
