package layout

import "github.com/matzehuels/lineage/pkg/dag"

// forest is the depth-first spanning forest of a ranked graph. Each node is
// claimed by the first parent that reaches it, so a strict tree maps onto
// itself and any extra edges of a general DAG are simply not used for
// positioning.
type forest struct {
	roots    []string
	kids     map[string][]string
	preorder []string
	pre      map[string]int
	size     map[string]int
	orders   map[int][]string
}

func buildForest(g *dag.DAG) *forest {
	f := &forest{
		kids:   make(map[string][]string),
		pre:    make(map[string]int, g.NodeCount()),
		size:   make(map[string]int, g.NodeCount()),
		orders: make(map[int][]string),
	}

	type item struct{ id, parent string }
	visited := make(map[string]bool, g.NodeCount())
	for _, src := range g.Sources() {
		if visited[src.ID] {
			continue
		}
		f.roots = append(f.roots, src.ID)
		stack := []item{{id: src.ID}}
		for len(stack) > 0 {
			it := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[it.id] {
				continue
			}
			visited[it.id] = true
			if it.parent != "" {
				f.kids[it.parent] = append(f.kids[it.parent], it.id)
			}
			f.pre[it.id] = len(f.preorder)
			f.preorder = append(f.preorder, it.id)

			children := g.Children(it.id)
			for i := len(children) - 1; i >= 0; i-- {
				if !visited[children[i]] {
					stack = append(stack, item{id: children[i], parent: it.id})
				}
			}
		}
	}

	for i := len(f.preorder) - 1; i >= 0; i-- {
		id := f.preorder[i]
		size := 1
		for _, k := range f.kids[id] {
			size += f.size[k]
		}
		f.size[id] = size
	}
	for _, id := range f.preorder {
		n, _ := g.Node(id)
		f.orders[n.Row] = append(f.orders[n.Row], id)
	}
	return f
}

// descendants returns the strict descendants of id in preorder.
func (f *forest) descendants(id string) []string {
	start := f.pre[id]
	return f.preorder[start+1 : start+f.size[id]]
}

// placeCross assigns the cross-axis centre of every node (before margins).
//
// Nodes are placed in post-order. A leaf takes the next free slot in its
// rank; a parent is centred on its first and last child and, when that
// would overlap the previous node of its rank, its whole subtree is pushed
// forward. Because a subtree is always the most recently placed content of
// every rank it touches, pushing it only needs to advance those ranks' free
// slot by the same amount.
func placeCross(g *dag.DAG, f *forest, a axes, sep float64) map[string]float64 {
	center := make(map[string]float64, g.NodeCount())
	next := make(map[int]float64)

	type frame struct {
		id   string
		next int
	}
	for _, root := range f.roots {
		stack := []frame{{id: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if kids := f.kids[top.id]; top.next < len(kids) {
				child := kids[top.next]
				top.next++
				stack = append(stack, frame{id: child})
				continue
			}
			id := top.id
			stack = stack[:len(stack)-1]

			n, _ := g.Node(id)
			size := a.crossSize(n)
			kids := f.kids[id]

			var c float64
			if len(kids) == 0 {
				c = next[n.Row] + size/2
			} else {
				c = (center[kids[0]] + center[kids[len(kids)-1]]) / 2
				if lo := c - size/2; lo < next[n.Row] {
					delta := next[n.Row] - lo
					shiftSubtree(g, f, id, delta, center, next)
					c += delta
				}
			}
			center[id] = c
			next[n.Row] = c + size/2 + sep
		}
	}
	return center
}

func shiftSubtree(g *dag.DAG, f *forest, id string, delta float64, center map[string]float64, next map[int]float64) {
	touched := make(map[int]bool)
	for _, d := range f.descendants(id) {
		center[d] += delta
		n, _ := g.Node(d)
		touched[n.Row] = true
	}
	for r := range touched {
		next[r] += delta
	}
}
