package dag

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Errors returned by [DAG.AddNode], [DAG.AddEdge] and [DAG.Validate]. The
// latter two wrap them with the offending IDs.
var (
	ErrInvalidNodeID      = errors.New("empty node id")
	ErrDuplicateNodeID    = errors.New("node id already present")
	ErrUnknownSourceNode  = errors.New("edge source not in graph")
	ErrUnknownTargetNode  = errors.New("edge target not in graph")
	ErrNonConsecutiveRows = errors.New("edge skips or reverses a rank")
	ErrGraphHasCycle      = errors.New("graph contains a cycle")
)

// Node is a vertex with its assigned rank and the footprint it occupies.
//
// Width and Height are measured in the final drawing's units and do not
// depend on the layout direction: a left-to-right layout stacks ranks along
// the x axis using Width, a top-to-bottom layout uses Height.
type Node struct {
	ID     string
	Row    int
	Width  float64
	Height float64
}

// Edge is a directed connection from a parent to a child.
type Edge struct {
	From string
	To   string
}

// DAG is a directed acyclic graph organized into rows (ranks).
//
// Unlike a plain adjacency map, DAG remembers insertion order for nodes,
// edges and each node's children, so every traversal over it is
// deterministic. The zero value is not usable; create instances with [New].
// DAG is not safe for concurrent use.
type DAG struct {
	nodes    map[string]*Node
	order    []*Node
	edges    []Edge
	outgoing map[string][]string
	incoming map[string][]string
	rows     map[int][]*Node
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		rows:     make(map[int][]*Node),
	}
}

// AddNode adds a copy of n, indexed by its Row.
func (d *DAG) AddNode(n Node) error {
	switch {
	case n.ID == "":
		return ErrInvalidNodeID
	case d.nodes[n.ID] != nil:
		return fmt.Errorf("%w: %q", ErrDuplicateNodeID, n.ID)
	}
	node := &n
	d.nodes[node.ID] = node
	d.order = append(d.order, node)
	d.rows[node.Row] = append(d.rows[node.Row], node)
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
//
// AddEdge does not check row consistency; use [DAG.Validate] after rows have
// been assigned.
func (d *DAG) AddEdge(e Edge) error {
	switch {
	case d.nodes[e.From] == nil:
		return fmt.Errorf("%w: %q", ErrUnknownSourceNode, e.From)
	case d.nodes[e.To] == nil:
		return fmt.Errorf("%w: %q", ErrUnknownTargetNode, e.To)
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// SetRows updates row assignments and rebuilds the row index. Nodes not
// present in rows keep their current row. Within a row, nodes stay in
// insertion order.
func (d *DAG) SetRows(rows map[string]int) {
	d.rows = make(map[int][]*Node)
	for _, n := range d.order {
		if r, ok := rows[n.ID]; ok {
			n.Row = r
		}
		d.rows[n.Row] = append(d.rows[n.Row], n)
	}
}

// Nodes returns all nodes in insertion order. The pointers refer to the
// graph's own nodes.
func (d *DAG) Nodes() []*Node { return slices.Clone(d.order) }

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes.
func (d *DAG) NodeCount() int { return len(d.order) }

// Node returns the node with the given ID.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Children returns the IDs of id's children in edge insertion order.
// The returned slice must not be modified.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// InDegree is the number of parents of id.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// NodesInRow returns the nodes assigned to row in insertion order.
func (d *DAG) NodesInRow(row int) []*Node { return d.rows[row] }

// RowIDs returns all row indices in ascending order.
func (d *DAG) RowIDs() []int {
	return slices.Sorted(maps.Keys(d.rows))
}

// Sources returns the parentless nodes in insertion order. A lineage tree
// has exactly one, the root.
func (d *DAG) Sources() []*Node {
	return slices.DeleteFunc(slices.Clone(d.order), func(n *Node) bool {
		return d.InDegree(n.ID) > 0
	})
}

// Validate checks that every edge connects consecutive rows and that the
// graph is acyclic.
func (d *DAG) Validate() error {
	for _, e := range d.edges {
		if from, to := d.nodes[e.From].Row, d.nodes[e.To].Row; to != from+1 {
			return fmt.Errorf("%w: %s (rank %d) -> %s (rank %d)", ErrNonConsecutiveRows, e.From, from, e.To, to)
		}
	}
	return d.detectCycles()
}

// detectCycles runs a white/gray/black depth-first search with an explicit
// stack so that deep hierarchies cannot exhaust the call stack.
func (d *DAG) detectCycles() error {
	const (
		white = iota
		gray
		black
	)
	type frame struct {
		id   string
		next int
	}

	color := make(map[string]int, len(d.order))
	for _, start := range d.order {
		if color[start.ID] != white {
			continue
		}
		stack := []frame{{id: start.ID}}
		color[start.ID] = gray
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := d.outgoing[top.id]
			if top.next == len(children) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			child := children[top.next]
			top.next++
			switch color[child] {
			case gray:
				return ErrGraphHasCycle
			case white:
				color[child] = gray
				stack = append(stack, frame{id: child})
			}
		}
	}
	return nil
}

// PosMap returns the index of every ID in ids.
func PosMap(ids []string) map[string]int {
	pos := make(map[string]int, len(ids))
	for i := range ids {
		pos[ids[i]] = i
	}
	return pos
}

// NodeIDs lists the IDs of nodes in order.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}
