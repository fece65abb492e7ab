package tree

import (
	"slices"

	"github.com/matzehuels/lineage/pkg/group"
	"github.com/matzehuels/lineage/pkg/rows"
)

// Resolve finds the node the renderer means when it reports a click by label
// and level. The first node in insertion order wins when several share both.
func (b *Builder) Resolve(label string, level int) (*Node, bool) {
	for _, n := range b.nodes {
		if n.Label == label && n.Level == level {
			return n, true
		}
	}
	return nil, false
}

// Click resolves the clicked node by label and level and toggles it. Clicks
// that resolve to nothing are dropped.
func (b *Builder) Click(label string, level int) bool {
	n, ok := b.Resolve(label, level)
	if !ok {
		b.logger.Debug("click: unresolved", "label", label, "level", level)
		return false
	}
	return b.Toggle(n.ID)
}

// Toggle collapses an expanded node or expands a collapsed one. Only group
// nodes above the last hierarchy level can be toggled; the root, attribute
// leaves and last-level groups ignore clicks.
func (b *Builder) Toggle(id string) bool {
	n, ok := b.index[id]
	if !ok {
		b.logger.Debug("toggle: unknown node", "id", id)
		return false
	}
	if n.Kind != KindGroup || n.Level >= len(b.keys)-1 {
		b.logger.Debug("toggle: not toggleable", "id", id, "kind", n.Kind, "level", n.Level)
		return false
	}
	if b.state[id].Expanded {
		return b.Collapse(id, n.Level)
	}
	filtered := group.Filter(b.rows, b.keys, n.Key.Path)
	return b.Expand(id, n.Level+1, filtered)
}

// Nodes returns a snapshot of the nodes in insertion order.
func (b *Builder) Nodes() []Node {
	out := make([]Node, len(b.nodes))
	for i, n := range b.nodes {
		out[i] = n.clone()
	}
	return out
}

// Edges returns a snapshot of the edges in insertion order.
func (b *Builder) Edges() []Edge { return slices.Clone(b.edges) }

// Node returns a snapshot of the node with the given ID.
func (b *Builder) Node(id string) (Node, bool) {
	n, ok := b.index[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Expansion returns the recorded expansion state of id.
func (b *Builder) Expansion(id string) (Expansion, bool) {
	e, ok := b.state[id]
	return e, ok
}

// Extent returns the width and height of the last layout.
func (b *Builder) Extent() (width, height float64) { return b.width, b.height }

// Keys returns the hierarchy the graph was built from.
func (b *Builder) Keys() []string { return slices.Clone(b.keys) }

// Rows returns the rows the graph was built from.
func (b *Builder) Rows() []rows.Row { return slices.Clone(b.rows) }

// RootLabel returns the label used for the root node.
func (b *Builder) RootLabel() string { return b.rootLabel }
