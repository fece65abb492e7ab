package graph

import (
	"errors"
	"fmt"

	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/tree"
)

// =============================================================================
// Constants
// =============================================================================

// Node kinds as they appear on the wire.
const (
	KindRoot       = "root"
	KindGroup      = "group"
	KindAttributes = "attributes"
)

// RootKeyName is the hierarchy key reported for the root node.
const RootKeyName = "Root"

var (
	// ErrMultipleRoots is returned when a graph has more than one level -1 node.
	ErrMultipleRoots = errors.New("graph has more than one root")

	// ErrMultipleParents is returned when a node has more than one incoming edge.
	ErrMultipleParents = errors.New("node has more than one parent")
)

// =============================================================================
// Graph - Positioned Lineage Graph
// =============================================================================

// Graph is the canonical serialization format for a positioned lineage tree.
// It is what the renderer consumes, what the HTTP API returns, and what the
// CLI writes to disk.
type Graph struct {
	Title  string   `json:"title,omitempty" bson:"title,omitempty"`
	Levels []string `json:"levels" bson:"levels"` // hierarchy keys, one per level
	Nodes  []Node   `json:"nodes" bson:"nodes"`
	Edges  []Edge   `json:"edges" bson:"edges"`
	Width  float64  `json:"width" bson:"width"`
	Height float64  `json:"height" bson:"height"`
}

// Position is the centre of a node's box.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Node is one positioned vertex. IsExpanded is only present for expandable
// group nodes and ChildCount only where a count is defined.
type Node struct {
	ID         string   `json:"id" bson:"id"`
	Level      int      `json:"level" bson:"level"`
	Label      string   `json:"label" bson:"label"`
	Key        string   `json:"key,omitempty" bson:"key,omitempty"`
	Kind       string   `json:"kind" bson:"kind"`
	IsExpanded *bool    `json:"isExpanded,omitempty" bson:"isExpanded,omitempty"`
	ChildCount *int     `json:"childCount,omitempty" bson:"childCount,omitempty"`
	Attributes []string `json:"attributes,omitempty" bson:"attributes,omitempty"`
	Position   Position `json:"position" bson:"position"`
	Width      float64  `json:"width" bson:"width"`
	Height     float64  `json:"height" bson:"height"`
}

// IsRoot reports whether n is the synthetic root.
func (n *Node) IsRoot() bool { return n.Kind == KindRoot }

// IsAttributes reports whether n is an attribute leaf.
func (n *Node) IsAttributes() bool { return n.Kind == KindAttributes }

// Expanded reports whether n is an expanded group.
func (n *Node) Expanded() bool { return n.IsExpanded != nil && *n.IsExpanded }

// Edge connects a parent to one of its children.
type Edge struct {
	ID     string `json:"id" bson:"id"`
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// =============================================================================
// Tree → Graph Conversion
// =============================================================================

// Snapshot is the read-only view of a tree that [FromTree] converts.
// *tree.Builder satisfies it.
type Snapshot interface {
	Nodes() []tree.Node
	Edges() []tree.Edge
	Keys() []string
	Extent() (width, height float64)
	RootLabel() string
}

// FromTree converts the current state of a tree to its serialization format.
// Nodes and edges keep the tree's insertion order.
func FromTree(s Snapshot) Graph {
	keys := s.Keys()
	nodes := s.Nodes()
	edges := s.Edges()
	w, h := s.Extent()

	out := Graph{
		Title:  s.RootLabel(),
		Levels: keys,
		Nodes:  make([]Node, len(nodes)),
		Edges:  make([]Edge, len(edges)),
		Width:  w,
		Height: h,
	}
	if out.Levels == nil {
		out.Levels = []string{}
	}
	for i, n := range nodes {
		out.Nodes[i] = nodeFromTree(n, keys)
	}
	for i, e := range edges {
		out.Edges[i] = Edge{ID: e.ID, Source: e.Source, Target: e.Target}
	}
	return out
}

func nodeFromTree(n tree.Node, keys []string) Node {
	node := Node{
		ID:         n.ID,
		Level:      n.Level,
		Label:      n.Label,
		Kind:       n.Kind.String(),
		Attributes: n.Attributes,
		Position:   Position{X: n.X, Y: n.Y},
		Width:      n.Width,
		Height:     n.Height,
	}
	switch {
	case n.Kind == tree.KindRoot:
		node.Key = RootKeyName
	case n.Kind == tree.KindAttributes:
		node.Key = keys[len(keys)-1]
	case n.Level < len(keys):
		node.Key = keys[n.Level]
	}
	if n.Kind == tree.KindGroup && n.Level < len(keys)-1 {
		expanded := n.Expanded
		node.IsExpanded = &expanded
	}
	if n.HasCount {
		count := n.ChildCount
		node.ChildCount = &count
	}
	return node
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks the structural invariants of a lineage graph: unique IDs,
// edges between existing nodes one level apart, a single root, and at most
// one parent per node.
func Validate(g Graph) error {
	d := dag.New()
	roots := 0
	for _, n := range g.Nodes {
		if n.Level == -1 {
			roots++
		}
		if err := d.AddNode(dag.Node{ID: n.ID, Row: n.Level + 1}); err != nil {
			return fmt.Errorf("node %q: %w", n.ID, err)
		}
	}
	if roots > 1 {
		return ErrMultipleRoots
	}
	for _, e := range g.Edges {
		if err := d.AddEdge(dag.Edge{From: e.Source, To: e.Target}); err != nil {
			return fmt.Errorf("edge %q: %w", e.ID, err)
		}
		if d.InDegree(e.Target) > 1 {
			return fmt.Errorf("%w: %q", ErrMultipleParents, e.Target)
		}
	}
	return d.Validate()
}
