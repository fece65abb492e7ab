package tree

import "slices"

// AttributesLabel is the display label of attribute-leaf nodes.
const AttributesLabel = "Attributes"

// DefaultRootLabel is used when no root label was configured.
const DefaultRootLabel = "Lineage Root"

// Kind distinguishes the three sorts of nodes in a lineage tree.
type Kind int

const (
	// KindRoot is the single synthetic root at level -1.
	KindRoot Kind = iota
	// KindGroup is one distinct value of a hierarchy key.
	KindGroup
	// KindAttributes lists the distinct values of the last hierarchy key.
	KindAttributes
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindGroup:
		return "group"
	case KindAttributes:
		return "attributes"
	default:
		return "unknown"
	}
}

// Node is one vertex of the lineage tree together with its last computed
// position. X and Y are the centre of the node's box.
type Node struct {
	ID    string
	Key   Key
	Level int
	Label string
	Kind  Kind

	Expanded   bool
	ChildCount int
	HasCount   bool // false for the root, attribute leaves and last-level groups

	Attributes []string // only for KindAttributes

	X, Y          float64
	Width, Height float64
}

func (n *Node) clone() Node {
	c := *n
	c.Key.Path = slices.Clone(n.Key.Path)
	c.Attributes = slices.Clone(n.Attributes)
	return c
}

// Edge connects a parent node to one of its children.
type Edge struct {
	ID     string
	Source string
	Target string
}

// Expansion is the authoritative expand/collapse state of a node.
type Expansion struct {
	Expanded bool
	Level    int
}
