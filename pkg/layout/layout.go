package layout

import (
	"fmt"
	"unicode/utf8"

	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/dag/transform"
)

// Direction is the axis along which ranks advance.
type Direction string

const (
	// LeftToRight places the root at the left and deeper levels to its right.
	LeftToRight Direction = "LR"
	// TopToBottom places the root at the top and deeper levels below it.
	TopToBottom Direction = "TB"
)

// Default sizing and spacing, in drawing units.
const (
	DefaultNodeSep    = 100.0
	DefaultRankSep    = 100.0
	DefaultMargin     = 20.0
	DefaultMinWidth   = 500.0
	DefaultCharWidth  = 10.0
	DefaultNodeHeight = 80.0
	DefaultLeafHeight = 140.0
)

// Options configures [Compute]. Zero fields fall back to the defaults above.
type Options struct {
	Direction Direction
	NodeSep   float64 // gap between neighbours within a rank
	RankSep   float64 // gap between consecutive ranks
	MarginX   float64
	MarginY   float64

	MinWidth   float64 // lower bound of a node's estimated width
	CharWidth  float64 // width per label character
	NodeHeight float64 // height of grouping nodes
	LeafHeight float64 // height of attribute-leaf nodes
}

// DefaultOptions returns the left-to-right layout used by the explorer.
func DefaultOptions() Options {
	return Options{
		Direction:  LeftToRight,
		NodeSep:    DefaultNodeSep,
		RankSep:    DefaultRankSep,
		MarginX:    DefaultMargin,
		MarginY:    DefaultMargin,
		MinWidth:   DefaultMinWidth,
		CharWidth:  DefaultCharWidth,
		NodeHeight: DefaultNodeHeight,
		LeafHeight: DefaultLeafHeight,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Direction == "" {
		o.Direction = d.Direction
	}
	if o.NodeSep <= 0 {
		o.NodeSep = d.NodeSep
	}
	if o.RankSep <= 0 {
		o.RankSep = d.RankSep
	}
	if o.MarginX <= 0 {
		o.MarginX = d.MarginX
	}
	if o.MarginY <= 0 {
		o.MarginY = d.MarginY
	}
	if o.MinWidth <= 0 {
		o.MinWidth = d.MinWidth
	}
	if o.CharWidth <= 0 {
		o.CharWidth = d.CharWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = d.NodeHeight
	}
	if o.LeafHeight <= 0 {
		o.LeafHeight = d.LeafHeight
	}
	return o
}

// ParseDirection validates a direction string. The empty string selects
// [LeftToRight].
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "", LeftToRight:
		return LeftToRight, nil
	case TopToBottom:
		return TopToBottom, nil
	default:
		return "", fmt.Errorf("unknown layout direction %q (want LR or TB)", s)
	}
}

// Node is the layout's view of a graph node.
type Node struct {
	ID    string
	Label string
	Leaf  bool // attribute-leaf nodes are drawn taller
}

// Edge is a parent to child connection.
type Edge struct {
	Source string
	Target string
}

// Placement is the computed position of one node. X and Y are the centre of
// the node's box.
type Placement struct {
	ID     string
	X, Y   float64
	Width  float64
	Height float64
	Rank   int
}

// Result holds the placements in input order plus the drawing's extent.
type Result struct {
	Placements []Placement
	Width      float64
	Height     float64
	Crossings  int
}

// Positions indexes the placements by node ID.
func (r Result) Positions() map[string]Placement {
	m := make(map[string]Placement, len(r.Placements))
	for _, p := range r.Placements {
		m[p.ID] = p
	}
	return m
}

// Size returns the estimated footprint of a node with the given label.
func Size(label string, leaf bool, opts Options) (width, height float64) {
	opts = opts.withDefaults()
	width = max(opts.MinWidth, opts.CharWidth*float64(utf8.RuneCountInString(label)))
	height = opts.NodeHeight
	if leaf {
		height = opts.LeafHeight
	}
	return width, height
}

// Compute assigns a position to every node.
//
// Ranks come from longest-path layering, nodes within a rank are ordered
// depth-first from the sources (which never crosses edges in a forest), and
// every parent is centred on the span of its children. There is no random
// tie-breaking: the same nodes and edges in the same order always produce
// the same placements.
//
// Compute returns an error if an edge references an unknown node, a node ID
// is repeated, or the edges form a cycle.
func Compute(nodes []Node, edges []Edge, opts Options) (Result, error) {
	opts = opts.withDefaults()

	g := dag.New()
	for _, n := range nodes {
		w, h := Size(n.Label, n.Leaf, opts)
		if err := g.AddNode(dag.Node{ID: n.ID, Width: w, Height: h}); err != nil {
			return Result{}, fmt.Errorf("layout node %q: %w", n.ID, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e.Source, To: e.Target}); err != nil {
			return Result{}, fmt.Errorf("layout edge %s->%s: %w", e.Source, e.Target, err)
		}
	}
	if _, err := transform.AssignLayers(g); err != nil {
		return Result{}, fmt.Errorf("layout: %w", err)
	}
	if err := g.Validate(); err != nil {
		return Result{}, fmt.Errorf("layout: %w", err)
	}

	a := newAxes(opts)
	f := buildForest(g)
	cross := placeCross(g, f, a, opts.NodeSep)
	rankCenter, rankExtent := placeRanks(g, a, opts.RankSep)

	res := Result{
		Placements: make([]Placement, 0, len(nodes)),
		Crossings:  dag.CountCrossings(g, f.orders),
	}
	var crossExtent float64
	for _, n := range g.Nodes() {
		crossExtent = max(crossExtent, cross[n.ID]+a.crossSize(n)/2)
	}

	for _, in := range nodes {
		n, _ := g.Node(in.ID)
		r := a.rankMargin + rankCenter[n.Row]
		c := a.crossMargin + cross[n.ID]
		p := Placement{ID: n.ID, Width: n.Width, Height: n.Height, Rank: n.Row}
		if a.dir == TopToBottom {
			p.X, p.Y = c, r
		} else {
			p.X, p.Y = r, c
		}
		res.Placements = append(res.Placements, p)
	}

	rankTotal := rankExtent + 2*a.rankMargin
	crossTotal := crossExtent + 2*a.crossMargin
	if len(nodes) == 0 {
		rankTotal, crossTotal = 0, 0
	}
	if a.dir == TopToBottom {
		res.Width, res.Height = crossTotal, rankTotal
	} else {
		res.Width, res.Height = rankTotal, crossTotal
	}
	return res, nil
}

// axes maps the abstract rank/cross axes onto x and y for a direction.
type axes struct {
	dir         Direction
	rankMargin  float64
	crossMargin float64
}

func newAxes(opts Options) axes {
	if opts.Direction == TopToBottom {
		return axes{dir: TopToBottom, rankMargin: opts.MarginY, crossMargin: opts.MarginX}
	}
	return axes{dir: LeftToRight, rankMargin: opts.MarginX, crossMargin: opts.MarginY}
}

func (a axes) rankSize(n *dag.Node) float64 {
	if a.dir == TopToBottom {
		return n.Height
	}
	return n.Width
}

func (a axes) crossSize(n *dag.Node) float64 {
	if a.dir == TopToBottom {
		return n.Width
	}
	return n.Height
}

// placeRanks returns the centre of every rank along the rank axis (before
// the margin is added) and the total extent of all ranks.
func placeRanks(g *dag.DAG, a axes, sep float64) (map[int]float64, float64) {
	centers := make(map[int]float64)
	var offset float64
	rows := g.RowIDs()
	for i, r := range rows {
		var thickness float64
		for _, n := range g.NodesInRow(r) {
			thickness = max(thickness, a.rankSize(n))
		}
		centers[r] = offset + thickness/2
		offset += thickness
		if i < len(rows)-1 {
			offset += sep
		}
	}
	return centers, offset
}
