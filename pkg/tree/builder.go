package tree

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/group"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/observability"
	"github.com/matzehuels/lineage/pkg/rows"
)

// Operation names reported through [Refresh] and the tree hooks.
const (
	OpInitialize = "initialize"
	OpExpand     = "expand"
	OpCollapse   = "collapse"
)

// Refresh is sent to the renderer after every committed mutation.
type Refresh struct {
	Op      string
	FitView bool
	Nodes   int
	Edges   int
}

// Option configures a [Builder].
type Option func(*Builder)

// WithLogger sets the logger used for mutation and no-op diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithRootLabel sets the display label of the root node.
func WithRootLabel(label string) Option {
	return func(b *Builder) {
		if label != "" {
			b.rootLabel = label
		}
	}
}

// WithLayout sets the options passed to the layout engine.
func WithLayout(opts layout.Options) Option {
	return func(b *Builder) { b.layoutOpts = opts }
}

// WithRefresh registers fn to be called after every committed mutation,
// typically to ask the renderer to redraw and fit the view.
func WithRefresh(fn func(Refresh)) Option {
	return func(b *Builder) { b.onRefresh = fn }
}

// Builder is the single owner of the lineage graph. It holds the nodes, the
// edges and the expansion state, and is the only place they are mutated.
//
// Every operation is synchronous and absorbs its failure modes: an empty
// input, an unknown node, a redundant expand or collapse all leave the graph
// untouched and report false. Builder is not safe for concurrent use; callers
// serialize events (see the explorer package).
type Builder struct {
	rows []rows.Row
	keys []string

	nodes     []*Node
	index     map[string]*Node
	edges     []Edge
	edgeIndex map[string]struct{}
	children  map[string][]string
	state     map[string]Expansion

	rootLabel     string
	layoutOpts    layout.Options
	width, height float64
	logger        *log.Logger
	onRefresh     func(Refresh)
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		rootLabel:  DefaultRootLabel,
		layoutOpts: layout.DefaultOptions(),
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.reset()
	return b
}

func (b *Builder) reset() {
	b.nodes = nil
	b.index = make(map[string]*Node)
	b.edges = nil
	b.edgeIndex = make(map[string]struct{})
	b.children = make(map[string][]string)
	b.state = make(map[string]Expansion)
	b.width, b.height = 0, 0
}

// SetRootLabel changes the root's label, updating the existing root node.
func (b *Builder) SetRootLabel(label string) {
	if label == "" {
		label = DefaultRootLabel
	}
	b.rootLabel = label
	if root, ok := b.index[RootID]; ok {
		root.Label = label
		b.relayout()
	}
}

// Initialize discards the current graph and builds the root with one child
// per distinct value of keys[0]. With no rows or no keys the graph is left
// empty and Initialize returns false.
func (b *Builder) Initialize(rs []rows.Row, keys []string) bool {
	b.reset()
	b.rows = slices.Clone(rs)
	b.keys = slices.Clone(keys)

	if len(b.rows) == 0 || len(b.keys) == 0 {
		b.logger.Debug("initialize: empty input", "rows", len(b.rows), "keys", len(b.keys))
		b.commit(OpInitialize)
		return false
	}

	root := &Node{
		ID:       RootID,
		Key:      Root(),
		Level:    -1,
		Label:    b.rootLabel,
		Kind:     KindRoot,
		Expanded: true,
	}
	b.addNode(root)
	b.state[RootID] = Expansion{Expanded: true, Level: -1}

	for _, v := range group.DistinctValues(b.rows, b.keys[0]) {
		child := b.newGroupNode(Root().Child(v))
		b.addNode(child)
		b.addEdge(RootID, child.ID)
	}

	b.commit(OpInitialize)
	return true
}

// Expand materializes the children of parentID at nextLevel from filtered,
// the rows that match the parent's ancestry.
//
// When nextLevel is the last hierarchy level (or beyond), a single
// attribute-leaf node listing the distinct values of the last key is
// created instead. Children that already exist are reused by ID. Expand is
// a no-op when the parent is unknown, already expanded, an attribute leaf,
// or when nextLevel is not the level right below it.
func (b *Builder) Expand(parentID string, nextLevel int, filtered []rows.Row) bool {
	if b.state[parentID].Expanded {
		b.logger.Debug("expand: already expanded", "id", parentID)
		return false
	}
	parent, ok := b.index[parentID]
	if !ok || parent.Kind == KindAttributes || len(b.keys) == 0 {
		b.logger.Debug("expand: not expandable", "id", parentID)
		return false
	}
	if nextLevel != parent.Level+1 {
		b.logger.Debug("expand: level mismatch", "id", parentID, "level", parent.Level, "next", nextLevel)
		return false
	}

	if nextLevel >= len(b.keys)-1 {
		b.expandAttributes(parent, filtered)
	} else {
		b.expandGroups(parent, nextLevel, filtered)
	}

	parent.Expanded = true
	b.state[parentID] = Expansion{Expanded: true, Level: parent.Level}
	b.commit(OpExpand)
	return true
}

func (b *Builder) expandAttributes(parent *Node, filtered []rows.Row) {
	key := parent.Key.AttributesChild()
	values := group.DistinctValues(filtered, b.keys[len(b.keys)-1])

	id := key.String()
	if n, ok := b.index[id]; ok {
		n.Attributes = values
	} else {
		b.addNode(&Node{
			ID:         id,
			Key:        key,
			Level:      key.Level,
			Label:      AttributesLabel,
			Kind:       KindAttributes,
			Attributes: values,
		})
	}
	b.addEdge(parent.ID, id)
}

func (b *Builder) expandGroups(parent *Node, level int, filtered []rows.Row) {
	column := b.keys[level]
	seen := make(map[string]struct{})
	for _, r := range filtered {
		v := r.Value(column)
		if v == "" {
			continue
		}
		key := parent.Key.Child(v)
		id := key.String()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if _, exists := b.index[id]; !exists {
			b.addNode(b.newGroupNode(key))
		}
		b.addEdge(parent.ID, id)
	}
	parent.ChildCount = len(seen)
	parent.HasCount = true
}

// Collapse removes every descendant of parentID and the edges touching
// them, recomputes the parent's child count from the current rows and marks
// it collapsed. The root is never collapsed.
func (b *Builder) Collapse(parentID string, parentLevel int) bool {
	if !b.state[parentID].Expanded {
		b.logger.Debug("collapse: not expanded", "id", parentID)
		return false
	}
	parent, ok := b.index[parentID]
	if !ok || parent.Kind != KindGroup || parent.Level != parentLevel {
		b.logger.Debug("collapse: not collapsible", "id", parentID, "level", parentLevel)
		return false
	}

	removed := b.descendants(parentID)
	b.nodes = slices.DeleteFunc(b.nodes, func(n *Node) bool {
		_, gone := removed[n.ID]
		return gone
	})
	for id := range removed {
		delete(b.index, id)
		delete(b.state, id)
	}
	b.edges = slices.DeleteFunc(b.edges, func(e Edge) bool {
		_, src := removed[e.Source]
		_, dst := removed[e.Target]
		return src || dst || e.Source == parentID
	})
	b.edgeIndex = make(map[string]struct{}, len(b.edges))
	for _, e := range b.edges {
		b.edgeIndex[e.ID] = struct{}{}
	}

	b.recount(parent)
	parent.Expanded = false
	b.state[parentID] = Expansion{Expanded: false, Level: parentLevel}
	b.commit(OpCollapse)
	return true
}

// descendants collects every node below id with an explicit work queue over
// the adjacency index.
func (b *Builder) descendants(id string) map[string]struct{} {
	out := make(map[string]struct{})
	queue := slices.Clone(b.children[id])
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		if _, seen := out[curr]; seen {
			continue
		}
		out[curr] = struct{}{}
		queue = append(queue, b.children[curr]...)
	}
	return out
}

func (b *Builder) newGroupNode(key Key) *Node {
	n := &Node{
		ID:    key.String(),
		Key:   key,
		Level: key.Level,
		Label: key.Value(),
		Kind:  KindGroup,
	}
	b.recount(n)
	return n
}

// recount sets n's child count from the full row set: the number of
// distinct values of the next hierarchy key among rows in n's ancestry.
// Groups on the last level have no count.
func (b *Builder) recount(n *Node) {
	if n.Level < 0 || n.Level+1 >= len(b.keys) {
		n.ChildCount, n.HasCount = 0, false
		return
	}
	n.ChildCount = group.CountDistinctChildren(
		b.rows, b.keys, n.Key.Path,
		b.keys[n.Level], n.Key.Value(), b.keys[n.Level+1],
	)
	n.HasCount = true
}

func (b *Builder) addNode(n *Node) {
	b.nodes = append(b.nodes, n)
	b.index[n.ID] = n
}

func (b *Builder) addEdge(source, target string) {
	id := EdgeID(source, target)
	if _, exists := b.edgeIndex[id]; exists {
		return
	}
	b.edgeIndex[id] = struct{}{}
	b.edges = append(b.edges, Edge{ID: id, Source: source, Target: target})
}

// commit rebuilds the adjacency index, lays the graph out again and notifies
// the renderer.
func (b *Builder) commit(op string) {
	b.children = make(map[string][]string, len(b.nodes))
	for _, e := range b.edges {
		b.children[e.Source] = append(b.children[e.Source], e.Target)
	}
	b.relayout()

	observability.TreeMutated(op, len(b.nodes), len(b.edges))
	b.logger.Debug("graph updated", "op", op, "nodes", len(b.nodes), "edges", len(b.edges))
	if b.onRefresh != nil {
		b.onRefresh(Refresh{Op: op, FitView: true, Nodes: len(b.nodes), Edges: len(b.edges)})
	}
}

func (b *Builder) relayout() {
	nodes := make([]layout.Node, len(b.nodes))
	for i, n := range b.nodes {
		nodes[i] = layout.Node{ID: n.ID, Label: n.Label, Leaf: n.Kind == KindAttributes}
	}
	edges := make([]layout.Edge, len(b.edges))
	for i, e := range b.edges {
		edges[i] = layout.Edge{Source: e.Source, Target: e.Target}
	}

	start := time.Now()
	res, err := layout.Compute(nodes, edges, b.layoutOpts)
	observability.TreeLaidOut(len(nodes), time.Since(start), err)
	if err != nil {
		b.logger.Warn("layout failed, keeping previous positions", "err", err)
		return
	}
	for i, p := range res.Placements {
		n := b.nodes[i]
		n.X, n.Y, n.Width, n.Height = p.X, p.Y, p.Width, p.Height
	}
	b.width, b.height = res.Width, res.Height
}
