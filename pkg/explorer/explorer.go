package explorer

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/query"
	"github.com/matzehuels/lineage/pkg/rows"
	"github.com/matzehuels/lineage/pkg/tree"
)

// Option configures an [Explorer].
type Option func(*config)

type config struct {
	logger    *log.Logger
	layout    layout.Options
	onRefresh func(tree.Refresh)
}

// WithLogger sets the logger passed down to the tree builder.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLayout sets the layout options used after every mutation.
func WithLayout(opts layout.Options) Option {
	return func(c *config) { c.layout = opts }
}

// WithRefresh registers a callback invoked after every committed mutation.
// It runs while the explorer's lock is held and must not call back into
// the explorer.
func WithRefresh(fn func(tree.Refresh)) Option {
	return func(c *config) { c.onRefresh = fn }
}

// Explorer ties a row store to a tree builder. It is the only entry point
// that mutates either, and it serializes all calls with a mutex so that
// events from several goroutines are applied one at a time.
type Explorer struct {
	mu     sync.Mutex
	store  *rows.Store
	tree   *tree.Builder
	query  string
	logger *log.Logger
}

// New creates an explorer with no rows and no hierarchy.
func New(opts ...Option) *Explorer {
	cfg := config{logger: log.Default(), layout: layout.DefaultOptions()}
	for _, opt := range opts {
		opt(&cfg)
	}
	treeOpts := []tree.Option{
		tree.WithLogger(cfg.logger),
		tree.WithLayout(cfg.layout),
	}
	if cfg.onRefresh != nil {
		treeOpts = append(treeOpts, tree.WithRefresh(cfg.onRefresh))
	}
	return &Explorer{
		store:  &rows.Store{},
		tree:   tree.NewBuilder(treeOpts...),
		logger: cfg.logger,
	}
}

// Load replaces the result set and rebuilds the tree. The root label is
// derived from the query's FROM clause. A hierarchy that names columns the
// new result set does not have is cleared, leaving an empty graph until a
// new one is applied.
func (e *Explorer) Load(rs rows.ResultSet, q string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.query = q
	e.store.Load(rs)
	if unknown := e.store.UnknownKeys(); len(unknown) > 0 {
		e.logger.Warn("hierarchy no longer matches result columns, clearing", "unknown", unknown)
		e.store.SetHierarchy(nil)
	}
	e.tree.SetRootLabel(query.RootLabel(q))
	e.rebuild()
}

// ApplyHierarchy validates keys against the loaded columns and rebuilds the
// tree from level 0. An empty hierarchy clears the graph.
func (e *Explorer) ApplyHierarchy(keys []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := errors.ValidateHierarchy(keys, e.store.Columns()); err != nil {
		return err
	}
	e.store.SetHierarchy(keys)
	e.rebuild()
	return nil
}

func (e *Explorer) rebuild() {
	built := e.tree.Initialize(e.store.Rows(), e.store.Keys())
	e.logger.Debug("tree rebuilt", "built", built, "rows", len(e.store.Rows()), "keys", e.store.Keys())
}

// Click toggles the node with the given label and level. It reports whether
// the graph changed.
func (e *Explorer) Click(label string, level int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tree.Click(label, level)
}

// Toggle expands or collapses the node with the given id.
func (e *Explorer) Toggle(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tree.Toggle(id)
}

// Graph returns the positioned graph in its serialization format.
func (e *Explorer) Graph() graph.Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return graph.FromTree(e.tree)
}

// Columns returns the columns of the loaded result set.
func (e *Explorer) Columns() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Columns()
}

// Keys returns the active hierarchy.
func (e *Explorer) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Keys()
}

// Query returns the query the current rows were loaded for.
func (e *Explorer) Query() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.query
}

// Version increases whenever the rows or the hierarchy change.
func (e *Explorer) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Version()
}
