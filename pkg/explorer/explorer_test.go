package explorer

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/rows"
	"github.com/matzehuels/lineage/pkg/tree"
)

func quiet(opts ...Option) *Explorer {
	return New(append([]Option{WithLogger(log.New(io.Discard))}, opts...)...)
}

func lineageRows() rows.ResultSet {
	return rows.ResultSet{
		Columns: []string{"source", "table", "column"},
		Rows: []rows.Row{
			{"source": "crm", "table": "accounts", "column": "id"},
			{"source": "crm", "table": "accounts", "column": "owner"},
			{"source": "crm", "table": "leads", "column": "id"},
			{"source": "erp", "table": "invoices", "column": "total"},
		},
	}
}

func labels(g graph.Graph) []string {
	out := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = n.Label
	}
	return out
}

func TestLoadAndApplyHierarchy(t *testing.T) {
	e := quiet()
	e.Load(lineageRows(), "SELECT * FROM main.meta.column_lineage")

	if g := e.Graph(); len(g.Nodes) != 0 {
		t.Fatalf("graph before hierarchy has %d nodes, want 0", len(g.Nodes))
	}
	if err := e.ApplyHierarchy([]string{"source", "table", "column"}); err != nil {
		t.Fatalf("ApplyHierarchy: %v", err)
	}

	g := e.Graph()
	want := []string{"Column Lineage Lineage", "crm", "erp"}
	if got := labels(g); !slices.Equal(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
	if g.Title != "Column Lineage Lineage" {
		t.Errorf("title = %q", g.Title)
	}
	if !slices.Equal(g.Levels, []string{"source", "table", "column"}) {
		t.Errorf("levels = %v", g.Levels)
	}
	if err := graph.Validate(g); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestApplyHierarchyRejectsUnknownColumns(t *testing.T) {
	e := quiet()
	e.Load(lineageRows(), "")
	if err := e.ApplyHierarchy([]string{"source"}); err != nil {
		t.Fatal(err)
	}
	before := e.Graph()

	err := e.ApplyHierarchy([]string{"source", "schema"})
	if !errors.Is(err, errors.ErrCodeInvalidHierarchy) {
		t.Fatalf("err = %v, want INVALID_HIERARCHY", err)
	}
	if after := e.Graph(); !slices.Equal(labels(after), labels(before)) {
		t.Errorf("graph changed after rejected hierarchy: %v", labels(after))
	}
}

func TestEmptyHierarchyClearsGraph(t *testing.T) {
	e := quiet()
	e.Load(lineageRows(), "")
	if err := e.ApplyHierarchy([]string{"source", "table"}); err != nil {
		t.Fatal(err)
	}
	e.Click("crm", 0)
	if err := e.ApplyHierarchy(nil); err != nil {
		t.Fatal(err)
	}
	if g := e.Graph(); len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("graph = %d nodes, %d edges; want empty", len(g.Nodes), len(g.Edges))
	}
}

func TestClickTogglesSubtree(t *testing.T) {
	e := quiet()
	e.Load(lineageRows(), "")
	if err := e.ApplyHierarchy([]string{"source", "table", "column"}); err != nil {
		t.Fatal(err)
	}

	if !e.Click("crm", 0) {
		t.Fatal("expand crm: no change")
	}
	if !e.Click("accounts", 1) {
		t.Fatal("expand accounts: no change")
	}
	g := e.Graph()
	var attrs *graph.Node
	for i := range g.Nodes {
		if g.Nodes[i].IsAttributes() {
			attrs = &g.Nodes[i]
		}
	}
	if attrs == nil {
		t.Fatal("no attribute node after expanding accounts")
	}
	if !slices.Equal(attrs.Attributes, []string{"id", "owner"}) {
		t.Errorf("attributes = %v", attrs.Attributes)
	}

	if !e.Click("crm", 0) {
		t.Fatal("collapse crm: no change")
	}
	if got, want := labels(e.Graph()), []string{"Lineage Root", "crm", "erp"}; !slices.Equal(got, want) {
		t.Errorf("after collapse labels = %v, want %v", got, want)
	}
	if e.Click("nope", 0) {
		t.Error("unresolvable click reported a change")
	}
}

func TestToggleByID(t *testing.T) {
	e := quiet()
	e.Load(lineageRows(), "")
	if err := e.ApplyHierarchy([]string{"source", "table"}); err != nil {
		t.Fatal(err)
	}
	id := tree.Root().Child("erp").String()
	if !e.Toggle(id) {
		t.Fatal("Toggle returned false")
	}
	n, ok := func() (*graph.Node, bool) { g := e.Graph(); return g.Node(id) }()
	if !ok || !n.Expanded() {
		t.Errorf("node %q not expanded after toggle", id)
	}
}

func TestLoadRebuildsAndClearsStaleHierarchy(t *testing.T) {
	var refreshes []string
	e := quiet(WithRefresh(func(r tree.Refresh) { refreshes = append(refreshes, r.Op) }))
	e.Load(lineageRows(), "")
	if err := e.ApplyHierarchy([]string{"source", "table"}); err != nil {
		t.Fatal(err)
	}
	e.Click("crm", 0)

	// Same columns: the hierarchy survives and the tree starts over.
	e.Load(lineageRows(), "")
	if got, want := labels(e.Graph()), []string{"Lineage Root", "crm", "erp"}; !slices.Equal(got, want) {
		t.Errorf("after reload labels = %v, want %v", got, want)
	}

	// Different columns: the hierarchy is dropped.
	e.Load(rows.ResultSet{Columns: []string{"x"}, Rows: []rows.Row{{"x": 1}}}, "")
	if keys := e.Keys(); len(keys) != 0 {
		t.Errorf("keys = %v, want none", keys)
	}
	if g := e.Graph(); len(g.Nodes) != 0 {
		t.Errorf("graph has %d nodes, want 0", len(g.Nodes))
	}
	if len(refreshes) == 0 || refreshes[0] != tree.OpInitialize {
		t.Errorf("refreshes = %v", refreshes)
	}
}

func TestAccessors(t *testing.T) {
	e := quiet()
	v0 := e.Version()
	e.Load(lineageRows(), "SELECT 1 FROM t")
	if e.Query() != "SELECT 1 FROM t" {
		t.Errorf("Query = %q", e.Query())
	}
	if !slices.Equal(e.Columns(), []string{"source", "table", "column"}) {
		t.Errorf("Columns = %v", e.Columns())
	}
	if e.Version() <= v0 {
		t.Error("Version did not advance on Load")
	}
}

func TestConcurrentClicks(t *testing.T) {
	e := quiet()
	e.Load(lineageRows(), "")
	if err := e.ApplyHierarchy([]string{"source", "table", "column"}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			label := []string{"crm", "erp"}[i%2]
			e.Click(label, 0)
			_ = e.Graph()
		}()
	}
	wg.Wait()

	if err := graph.Validate(e.Graph()); err != nil {
		t.Errorf("graph invalid after concurrent clicks: %v", err)
	}
}

func ExampleExplorer() {
	e := New(WithLogger(log.New(io.Discard)))
	e.Load(rows.ResultSet{
		Columns: []string{"a", "b"},
		Rows: []rows.Row{
			{"a": "X", "b": "p"},
			{"a": "X", "b": "q"},
			{"a": "Y", "b": "p"},
		},
	}, "SELECT * FROM sales.orders")
	_ = e.ApplyHierarchy([]string{"a", "b"})
	e.Click("X", 0)

	for _, n := range e.Graph().Nodes {
		switch {
		case n.IsAttributes():
			fmt.Println(n.Level, n.Label, n.Attributes)
		case n.ChildCount != nil:
			fmt.Println(n.Level, n.Label, *n.ChildCount)
		default:
			fmt.Println(n.Level, n.Label)
		}
	}
	// Output:
	// -1 Orders Lineage
	// 0 X 2
	// 0 Y 1
	// 1 Attributes [p q]
}
