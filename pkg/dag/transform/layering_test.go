package transform

import (
	"errors"
	"testing"

	"github.com/matzehuels/lineage/pkg/dag"
)

func TestAssignLayers(t *testing.T) {
	g := dag.New()
	for _, id := range []string{"root", "X", "Y", "Xp", "Xq"} {
		_ = g.AddNode(dag.Node{ID: id, Row: 7})
	}
	_ = g.AddEdge(dag.Edge{From: "root", To: "X"})
	_ = g.AddEdge(dag.Edge{From: "root", To: "Y"})
	_ = g.AddEdge(dag.Edge{From: "X", To: "Xp"})
	_ = g.AddEdge(dag.Edge{From: "X", To: "Xq"})

	if rows, err := AssignLayers(g); rows != 3 || err != nil {
		t.Fatalf("AssignLayers = %d, %v; want 3 rows", rows, err)
	}

	want := map[string]int{"root": 0, "X": 1, "Y": 1, "Xp": 2, "Xq": 2}
	for id, row := range want {
		n, _ := g.Node(id)
		if n.Row != row {
			t.Errorf("%s.Row = %d, want %d", id, n.Row, row)
		}
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() after AssignLayers = %v", err)
	}
}

func TestAssignLayersLongestPath(t *testing.T) {
	g := dag.New()
	for _, id := range []string{"a", "b", "c"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "a", To: "b"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "c"})
	_ = g.AddEdge(dag.Edge{From: "a", To: "c"})

	if _, err := AssignLayers(g); err != nil {
		t.Fatal(err)
	}
	if n, _ := g.Node("c"); n.Row != 2 {
		t.Errorf("c.Row = %d, want 2", n.Row)
	}
}

func TestAssignLayersEmpty(t *testing.T) {
	if rows, err := AssignLayers(dag.New()); rows != 0 || err != nil {
		t.Errorf("AssignLayers(empty) = %d, %v", rows, err)
	}
}

func TestAssignLayersCycle(t *testing.T) {
	g := dag.New()
	for _, id := range []string{"root", "a", "b"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "root", To: "a"})
	_ = g.AddEdge(dag.Edge{From: "a", To: "b"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "a"})

	if _, err := AssignLayers(g); !errors.Is(err, dag.ErrGraphHasCycle) {
		t.Errorf("err = %v, want ErrGraphHasCycle", err)
	}
}
