package dag

import (
	"errors"
	"slices"
	"strconv"
	"testing"
)

func TestAddNodeErrors(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want ErrInvalidNodeID", err)
	}
	_ = g.AddNode(Node{ID: "a"})
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) = %v, want ErrDuplicateNodeID", err)
	}
}

func TestAddEdgeErrors(t *testing.T) {
	g := New()
	_ = g.AddNode(Node{ID: "a"})
	if err := g.AddEdge(Edge{From: "z", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(unknown src) = %v", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "z"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(unknown dst) = %v", err)
	}
}

func TestNodesKeepInsertionOrder(t *testing.T) {
	g := New()
	ids := []string{"m", "c", "x", "a", "q"}
	for _, id := range ids {
		_ = g.AddNode(Node{ID: id})
	}
	if got := NodeIDs(g.Nodes()); !slices.Equal(got, ids) {
		t.Errorf("Nodes() = %v, want %v", got, ids)
	}
	g.SetRows(map[string]int{"x": 1, "q": 1})
	if got := NodeIDs(g.NodesInRow(1)); !slices.Equal(got, []string{"x", "q"}) {
		t.Errorf("NodesInRow(1) = %v", got)
	}
	if got := g.RowIDs(); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("RowIDs() = %v", got)
	}
}

func TestValidate(t *testing.T) {
	g := New()
	_ = g.AddNode(Node{ID: "a", Row: 0})
	_ = g.AddNode(Node{ID: "b", Row: 2})
	_ = g.AddEdge(Edge{From: "a", To: "b"})
	if err := g.Validate(); !errors.Is(err, ErrNonConsecutiveRows) {
		t.Errorf("Validate() = %v, want ErrNonConsecutiveRows", err)
	}

	c := New()
	_ = c.AddNode(Node{ID: "a"})
	_ = c.AddNode(Node{ID: "b"})
	_ = c.AddEdge(Edge{From: "a", To: "b"})
	_ = c.AddEdge(Edge{From: "b", To: "a"})
	if err := c.detectCycles(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("detectCycles() = %v, want ErrGraphHasCycle", err)
	}
}

func TestDetectCyclesDeepChain(t *testing.T) {
	g := New()
	const depth = 20000
	prev := ""
	for i := range depth {
		id := "n" + strconv.Itoa(i)
		_ = g.AddNode(Node{ID: id, Row: i})
		if prev != "" {
			_ = g.AddEdge(Edge{From: prev, To: id})
		}
		prev = id
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() on deep chain = %v", err)
	}
}

func TestCountCrossings(t *testing.T) {
	g := New()
	for _, id := range []string{"r", "a", "b", "a1", "b1"} {
		_ = g.AddNode(Node{ID: id})
	}
	_ = g.AddEdge(Edge{From: "r", To: "a"})
	_ = g.AddEdge(Edge{From: "r", To: "b"})
	_ = g.AddEdge(Edge{From: "a", To: "a1"})
	_ = g.AddEdge(Edge{From: "b", To: "b1"})

	good := map[int][]string{0: {"r"}, 1: {"a", "b"}, 2: {"a1", "b1"}}
	bad := map[int][]string{0: {"r"}, 1: {"a", "b"}, 2: {"b1", "a1"}}
	if n := CountCrossings(g, good); n != 0 {
		t.Errorf("CountCrossings(good) = %d, want 0", n)
	}
	if n := CountCrossings(g, bad); n != 1 {
		t.Errorf("CountCrossings(bad) = %d, want 1", n)
	}
}

func TestInversions(t *testing.T) {
	tests := []struct {
		xs   []int
		want int
	}{
		{nil, 0},
		{[]int{0, 1, 2}, 0},
		{[]int{2, 1, 0}, 3},
		{[]int{1, 1, 0}, 2},
		{[]int{0, 2, 2, 1}, 2},
	}
	for _, tt := range tests {
		if got := inversions(tt.xs, 3); got != tt.want {
			t.Errorf("inversions(%v) = %d, want %d", tt.xs, got, tt.want)
		}
	}
}
