// Package dag provides the ranked directed acyclic graph that the layout
// engine works on.
//
// # Overview
//
// A lineage tree is laid out as a layered drawing: every node gets a rank
// (row), and edges only connect consecutive ranks. This package stores that
// structure together with each node's footprint, keeps insertion order for
// nodes and edges so traversals are reproducible, and offers crossing
// counting for evaluating within-rank orderings.
//
// # Basic Usage
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "root", Width: 500, Height: 80})
//	g.AddNode(dag.Node{ID: "child", Width: 500, Height: 80})
//	g.AddEdge(dag.Edge{From: "root", To: "child"})
//	if _, err := transform.AssignLayers(g); err != nil {
//	    return err
//	}
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] use a Fenwick tree to count
// inversions in O(E log V) time. For a tree ordered depth-first the count is
// always zero, which the layout tests rely on.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use.
package dag
