// Package transform provides graph transformations that prepare a DAG for
// layered layout.
//
// # Layer Assignment
//
// [AssignLayers] computes the rank of each node from its longest distance to
// a source. A lineage tree has exactly one source, the synthetic root, so the
// rank of every node is its depth and each hierarchy level lands in its own
// column of a left-to-right drawing.
//
//	g := dag.New()
//	// ... add nodes and edges ...
//	ranks, err := transform.AssignLayers(g)
package transform
