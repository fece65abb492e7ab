// Package tree builds the drill-down lineage tree.
//
// A [Builder] starts from a flat row set and an ordered hierarchy of column
// names. [Builder.Initialize] creates a synthetic root with one child per
// distinct value of the first column. Expanding a group node adds one child
// per distinct value of the next column among the rows in that group's
// ancestry; expanding a group on the second-to-last level adds a single
// attribute leaf that lists the distinct values of the last column.
// [Builder.Collapse] removes a node's entire subtree again.
//
// Node IDs encode the full ancestry (see [Key]), so they are unique across
// the graph and [ParseKey] can recover the path without touching the graph.
// After every committed mutation the whole graph is laid out again with the
// layout package and the refresh callback is invoked.
package tree
