// Package layout assigns 2-D coordinates to a lineage graph.
//
// # Overview
//
// The layout is layered: every node gets a rank equal to its depth from the
// root, ranks advance along the layout direction (left to right by default)
// and nodes of the same rank are stacked along the other axis. Each node's
// footprint is estimated from its label, width = max(500, 10 * len(label)),
// and from its kind, 140 high for attribute-leaf nodes and 80 otherwise.
//
// # Determinism
//
// [Compute] has no random tie-breaking. Ranks are computed with
// longest-path layering over an insertion-ordered graph, within-rank order is
// the depth-first order of the spanning forest, and coordinates follow from
// that order alone. Laying out the same nodes and edges twice yields the same
// placements, so collapsing and re-expanding a subtree puts everything back
// where it was.
//
// # Usage
//
//	res, err := layout.Compute(nodes, edges, layout.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	pos := res.Positions()["root"]
package layout
