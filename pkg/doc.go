// Package pkg provides the libraries behind lineage, a drill-down explorer
// for tabular query results.
//
// # Overview
//
// Lineage groups the rows of a result set by an ordered list of columns, the
// hierarchy, and shows them as a tree under one synthetic root. Nodes are
// materialized lazily: expanding a group adds its children one level deeper,
// expanding a group on the last level adds a single attribute leaf listing
// the distinct values of the last column, and collapsing removes the whole
// subtree again. After every change the tree is laid out left to right.
//
// # Architecture
//
//	query (Databricks, file, cache)
//	         ↓
//	    [rows] result set + hierarchy
//	         ↓
//	    [group] distinct values and child counts
//	         ↓
//	    [tree] node/edge state, expand, collapse, click
//	         ↓
//	    [layout] ranked coordinates over [dag]
//	         ↓
//	    [graph] serialized {nodes, edges}
//	         ↓
//	    [render/nodelink] DOT, SVG, PDF, PNG
//
// [explorer] ties rows, tree and layout together behind a mutex and is what
// the CLI and the HTTP server hold per session.
//
// # Packages
//
// [rows] - Row, ResultSet and the null sentinel used for every comparison.
// Store holds the rows together with the active hierarchy.
//
// [group] - Pure aggregation helpers: ancestry filters, distinct values and
// distinct child counts.
//
// [tree] - The tree builder. Node ids encode level and ancestry so that
// repeated expansion never duplicates nodes and collapse can recover the
// ancestry from an id alone.
//
// [layout] - Deterministic layered layout with configurable node and rank
// separation, margins and direction.
//
// [dag], [dag/transform] - Row-based DAG used by the layout: rank
// assignment by longest path and crossing counts.
//
// [graph] - The positioned graph as written to disk and returned by the API.
//
// [query] - Root label derivation from a FROM clause and the Fetcher
// boundary: Databricks statements client, file fetcher and a caching
// wrapper.
//
// [cache] - File, Redis and in-memory caches for fetched result sets, plus a
// disabled cache that stores nothing.
//
// [settings] - Saved queries and hierarchies per user, in TOML files or
// MongoDB.
//
// [session] - In-memory explorer sessions with idle expiry.
//
// [render/nodelink] - Graphviz rendering of a positioned graph. [render]
// converts SVG to PDF and PNG.
//
// [errors] - Coded errors and input validation for the outer surfaces.
//
// [observability] - Hooks for tree mutations, cache lookups and fetches.
//
// [httputil] - Retry with exponential backoff.
//
// [buildinfo] - Version information set via ldflags.
//
// # Quick Start
//
//	ex := explorer.New()
//	ex.Load(rs, "SELECT * FROM main.sales.orders")
//	if err := ex.ApplyHierarchy([]string{"region", "country"}); err != nil {
//	    return err
//	}
//	ex.Click("EMEA", 0)
//	g := ex.Graph()
//	dot := nodelink.ToDOT(g, nodelink.Options{Positioned: true})
//
// [rows]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/rows
// [group]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/group
// [tree]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/tree
// [layout]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/layout
// [dag]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/dag/transform
// [graph]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/graph
// [explorer]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/explorer
// [query]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/query
// [cache]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/cache
// [settings]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/settings
// [session]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/session
// [render]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/render/nodelink
// [errors]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/httputil
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/buildinfo
package pkg
