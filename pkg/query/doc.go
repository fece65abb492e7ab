// Package query sits between a query string and the explorer: it fetches the
// rows a query returns and derives the root node's label from the query.
//
// [Fetcher] is the boundary. [DatabricksClient] runs statements on a
// Databricks SQL warehouse, [FileFetcher] serves a saved result file, and
// [CachedFetcher] puts a [cache.Cache] in front of either. A failed fetch
// returns an error and no rows, so callers only replace the explorer's data
// after a successful fetch.
//
// The query is never parsed beyond [ExtractTableName], which finds the first
// FROM target to label the root.
package query
