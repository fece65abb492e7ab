// Package rows holds the flat result set that a lineage tree is built from.
//
// # Overview
//
// A [ResultSet] is what the row-fetch service returns for a query: an ordered
// column list and an ordered sequence of [Row] values. Rows are immutable once
// fetched; every component that groups or filters them compares values through
// [Normalize], which maps a missing or null value to the literal [Null]
// sentinel and renders numbers and booleans in their canonical text form.
//
// # Store
//
// [Store] pairs the current result set with the active hierarchy keys (the
// ordered column list that defines tree depth). Replacing either bumps the
// store's [Store.Version], which callers use to decide that the tree built
// from the previous state is stale and must be rebuilt from level 0.
//
// # Null Sentinel
//
// Null values and the literal string "null" normalize to the same value and
// therefore group together. This mirrors how the data has always been
// presented to users and is kept deliberately.
package rows
