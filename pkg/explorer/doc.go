// Package explorer is the event-facing facade of the lineage tree.
//
// An [Explorer] holds the fetched rows, the chosen hierarchy and the tree
// built from them. Renderers call [Explorer.Load] once a fetch succeeded,
// [Explorer.ApplyHierarchy] when the user picks grouping keys and
// [Explorer.Click] or [Explorer.Toggle] for interactions, then read the
// positioned result with [Explorer.Graph].
//
// A failed fetch never reaches the explorer, so the graph always reflects
// the last successfully loaded result set.
package explorer
