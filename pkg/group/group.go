// Package group computes the distinct child groupings of a row set.
//
// All functions are pure: they never modify their inputs and return the same
// result for the same rows. Values are compared after [rows.Normalize], and
// empty values never form a group.
package group

import "github.com/matzehuels/lineage/pkg/rows"

// Matches reports whether row carries ancestry[i] at keys[i] for every level
// of ancestry. Ancestry longer than keys never matches.
func Matches(row rows.Row, keys []string, ancestry []string) bool {
	if len(ancestry) > len(keys) {
		return false
	}
	for i, want := range ancestry {
		if row.Value(keys[i]) != want {
			return false
		}
	}
	return true
}

// Filter returns the rows matching ancestry, in their original order.
func Filter(rs []rows.Row, keys []string, ancestry []string) []rows.Row {
	out := make([]rows.Row, 0, len(rs))
	for _, r := range rs {
		if Matches(r, keys, ancestry) {
			out = append(out, r)
		}
	}
	return out
}

// DistinctValues returns the distinct non-empty normalized values of key, in
// order of first occurrence.
func DistinctValues(rs []rows.Row, key string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rs {
		v := r.Value(key)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// CountDistinctChildren counts the distinct non-empty values of childKey
// among rows that match ancestry (compared against keys level by level) and
// carry parentValue at parentKey.
func CountDistinctChildren(rs []rows.Row, keys []string, ancestry []string, parentKey, parentValue, childKey string) int {
	seen := make(map[string]struct{})
	for _, r := range rs {
		if !Matches(r, keys, ancestry) || r.Value(parentKey) != parentValue {
			continue
		}
		if v := r.Value(childKey); v != "" {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}
