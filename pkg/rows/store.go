package rows

import "slices"

// Store holds the current result set and the active hierarchy keys.
//
// The zero value is an empty store ready to use. Store is not safe for
// concurrent use.
type Store struct {
	columns []string
	rows    []Row
	keys    []string
	version uint64
}

// NewStore creates a store holding rs with no hierarchy selected.
func NewStore(rs ResultSet) *Store {
	s := &Store{}
	s.Load(rs)
	return s
}

// Load replaces the result set. The hierarchy keys are kept so that the
// caller can rebuild the tree against the new rows.
func (s *Store) Load(rs ResultSet) {
	s.columns = slices.Clone(rs.Columns)
	s.rows = slices.Clone(rs.Rows)
	s.version++
}

// SetHierarchy replaces the hierarchy keys. Index i is tree level i.
func (s *Store) SetHierarchy(keys []string) {
	s.keys = slices.Clone(keys)
	s.version++
}

// Rows returns the current rows. The slice must not be modified.
func (s *Store) Rows() []Row { return s.rows }

// Columns returns the column names of the current result set.
func (s *Store) Columns() []string { return slices.Clone(s.columns) }

// Keys returns a copy of the hierarchy keys.
func (s *Store) Keys() []string { return slices.Clone(s.keys) }

// Key returns the hierarchy key for level, or false when level is out of range.
func (s *Store) Key(level int) (string, bool) {
	if level < 0 || level >= len(s.keys) {
		return "", false
	}
	return s.keys[level], true
}

// Depth returns the number of hierarchy levels.
func (s *Store) Depth() int { return len(s.keys) }

// Version increases every time the rows or the hierarchy change.
func (s *Store) Version() uint64 { return s.version }

// Empty reports whether there is nothing to build a tree from.
func (s *Store) Empty() bool { return len(s.rows) == 0 || len(s.keys) == 0 }

// UnknownKeys returns the hierarchy keys that are not columns of the loaded
// result set, in hierarchy order.
func (s *Store) UnknownKeys() []string {
	var out []string
	for _, k := range s.keys {
		if !slices.Contains(s.columns, k) {
			out = append(out, k)
		}
	}
	return out
}
