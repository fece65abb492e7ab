package tree

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// RootID is the ID of the synthetic root node.
const RootID = "root"

// attributesSuffix marks the attribute-leaf child of a node. '#' is always
// percent-encoded inside escaped group values, so the suffix cannot be
// produced by any value.
const attributesSuffix = "#attributes"

// ErrMalformedID is returned by [ParseKey] for strings that are not node IDs.
var ErrMalformedID = errors.New("malformed node id")

// Key is the structured identity of a node: its level and the group values
// along the path from the root (its ancestry). Attribute-leaf nodes carry
// their parent's path and the Attributes flag.
//
// Keys are serialized with [Key.String] only where a scalar identity is
// needed; [ParseKey] recovers the full ancestry from that string without
// consulting any graph.
type Key struct {
	Level      int
	Path       []string
	Attributes bool
}

// Root returns the key of the synthetic root.
func Root() Key { return Key{Level: -1} }

// IsRoot reports whether k identifies the root.
func (k Key) IsRoot() bool { return k.Level == -1 && !k.Attributes }

// Child returns the key of the group with value v directly below k.
func (k Key) Child(v string) Key {
	path := make([]string, len(k.Path)+1)
	copy(path, k.Path)
	path[len(k.Path)] = v
	return Key{Level: k.Level + 1, Path: path}
}

// AttributesChild returns the key of k's attribute-leaf child.
func (k Key) AttributesChild() Key {
	return Key{Level: k.Level + 1, Path: slices.Clone(k.Path), Attributes: true}
}

// Parent returns the key one level up. The root has no parent.
func (k Key) Parent() (Key, bool) {
	switch {
	case k.IsRoot():
		return Key{}, false
	case k.Attributes:
		return Key{Level: k.Level - 1, Path: slices.Clone(k.Path)}, true
	default:
		return Key{Level: k.Level - 1, Path: slices.Clone(k.Path[:len(k.Path)-1])}, true
	}
}

// Value returns the group value of k, or "" for the root and attribute nodes.
func (k Key) Value() string {
	if k.Attributes || len(k.Path) == 0 {
		return ""
	}
	return k.Path[len(k.Path)-1]
}

// Ancestry returns a copy of the group values from level 0 down to k.
func (k Key) Ancestry() []string { return slices.Clone(k.Path) }

// String encodes k as a node ID. A group at level n under parent P is
// "n-P/escaped(value)", the root is "root" and an attribute leaf at level n
// under P is "n-P#attributes".
func (k Key) String() string {
	id := RootID
	for i, v := range k.Path {
		id = strconv.Itoa(i) + "-" + id + "/" + url.PathEscape(v)
	}
	if k.Attributes {
		id = strconv.Itoa(k.Level) + "-" + id + attributesSuffix
	}
	return id
}

// ParseKey decodes a node ID produced by [Key.String].
func ParseKey(id string) (Key, error) {
	if before, ok := strings.CutSuffix(id, attributesSuffix); ok {
		level, rest, ok := strings.Cut(before, "-")
		if !ok {
			return Key{}, fmt.Errorf("%w: %q", ErrMalformedID, id)
		}
		n, err := strconv.Atoi(level)
		if err != nil {
			return Key{}, fmt.Errorf("%w: %q", ErrMalformedID, id)
		}
		parent, err := parseGroupKey(rest)
		if err != nil {
			return Key{}, err
		}
		if n != parent.Level+1 {
			return Key{}, fmt.Errorf("%w: level %d under level %d", ErrMalformedID, n, parent.Level)
		}
		return parent.AttributesChild(), nil
	}
	return parseGroupKey(id)
}

func parseGroupKey(id string) (Key, error) {
	segs := strings.Split(id, "/")
	values := segs[1:]

	want := RootID
	for i := range values {
		want = strconv.Itoa(i) + "-" + want
	}
	if segs[0] != want {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedID, id)
	}

	path := make([]string, len(values))
	for i, v := range values {
		dec, err := url.PathUnescape(v)
		if err != nil {
			return Key{}, fmt.Errorf("%w: %q: %v", ErrMalformedID, id, err)
		}
		path[i] = dec
	}
	if len(path) == 0 {
		return Root(), nil
	}
	return Key{Level: len(path) - 1, Path: path}, nil
}

// EdgeID returns the deterministic ID of the edge from source to target.
func EdgeID(source, target string) string {
	return "e-" + source + "-" + target
}
