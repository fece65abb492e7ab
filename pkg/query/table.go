package query

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matzehuels/lineage/pkg/tree"
)

var fromClause = regexp.MustCompile(`(?i)FROM\s+([^\s;]+)`)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// ExtractTableName returns the last dot-separated segment of the first
// FROM target in query, e.g. "orders" for "SELECT * FROM main.sales.orders".
func ExtractTableName(query string) (string, bool) {
	m := fromClause.FindStringSubmatch(query)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name, name != ""
}

// FormatTableName humanizes a table name: it splits on runs of
// non-alphanumeric characters and upper-cases the first letter of each word.
//
//	FormatTableName("customer_orders_v2") == "Customer Orders V2"
func FormatTableName(name string) string {
	words := nonAlnum.Split(name, -1)
	out := words[:0]
	for _, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		out = append(out, string(unicode.ToUpper(r))+w[size:])
	}
	return strings.Join(out, " ")
}

// RootLabel derives the root node's label from a query: the humanized table
// name followed by " Lineage", or [tree.DefaultRootLabel] when the query has
// no FROM clause.
func RootLabel(query string) string {
	name, ok := ExtractTableName(query)
	if !ok {
		return tree.DefaultRootLabel
	}
	formatted := FormatTableName(name)
	if formatted == "" {
		return tree.DefaultRootLabel
	}
	return formatted + " Lineage"
}
