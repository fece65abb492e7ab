package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxQueryLength bounds the size of a query string accepted from clients.
const MaxQueryLength = 64 * 1024

// ValidateQuery checks a query string before it is sent to the query
// service. The query itself is not parsed; only obviously broken input is
// rejected:
//   - No empty or whitespace-only queries
//   - No null bytes or control characters other than whitespace
//   - Maximum length of [MaxQueryLength] bytes
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return New(ErrCodeInvalidQuery, "query cannot be empty")
	}

	if len(query) > MaxQueryLength {
		return New(ErrCodeInvalidQuery, "query too long (max %d bytes)", MaxQueryLength)
	}

	for _, r := range query {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return New(ErrCodeInvalidQuery, "query contains invalid control characters")
		}
	}

	return nil
}

// ValidateHierarchy checks an ordered list of grouping keys. Keys must be
// non-empty and unique. When columns is non-empty, every key must also be
// one of the columns; an empty hierarchy is valid and clears the tree.
func ValidateHierarchy(keys, columns []string) error {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}

	seen := make(map[string]bool, len(keys))
	for i, k := range keys {
		if strings.TrimSpace(k) == "" {
			return New(ErrCodeInvalidHierarchy, "hierarchy key %d is empty", i)
		}
		if seen[k] {
			return New(ErrCodeInvalidHierarchy, "hierarchy key %q appears more than once", k)
		}
		seen[k] = true
		if len(columns) > 0 && !known[k] {
			return New(ErrCodeInvalidHierarchy, "hierarchy key %q is not a result column", k)
		}
	}
	return nil
}

// userIDRegex matches user identifiers: letters, digits and a few separators.
var userIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._@-]*$`)

// ValidateUserID validates the identifier under which settings are stored.
// IDs end up in file names and database keys, so they are kept conservative:
//   - No empty IDs
//   - Maximum length of 128 characters
//   - No path traversal sequences (..)
//   - Only letters, digits, '.', '_', '@' and '-'
func ValidateUserID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidUser, "user id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidUser, "user id too long (max 128 characters)")
	}

	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidUser, "user id cannot contain path traversal sequences (..)")
	}

	if !userIDRegex.MatchString(id) {
		return New(ErrCodeInvalidUser, "invalid user id: %q", id)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
