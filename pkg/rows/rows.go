package rows

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Null is the normalized form of an absent or null value.
const Null = "null"

// Row maps a column name to a scalar value: string, number, bool or nil.
type Row map[string]any

// Value returns the normalized value of column key. Missing columns normalize
// to [Null], exactly like explicit nulls.
func (r Row) Value(key string) string {
	return Normalize(r[key])
}

// ResultSet is the payload exchanged with the row-fetch service.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of rows.
func (rs ResultSet) Len() int { return len(rs.Rows) }

// HasColumn reports whether name is one of the result's columns.
func (rs ResultSet) HasColumn(name string) bool {
	for _, c := range rs.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Normalize converts a scalar cell value to the string used for grouping and
// equality. nil becomes [Null]; integral floats print without a fraction.
func Normalize(v any) string {
	switch x := v.(type) {
	case nil:
		return Null
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Decode reads a JSON result set. Numbers are kept as [json.Number] so that
// their text form survives normalization unchanged.
func Decode(r io.Reader) (ResultSet, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var rs ResultSet
	if err := dec.Decode(&rs); err != nil {
		return ResultSet{}, fmt.Errorf("decode result set: %w", err)
	}
	if rs.Rows == nil {
		rs.Rows = []Row{}
	}
	return rs, nil
}

// Unmarshal decodes a JSON result set from data.
func Unmarshal(data []byte) (ResultSet, error) {
	return Decode(bytes.NewReader(data))
}

// Encode writes rs as indented JSON.
func Encode(w io.Writer, rs ResultSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rs)
}
