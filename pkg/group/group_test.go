package group

import (
	"slices"
	"testing"

	"github.com/matzehuels/lineage/pkg/rows"
)

var sample = []rows.Row{
	{"a": "X", "b": "p", "c": "1"},
	{"a": "X", "b": "q", "c": "2"},
	{"a": "Y", "b": "p", "c": "3"},
	{"a": nil, "b": "r", "c": "4"},
	{"a": "null", "b": "s", "c": "5"},
	{"a": "X", "b": "", "c": "6"},
}

var keys = []string{"a", "b", "c"}

func TestDistinctValues(t *testing.T) {
	got := DistinctValues(sample, "a")
	want := []string{"X", "Y", rows.Null}
	if !slices.Equal(got, want) {
		t.Errorf("DistinctValues = %v, want %v", got, want)
	}
}

func TestDistinctValuesSkipsEmpty(t *testing.T) {
	got := DistinctValues(sample, "b")
	if slices.Contains(got, "") {
		t.Errorf("DistinctValues should skip empty values: %v", got)
	}
}

func TestCountDistinctChildren(t *testing.T) {
	tests := []struct {
		name     string
		ancestry []string
		pk, pv   string
		ck       string
		want     int
	}{
		{"root level X", nil, "a", "X", "b", 2},
		{"root level Y", nil, "a", "Y", "b", 1},
		{"null groups together", nil, "a", rows.Null, "b", 2},
		{"with ancestry", []string{"X"}, "b", "p", "c", 1},
		{"ancestry mismatch", []string{"Y"}, "b", "q", "c", 0},
		{"unknown parent", nil, "a", "Z", "b", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountDistinctChildren(sample, keys, tt.ancestry, tt.pk, tt.pv, tt.ck)
			if got != tt.want {
				t.Errorf("CountDistinctChildren = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	got := Filter(sample, keys, []string{"X", "p"})
	if len(got) != 1 || got[0]["c"] != "1" {
		t.Errorf("Filter = %v", got)
	}
	if n := len(Filter(sample, keys, nil)); n != len(sample) {
		t.Errorf("empty ancestry should match all rows, got %d", n)
	}
	if n := len(Filter(sample, keys[:1], []string{"X", "p"})); n != 0 {
		t.Errorf("ancestry deeper than keys should match nothing, got %d", n)
	}
}
