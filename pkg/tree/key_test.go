package tree

import (
	"errors"
	"reflect"
	"testing"
)

func TestKeyString(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{"root", Root(), "root"},
		{"level 0", Root().Child("X"), "0-root/X"},
		{"level 1", Root().Child("X").Child("p"), "1-0-root/X/p"},
		{"escaped", Root().Child("a/b c"), "0-root/a%2Fb%20c"},
		{"attributes under level 0", Root().Child("X").AttributesChild(), "1-0-root/X#attributes"},
		{"attributes under root", Root().AttributesChild(), "0-root#attributes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseKeyRoundTrip(t *testing.T) {
	values := [][]string{
		nil,
		{"X"},
		{"X", "p"},
		{"a/b", "c#d", "50%", "two words"},
		{"null", "", "0-root"},
		{"ünïcødé", "x-y-z"},
	}
	for _, path := range values {
		k := Root()
		for _, v := range path {
			k = k.Child(v)
		}
		for _, key := range []Key{k, k.AttributesChild()} {
			id := key.String()
			got, err := ParseKey(id)
			if err != nil {
				t.Fatalf("ParseKey(%q): %v", id, err)
			}
			if got.Level != key.Level || got.Attributes != key.Attributes || !reflect.DeepEqual(got.Ancestry(), key.Ancestry()) {
				t.Errorf("ParseKey(%q) = %+v, want %+v", id, got, key)
			}
		}
	}
}

func TestParseKeyMalformed(t *testing.T) {
	for _, id := range []string{
		"",
		"node",
		"1-root/X",
		"0-root/X/p",
		"x-root#attributes",
		"2-0-root/X#attributes",
		"0-root/%zz",
	} {
		if _, err := ParseKey(id); !errors.Is(err, ErrMalformedID) {
			t.Errorf("ParseKey(%q) err = %v, want ErrMalformedID", id, err)
		}
	}
}

func TestKeyParent(t *testing.T) {
	k := Root().Child("X").Child("p")
	p, ok := k.Parent()
	if !ok || p.String() != "0-root/X" {
		t.Errorf("Parent() = %v, %v", p, ok)
	}
	a := k.AttributesChild()
	p, ok = a.Parent()
	if !ok || p.String() != k.String() {
		t.Errorf("attributes Parent() = %v, %v", p, ok)
	}
	if _, ok := Root().Parent(); ok {
		t.Error("root should have no parent")
	}
}

func TestEdgeID(t *testing.T) {
	if got := EdgeID("root", "0-root/X"); got != "e-root-0-root/X" {
		t.Errorf("EdgeID = %q", got)
	}
}
