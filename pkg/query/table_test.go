package query

import "testing"

func TestExtractTableName(t *testing.T) {
	tests := []struct {
		query string
		want  string
		ok    bool
	}{
		{"SELECT * FROM main.sales.orders", "orders", true},
		{"select a from   orders;", "orders", true},
		{"SELECT * FROM orders WHERE x = 1", "orders", true},
		{"SELECT *\nFROM\n\tcatalog.schema.customer_events LIMIT 10", "customer_events", true},
		{"SELECT * FROM a JOIN b ON a.id = b.id", "a", true},
		{"SELECT 1", "", false},
		{"SELECT * FROM trailing.", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := ExtractTableName(tt.query)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ExtractTableName() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFormatTableName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"orders", "Orders"},
		{"customer_orders_v2", "Customer Orders V2"},
		{"__weird--name__", "Weird Name"},
		{"camelCase", "CamelCase"},
		{"`quoted`", "Quoted"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatTableName(tt.in); got != tt.want {
			t.Errorf("FormatTableName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRootLabel(t *testing.T) {
	tests := []struct {
		query, want string
	}{
		{"SELECT * FROM main.sales.customer_orders", "Customer Orders Lineage"},
		{"SELECT 1", "Lineage Root"},
		{"SELECT * FROM ___", "Lineage Root"},
	}
	for _, tt := range tests {
		if got := RootLabel(tt.query); got != tt.want {
			t.Errorf("RootLabel(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}
