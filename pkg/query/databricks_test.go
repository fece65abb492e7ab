package query

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/errors"
)

const okResponse = `{
	"statement_id": "01ef",
	"status": {"state": "SUCCEEDED"},
	"manifest": {"schema": {"columns": [{"name": "db"}, {"name": "tbl"}, {"name": "n"}]}},
	"result": {"data_array": [["sales", "orders", "3"], ["hr", null, "1"]]}
}`

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...ClientOption) *DatabricksClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewDatabricksClient(DatabricksConfig{
		Host:     srv.URL,
		HTTPPath: "/sql/1.0/warehouses/wh42",
		Token:    "secret",
	}, append([]ClientOption{WithRetry(3, time.Millisecond), WithClientLogger(log.New(io.Discard))}, opts...)...)
	if err != nil {
		t.Fatalf("NewDatabricksClient: %v", err)
	}
	return c
}

func TestDatabricksFetch(t *testing.T) {
	var got statementRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != statementsPath {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		io.WriteString(w, okResponse)
	})

	rs, err := c.Fetch(context.Background(), "SELECT * FROM t")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	want := statementRequest{
		Statement:     "SELECT * FROM t",
		WarehouseID:   "wh42",
		WaitTimeout:   "50s",
		OnWaitTimeout: "CANCEL",
		ResultFormat:  "JSON",
	}
	if got != want {
		t.Errorf("payload = %+v, want %+v", got, want)
	}

	if len(rs.Columns) != 3 || rs.Columns[1] != "tbl" {
		t.Errorf("Columns = %v", rs.Columns)
	}
	if len(rs.Rows) != 2 {
		t.Fatalf("Rows = %v", rs.Rows)
	}
	if v := rs.Rows[0].Value("tbl"); v != "orders" {
		t.Errorf("row 0 tbl = %q", v)
	}
	if v := rs.Rows[1].Value("tbl"); v != "null" {
		t.Errorf("null cell normalized to %q, want null", v)
	}
}

func TestDatabricksRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "warehouse starting", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, okResponse)
	})

	if _, err := c.Fetch(context.Background(), "SELECT 1"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestDatabricksErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode errors.Code
		calls    int32
	}{
		{"bad request", http.StatusBadRequest, `{"message":"syntax error"}`, errors.ErrCodeUpstream, 1},
		{"unauthorized", http.StatusUnauthorized, "", errors.ErrCodeUnauthorized, 1},
		{"server error exhausts retries", http.StatusBadGateway, "", errors.ErrCodeUpstream, 3},
		{"rate limited", http.StatusTooManyRequests, "", errors.ErrCodeRateLimited, 3},
		{"statement failed", http.StatusOK, `{"statement_id":"x","status":{"state":"FAILED","error":{"message":"TABLE_OR_VIEW_NOT_FOUND"}}}`, errors.ErrCodeUpstream, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := c.Fetch(context.Background(), "SELECT * FROM missing")
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("err = %v, want code %s", err, tt.wantCode)
			}
			if n := calls.Load(); n != tt.calls {
				t.Errorf("calls = %d, want %d", n, tt.calls)
			}
		})
	}
}

func TestDatabricksRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, okResponse)
	}, WithRateLimit(0.001))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := c.Fetch(ctx, "SELECT 1"); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	if _, err := c.Fetch(ctx, "SELECT 1"); !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("second Fetch err = %v, want TIMEOUT", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestDatabricksRejectsEmptyQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty query")
	})
	if _, err := c.Fetch(context.Background(), "  "); !errors.Is(err, errors.ErrCodeInvalidQuery) {
		t.Errorf("err = %v, want INVALID_QUERY", err)
	}
}

func TestDatabricksConfig(t *testing.T) {
	cfg := DatabricksConfig{Host: "adb-1.azuredatabricks.net/", HTTPPath: "/sql/1.0/warehouses/abc/"}
	if got := cfg.WarehouseID(); got != "abc" {
		t.Errorf("WarehouseID = %q", got)
	}
	if got := cfg.BaseURL(); got != "https://adb-1.azuredatabricks.net/api/2.0/sql/statements" {
		t.Errorf("BaseURL = %q", got)
	}
	if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("missing token: err = %v", err)
	}
}
