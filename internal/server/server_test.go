package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/observability"
	"github.com/matzehuels/lineage/pkg/query"
	"github.com/matzehuels/lineage/pkg/rows"
	"github.com/matzehuels/lineage/pkg/settings"
)

func sampleResult() rows.ResultSet {
	return rows.ResultSet{
		Columns: []string{"a", "b"},
		Rows: []rows.Row{
			{"a": "X", "b": "p"},
			{"a": "X", "b": "q"},
			{"a": "Y", "b": "p"},
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := settings.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fetch := query.FetcherFunc(func(_ context.Context, q string) (rows.ResultSet, error) {
		switch {
		case q == "":
			return rows.ResultSet{}, errors.New(errors.ErrCodeInvalidQuery, "query cannot be empty")
		case strings.Contains(q, "broken"):
			return rows.ResultSet{}, errors.New(errors.ErrCodeUpstream, "warehouse said no")
		}
		return sampleResult(), nil
	})
	return New(Options{
		Fetcher:  fetch,
		Settings: store,
		Logger:   log.New(io.Discard),
	})
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return v
}

func createSession(t *testing.T, s *Server, body any) sessionResponse {
	t.Helper()
	w := do(t, s, http.MethodPost, "/sessions", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: status %d, body %s", w.Code, w.Body)
	}
	return decode[sessionResponse](t, w)
}

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode[map[string]any](t, w)["status"]; got != "ok" {
		t.Errorf("status field = %v", got)
	}
}

func TestHealthReportsEvents(t *testing.T) {
	var counters observability.Counters
	observability.Register(counters.Hooks())
	t.Cleanup(observability.Reset)

	s := newTestServer(t)
	s.counters = &counters
	createSession(t, s, map[string]any{"query": "SELECT * FROM t", "hierarchy": []string{"a"}})

	events := decode[map[string]any](t, do(t, s, http.MethodGet, "/healthz", nil))["events"].(map[string]any)
	if n, _ := events["tree_mutations"].(float64); n < 1 {
		t.Errorf("tree_mutations = %v, want at least one", events["tree_mutations"])
	}
}

func TestData(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/data", map[string]string{"query": "SELECT * FROM t"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	rs := decode[rows.ResultSet](t, w)
	if len(rs.Columns) != 2 || len(rs.Rows) != 3 {
		t.Errorf("result = %+v", rs)
	}

	tests := []struct {
		name   string
		body   any
		status int
		code   errors.Code
	}{
		{"missing query", map[string]string{}, http.StatusBadRequest, errors.ErrCodeInvalidQuery},
		{"empty query", map[string]string{"query": ""}, http.StatusBadRequest, errors.ErrCodeInvalidQuery},
		{"upstream failure", map[string]string{"query": "broken"}, http.StatusBadGateway, errors.ErrCodeUpstream},
		{"not json", "{", http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/data", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if got := decode[errorResponse](t, w); got.Code != tt.code {
				t.Errorf("code = %q, want %q", got.Code, tt.code)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	created := createSession(t, s, map[string]any{
		"query":     "SELECT * FROM sales.orders",
		"hierarchy": []string{"a", "b"},
	})
	if created.ID == "" {
		t.Fatal("no session id")
	}
	if created.Graph.Title != "Orders Lineage" || len(created.Graph.Nodes) != 3 {
		t.Errorf("initial graph = %q with %d nodes", created.Graph.Title, len(created.Graph.Nodes))
	}
	base := "/sessions/" + created.ID

	// Expand X by label and level.
	w := do(t, s, http.MethodPost, base+"/click", map[string]any{"label": "X", "level": 0})
	click := decode[clickResponse](t, w)
	if !click.Changed || len(click.Graph.Nodes) != 4 {
		t.Fatalf("click X: changed=%v nodes=%d", click.Changed, len(click.Graph.Nodes))
	}
	if err := graph.Validate(click.Graph); err != nil {
		t.Errorf("graph invalid: %v", err)
	}

	// Unresolvable click changes nothing.
	w = do(t, s, http.MethodPost, base+"/click", map[string]any{"label": "Z", "level": 0})
	if click := decode[clickResponse](t, w); click.Changed {
		t.Error("unresolvable click reported a change")
	}

	// Collapse X by id.
	w = do(t, s, http.MethodPost, base+"/click", map[string]any{"id": "0-root/X"})
	if click := decode[clickResponse](t, w); !click.Changed || len(click.Graph.Nodes) != 3 {
		t.Errorf("collapse X: changed=%v nodes=%d", click.Changed, len(click.Graph.Nodes))
	}

	w = do(t, s, http.MethodGet, base+"/graph", nil)
	if g := decode[graph.Graph](t, w); len(g.Nodes) != 3 {
		t.Errorf("graph nodes = %d", len(g.Nodes))
	}

	w = do(t, s, http.MethodGet, base+"/columns", nil)
	cols := decode[map[string][]string](t, w)
	if len(cols["columns"]) != 2 || len(cols["hierarchy"]) != 2 {
		t.Errorf("columns = %v", cols)
	}

	w = do(t, s, http.MethodGet, base+"/dot?direction=TB&positioned=true", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "rankdir=TB;") {
		t.Errorf("dot: status %d body %s", w.Code, w.Body)
	}

	if w := do(t, s, http.MethodDelete, base, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, base+"/graph", nil); w.Code != http.StatusNotFound {
		t.Errorf("graph after delete status = %d", w.Code)
	}
}

func TestSessionHierarchy(t *testing.T) {
	s := newTestServer(t)
	created := createSession(t, s, map[string]string{"query": "SELECT 1"})
	if len(created.Graph.Nodes) != 0 {
		t.Fatalf("graph without hierarchy has %d nodes", len(created.Graph.Nodes))
	}
	base := "/sessions/" + created.ID

	w := do(t, s, http.MethodPut, base+"/hierarchy", hierarchyRequest{Keys: []string{"a"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body)
	}
	if g := decode[graph.Graph](t, w); len(g.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(g.Nodes))
	}

	w = do(t, s, http.MethodPut, base+"/hierarchy", hierarchyRequest{Keys: []string{"nope"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown key status = %d", w.Code)
	}
	if e := decode[errorResponse](t, w); e.Code != errors.ErrCodeInvalidHierarchy {
		t.Errorf("code = %q", e.Code)
	}
}

func TestSessionQueryFailureKeepsGraph(t *testing.T) {
	s := newTestServer(t)
	created := createSession(t, s, map[string]any{"query": "SELECT 1", "hierarchy": []string{"a"}})
	base := "/sessions/" + created.ID

	if w := do(t, s, http.MethodPost, base+"/query", map[string]string{"query": "broken"}); w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
	w := do(t, s, http.MethodGet, base+"/graph", nil)
	if g := decode[graph.Graph](t, w); len(g.Nodes) != 3 {
		t.Errorf("graph changed after failed fetch: %d nodes", len(g.Nodes))
	}

	w = do(t, s, http.MethodPost, base+"/query", map[string]string{"query": "SELECT * FROM crm.accounts"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode[sessionResponse](t, w); got.Graph.Title != "Accounts Lineage" {
		t.Errorf("title = %q", got.Graph.Title)
	}
}

func TestUnknownSession(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/sessions/does-not-exist/graph", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decode[errorResponse](t, w); e.Code != errors.ErrCodeSessionNotFound {
		t.Errorf("code = %q", e.Code)
	}
}

func TestClickNeedsTarget(t *testing.T) {
	s := newTestServer(t)
	created := createSession(t, s, map[string]string{"query": "SELECT 1"})
	w := do(t, s, http.MethodPost, "/sessions/"+created.ID+"/click", map[string]string{"label": "X"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestSettingsRoutes(t *testing.T) {
	s := newTestServer(t)

	if w := do(t, s, http.MethodGet, "/settings/alice", nil); w.Code != http.StatusNotFound {
		t.Fatalf("get missing status = %d", w.Code)
	}

	w := do(t, s, http.MethodPut, "/settings/alice", map[string]any{
		"query":     "SELECT * FROM t",
		"hierarchy": []string{"a", "b"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d body %s", w.Code, w.Body)
	}
	saved := decode[settings.Settings](t, w)
	if saved.User != "alice" || saved.UpdatedAt.IsZero() {
		t.Errorf("saved = %+v", saved)
	}

	w = do(t, s, http.MethodGet, "/settings/alice", nil)
	if got := decode[settings.Settings](t, w); got.Query != "SELECT * FROM t" || len(got.Hierarchy) != 2 {
		t.Errorf("got = %+v", got)
	}

	w = do(t, s, http.MethodGet, "/settings", nil)
	if all := decode[[]settings.Settings](t, w); len(all) != 1 {
		t.Errorf("list = %d entries", len(all))
	}

	w = do(t, s, http.MethodDelete, "/settings/alice", nil)
	if got := decode[map[string]bool](t, w); !got["deleted"] {
		t.Error("first delete reported nothing deleted")
	}
	w = do(t, s, http.MethodDelete, "/settings/alice", nil)
	if got := decode[map[string]bool](t, w); got["deleted"] {
		t.Error("second delete reported a deletion")
	}

	if w := do(t, s, http.MethodPut, "/settings/..", map[string]any{"query": "q"}); w.Code == http.StatusOK {
		t.Error("path traversal user id accepted")
	}
}

func TestSettingsDisabled(t *testing.T) {
	s := New(Options{Fetcher: query.FetcherFunc(nil), Logger: log.New(io.Discard)})
	if w := do(t, s, http.MethodGet, "/settings", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{errors.New(errors.ErrCodeInvalidHierarchy, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeSettingsNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{errors.New(errors.ErrCodeRateLimited, "x"), http.StatusTooManyRequests},
		{errors.New(errors.ErrCodeInvalidConfig, "x"), http.StatusServiceUnavailable},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := statusFor(tt.err); got != tt.status {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}
