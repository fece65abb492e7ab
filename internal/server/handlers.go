package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/lineage/pkg/buildinfo"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/explorer"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/render/nodelink"
	"github.com/matzehuels/lineage/pkg/session"
	"github.com/matzehuels/lineage/pkg/settings"
)

// =============================================================================
// Request and response bodies
// =============================================================================

type queryRequest struct {
	Query *string `json:"query"`
}

type createSessionRequest struct {
	Query     *string  `json:"query"`
	Hierarchy []string `json:"hierarchy,omitempty"`
}

type sessionResponse struct {
	ID      string      `json:"id"`
	Columns []string    `json:"columns"`
	Graph   graph.Graph `json:"graph"`
}

type hierarchyRequest struct {
	Keys []string `json:"keys"`
}

// clickRequest addresses a node either by id or by label and level.
type clickRequest struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label,omitempty"`
	Level *int   `json:"level,omitempty"`
}

type clickResponse struct {
	Changed bool        `json:"changed"`
	Graph   graph.Graph `json:"graph"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// =============================================================================
// Health and data
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	}
	if s.counters != nil {
		resp["events"] = s.counters.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleData runs a query and returns the raw result set.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Query == nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidQuery, "No query provided"))
		return
	}

	rs, err := s.fetcher.Fetch(r.Context(), *req.Query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Query == nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidQuery, "No query provided"))
		return
	}

	rs, err := s.fetcher.Fetch(r.Context(), *req.Query)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ex := explorer.New(explorer.WithLogger(s.logger), explorer.WithLayout(s.layout))
	ex.Load(rs, *req.Query)
	if len(req.Hierarchy) > 0 {
		if err := ex.ApplyHierarchy(req.Hierarchy); err != nil {
			s.writeError(w, err)
			return
		}
	}

	sess := session.New(ex, s.sessionTTL)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("session created", "id", sess.ID, "rows", rs.Len(), "columns", len(rs.Columns))

	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:      sess.ID,
		Columns: ex.Columns(),
		Graph:   ex.Graph(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.explorer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ex.Graph())
}

// handleDOT renders the session graph as DOT. Query parameters: direction
// (LR|TB), positioned and detailed (booleans).
func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.explorer(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	dir, err := layout.ParseDirection(q.Get("direction"))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "direction"))
		return
	}
	opts := nodelink.Options{
		Direction:  dir,
		Positioned: boolParam(q.Get("positioned")),
		Detailed:   boolParam(q.Get("detailed")),
	}

	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, nodelink.ToDOT(ex.Graph(), opts))
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.explorer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"columns":   ex.Columns(),
		"hierarchy": ex.Keys(),
	})
}

func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.explorer(w, r)
	if !ok {
		return
	}
	var req hierarchyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := ex.ApplyHierarchy(req.Keys); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ex.Graph())
}

// handleClick toggles a node. Unresolvable clicks are not errors: the
// response reports changed=false with the unchanged graph.
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.explorer(w, r)
	if !ok {
		return
	}
	var req clickRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	var changed bool
	switch {
	case req.ID != "":
		changed = ex.Toggle(req.ID)
	case req.Level != nil:
		changed = ex.Click(req.Label, *req.Level)
	default:
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "click needs an id or a label and level"))
		return
	}
	writeJSON(w, http.StatusOK, clickResponse{Changed: changed, Graph: ex.Graph()})
}

// handleQuery runs a new query inside an existing session. A failed fetch
// leaves the session's graph as it was.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.explorer(w, r)
	if !ok {
		return
	}
	var req queryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Query == nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidQuery, "No query provided"))
		return
	}

	rs, err := s.fetcher.Fetch(r.Context(), *req.Query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ex.Load(rs, *req.Query)
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:      chi.URLParam(r, "id"),
		Columns: ex.Columns(),
		Graph:   ex.Graph(),
	})
}

func (s *Server) explorer(w http.ResponseWriter, r *http.Request) (*explorer.Explorer, bool) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return sess.Explorer, true
}

// =============================================================================
// Settings
// =============================================================================

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	all, err := s.settings.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	got, err := s.settings.Get(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var in settings.Settings
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	in.User = chi.URLParam(r, "user")

	saved, err := s.settings.Save(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteSettings(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.settings.Delete(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// =============================================================================
// Helpers
// =============================================================================

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "status", status, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: code})
}

// statusFor maps an error to its HTTP status and wire code.
func statusFor(err error) (int, errors.Code) {
	switch {
	case stderrors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, errors.ErrCodeSessionNotFound
	case stderrors.Is(err, session.ErrExpired):
		return http.StatusGone, errors.ErrCodeSessionNotFound
	}

	code := errors.GetCode(err)
	if code == "" {
		return http.StatusInternalServerError, errors.ErrCodeInternal
	}
	return code.Status(), code
}
