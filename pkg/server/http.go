/*
Package server exposes the query engine over two transports: a JSON HTTP API
and a MessagePack IPC loop on stdin/stdout.

Both transports do the same request validation and delegate everything else
to the query engine; neither holds state of its own beyond the store handle
used for health reporting.
*/
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/Soheybfa/cities-api/pkg/config"
	"github.com/Soheybfa/cities-api/pkg/query"
	"github.com/Soheybfa/cities-api/pkg/store"
)

type httpServer struct {
	engine       *query.Engine
	kv           store.KV
	defaultLimit int
	maxQueryLen  int
}

// NewHTTPHandler builds the HTTP routing for the search API.
func NewHTTPHandler(engine *query.Engine, kv store.KV, cfg config.ServerConfig) http.Handler {
	s := &httpServer{
		engine:       engine,
		kv:           kv,
		defaultLimit: cfg.DefaultLimit,
		maxQueryLen:  cfg.MaxQueryLen,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /autocomplete", s.handleAutocomplete)
	mux.HandleFunc("GET /city/{id}", s.handleCity)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	return mux
}

// handleSearch serves GET /search?q=shang&limit=10.
func (s *httpServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, limit, ok := s.queryParams(w, r)
	if !ok {
		return
	}

	result, err := s.engine.Search(r.Context(), q, limit)
	if err != nil {
		s.queryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAutocomplete serves GET /autocomplete?q=sh&limit=10, names only.
func (s *httpServer) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	q, limit, ok := s.queryParams(w, r)
	if !ok {
		return
	}

	suggestions, err := s.engine.Autocomplete(r.Context(), q, limit)
	if err != nil {
		s.queryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// handleCity serves GET /city/{id}. A non-numeric id never matches a
// record, so it reports not-found rather than a distinct error.
func (s *httpServer) handleCity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "City not found")
		return
	}

	record, err := s.engine.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "City not found")
		return
	}
	if err != nil {
		log.Errorf("fetching city %d: %v", id, err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(record)
}

// handleHealth reports liveness of the service and its store.
func (s *httpServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.kv.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "error",
			"store":  "disconnected",
			"error":  err.Error(),
		})
		return
	}
	totalKeys, err := s.kv.DBSize(r.Context())
	if err != nil {
		log.Warnf("counting keys: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"store":      "connected",
		"total_keys": totalKeys,
	})
}

// handleIndex documents the API surface.
func (s *httpServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name": "City Search API",
		"endpoints": map[string]string{
			"/search":       "Search cities by name prefix (e.g. /search?q=shanghai&limit=10)",
			"/autocomplete": "Fast name autocomplete (e.g. /autocomplete?q=sh)",
			"/city/{id}":    "Get city by ID (e.g. /city/1796236)",
			"/health":       "Health check",
		},
	})
}

// queryParams validates the q and limit parameters shared by search and
// autocomplete. On failure it has already written the client error.
func (s *httpServer) queryParams(w http.ResponseWriter, r *http.Request) (q string, limit int, ok bool) {
	params := r.URL.Query()

	q = params.Get("q")
	if s.maxQueryLen > 0 && len(q) > s.maxQueryLen {
		writeError(w, http.StatusBadRequest, "query exceeds maximum length")
		return "", 0, false
	}

	limit = s.defaultLimit
	if raw := params.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, `Parameter "limit" must be an integer`)
			return "", 0, false
		}
		limit = parsed
	}
	return q, limit, true
}

// queryError maps engine failures onto HTTP statuses: blank queries are the
// caller's fault, anything else at this point is the store.
func (s *httpServer) queryError(w http.ResponseWriter, err error) {
	if errors.Is(err, query.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, `Query parameter "q" required`)
		return
	}
	log.Errorf("query failed: %v", err)
	writeError(w, http.StatusServiceUnavailable, "store unavailable")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
