package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Soheybfa/cities-api/pkg/catalog"
	"github.com/Soheybfa/cities-api/pkg/config"
	"github.com/Soheybfa/cities-api/pkg/query"
	"github.com/Soheybfa/cities-api/pkg/store"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	kv := store.NewMemoryStore()

	loader := catalog.NewLoader(kv, 0)
	_, err := loader.Load(context.Background(), strings.NewReader(`[
		{"id":1,"name":"Shanghai","country":"CN"},
		{"id":2,"name":"Shanghai","country":"CN"},
		{"id":3,"name":"Sharjah","country":"AE"}
	]`))
	require.NoError(t, err)

	engine := query.NewEngine(kv, query.WithHotCache(64))
	return NewHTTPHandler(engine, kv, config.DefaultConfig().Server)
}

func doGet(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHTTPSearch(t *testing.T) {
	handler := newTestHandler(t)

	rec := doGet(t, handler, "/search?q=sh&limit=10")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Query   string            `json:"query"`
		Count   int               `json:"count"`
		Results []json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "sh", body.Query)
	assert.Equal(t, 3, body.Count)
	assert.Len(t, body.Results, 3)
}

func TestHTTPSearchDefaultLimit(t *testing.T) {
	handler := newTestHandler(t)

	rec := doGet(t, handler, "/search?q=shanghai")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}

func TestHTTPSearchMissingQuery(t *testing.T) {
	handler := newTestHandler(t)

	for _, target := range []string{"/search", "/search?q=", "/search?q=%20%20"} {
		rec := doGet(t, handler, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
		assert.Contains(t, rec.Body.String(), `Query parameter \"q\" required`)
	}
}

func TestHTTPSearchBadLimit(t *testing.T) {
	handler := newTestHandler(t)

	rec := doGet(t, handler, "/search?q=sh&limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPSearchOverlongQuery(t *testing.T) {
	handler := newTestHandler(t)

	rec := doGet(t, handler, "/search?q="+strings.Repeat("a", 200))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPAutocomplete(t *testing.T) {
	handler := newTestHandler(t)

	rec := doGet(t, handler, "/autocomplete?q=sha&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Query       string   `json:"query"`
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "sha", body.Query)
	assert.ElementsMatch(t, []string{"Shanghai", "Shanghai", "Sharjah"}, body.Suggestions)
}

func TestHTTPCityByID(t *testing.T) {
	handler := newTestHandler(t)

	rec := doGet(t, handler, "/city/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Shanghai","country":"CN"}`, rec.Body.String())
}

func TestHTTPCityNotFound(t *testing.T) {
	handler := newTestHandler(t)

	for _, target := range []string{"/city/999", "/city/abc"} {
		rec := doGet(t, handler, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, "target %s", target)
		assert.Contains(t, rec.Body.String(), "City not found")
	}
}

func TestHTTPHealth(t *testing.T) {
	handler := newTestHandler(t)

	rec := doGet(t, handler, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status    string `json:"status"`
		Store     string `json:"store"`
		TotalKeys int64  `json:"total_keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "connected", body.Store)
	assert.Positive(t, body.TotalKeys)
}

func TestHTTPIndex(t *testing.T) {
	handler := newTestHandler(t)

	rec := doGet(t, handler, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/search")
	assert.Contains(t, rec.Body.String(), "/autocomplete")
}
