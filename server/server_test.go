package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/listingrec/catalog"
	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/feature"
	"github.com/rushteam/listingrec/recommend"
	"github.com/rushteam/listingrec/weights"
)

func testListings() []*core.Listing {
	return []*core.Listing{
		{ID: 1, Name: "Canal loft", Price: core.Some(100.0), RoomType: "Entire home/apt", Neighbourhood: "Centrum"},
		{ID: 2, Name: "Loft two", Price: core.Some(120.0), RoomType: "Entire home/apt", Neighbourhood: "Centrum"},
		{ID: 3, Name: "Loft three", Price: core.Some(80.0), RoomType: "Entire home/apt", Neighbourhood: "Oost"},
		{ID: 4, Name: "Room", Price: core.Some(100.0), RoomType: "Private room", Neighbourhood: "Oost"},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	w, err := weights.FromMap(map[string]float64{"price": 0.5, "room_type": 0.5})
	require.NoError(t, err)
	m, err := weights.NewManager(w)
	require.NoError(t, err)
	engine := recommend.NewEngine(catalog.NewCached(catalog.NewMemory(testListings()...)), m)
	ts := httptest.NewServer(New(engine, Config{}).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, []byte(buf.String())
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t)

	status, body := do(t, ts, http.MethodGet, "/api/recommendations/search?q=loft", "")
	require.Equal(t, http.StatusOK, status)
	got := decode[[]core.Summary](t, body)
	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].ID)

	status, body = do(t, ts, http.MethodGet, "/api/recommendations/search?q=", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, body = do(t, ts, http.MethodGet, "/api/recommendations/search?q=loft&limit=1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]core.Summary](t, body), 1)

	status, _ = do(t, ts, http.MethodGet, "/api/recommendations/search?q=loft&limit=0", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, ts, http.MethodGet, "/api/recommendations/search?q=loft&limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRecommend(t *testing.T) {
	ts := newTestServer(t)

	status, body := do(t, ts, http.MethodGet, "/api/recommendations/1", "")
	require.Equal(t, http.StatusOK, status)
	got := decode[[]recommend.Result](t, body)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ListingID)
	assert.Equal(t, int64(3), got[1].ListingID)
	assert.InDelta(t, 0.99, got[0].Score, 1e-9)

	status, body = do(t, ts, http.MethodGet, "/api/recommendations/1?limit=1&explain=true", "")
	require.Equal(t, http.StatusOK, status)
	got = decode[[]recommend.Result](t, body)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].Breakdown)

	status, body = do(t, ts, http.MethodGet, "/api/recommendations/1?threshold=1", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestRecommend_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"unknown listing", "/api/recommendations/999", http.StatusNotFound, core.ErrorCodeNotFound},
		{"bad id", "/api/recommendations/abc", http.StatusBadRequest, core.ErrorCodeInvalidInput},
		{"limit zero", "/api/recommendations/1?limit=0", http.StatusBadRequest, core.ErrorCodeInvalidInput},
		{"limit too large", "/api/recommendations/1?limit=101", http.StatusBadRequest, core.ErrorCodeInvalidInput},
		{"threshold above one", "/api/recommendations/1?threshold=1.5", http.StatusBadRequest, core.ErrorCodeInvalidInput},
		{"threshold not a number", "/api/recommendations/1?threshold=x", http.StatusBadRequest, core.ErrorCodeInvalidInput},
		{"bad filter", "/api/recommendations/1?filter=listing.price%20%3C%3D", http.StatusBadRequest, core.ErrorCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, ts, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, decode[errorBody](t, body).Code)
		})
	}
}

func TestListingDetail(t *testing.T) {
	ts := newTestServer(t)

	status, body := do(t, ts, http.MethodGet, "/api/recommendations/listing/3", "")
	require.Equal(t, http.StatusOK, status)
	l := decode[core.Listing](t, body)
	assert.Equal(t, "Loft three", l.Name)

	status, body = do(t, ts, http.MethodGet, "/api/recommendations/listing/42", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Listing not found", decode[errorBody](t, body).Error)
}

func TestWeights(t *testing.T) {
	ts := newTestServer(t)

	status, body := do(t, ts, http.MethodGet, "/api/recommendations/weights", "")
	require.Equal(t, http.StatusOK, status)
	before := decode[map[string]float64](t, body)
	assert.InDelta(t, 0.5, before["price"], 1e-9)
	assert.Len(t, before, len(core.Features()))

	status, body = do(t, ts, http.MethodPost, "/api/recommendations/weights", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No weights provided", decode[errorBody](t, body).Error)

	status, _ = do(t, ts, http.MethodPost, "/api/recommendations/weights", "{}")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, ts, http.MethodPost, "/api/recommendations/weights", "[1,2")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, ts, http.MethodPost, "/api/recommendations/weights", `{"price":0.5,"location":0.3,"room_type":0.3}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, core.ErrorCodeInvalidConfig, decode[errorBody](t, body).Code)

	_, body = do(t, ts, http.MethodGet, "/api/recommendations/weights", "")
	assert.Equal(t, before, decode[map[string]float64](t, body))

	status, body = do(t, ts, http.MethodPost, "/api/recommendations/weights", `{"price":0.6,"location":0.4}`)
	require.Equal(t, http.StatusOK, status)
	updated := decode[weightsUpdatedBody](t, body)
	assert.Equal(t, "Weights updated successfully", updated.Message)
	assert.InDelta(t, 0.6, updated.Weights["price"], 1e-9)
	assert.InDelta(t, 0.0, updated.Weights["room_type"], 1e-9)

	_, body = do(t, ts, http.MethodGet, "/api/recommendations/weights", "")
	assert.InDelta(t, 0.4, decode[map[string]float64](t, body)["location"], 1e-9)
}

func TestRefreshHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	status, body := do(t, ts, http.MethodPost, "/api/recommendations/catalog/refresh", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 4, decode[refreshBody](t, body).Listings)

	status, body = do(t, ts, http.MethodGet, "/api/recommendations/catalog/stats", "")
	require.Equal(t, http.StatusOK, status)
	stats := decode[[]feature.Stats](t, body)
	require.Len(t, stats, len(core.Features()))
	assert.Equal(t, "price", stats[0].Feature)
	assert.Equal(t, 4, stats[0].Present)

	status, _ = do(t, ts, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, status)

	status, body = do(t, ts, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "listingrec_api_requests_total")
}

// unavailableEngine 模拟目录存储不可达
type unavailableEngine struct {
	Engine
}

func (unavailableEngine) Search(context.Context, string, int) ([]core.Summary, error) {
	return nil, core.Unavailable(core.ModuleCatalog, context.DeadlineExceeded)
}

func (unavailableEngine) Recommend(context.Context, recommend.Request) ([]recommend.Result, error) {
	return nil, core.Unavailable(core.ModuleCatalog, context.DeadlineExceeded)
}

func (unavailableEngine) ListingDetail(context.Context, int64) (*core.Listing, error) {
	return nil, core.Unavailable(core.ModuleCatalog, context.DeadlineExceeded)
}

func (unavailableEngine) RefreshCatalog(context.Context) (int, error) {
	return 0, core.Unavailable(core.ModuleCatalog, context.DeadlineExceeded)
}

func TestUnavailableMapsTo503(t *testing.T) {
	ts := httptest.NewServer(New(unavailableEngine{}, Config{}).Handler())
	defer ts.Close()

	for _, path := range []string{
		"/api/recommendations/search?q=loft",
		"/api/recommendations/1",
		"/api/recommendations/listing/1",
	} {
		status, body := do(t, ts, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, status, path)
		assert.Equal(t, core.ErrorCodeUnavailable, decode[errorBody](t, body).Code)
	}
	status, _ := do(t, ts, http.MethodPost, "/api/recommendations/catalog/refresh", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusOf(core.ErrListingNotFound))
	assert.Equal(t, http.StatusBadRequest, statusOf(core.NewInvalidConfig("x")))
	assert.Equal(t, http.StatusBadRequest, statusOf(core.NewInvalidInput(core.ModuleSearch, "x")))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(core.ErrUpstreamUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusOf(context.Canceled))
}
