package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/listingrec/catalog"
	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/weights"
)

// 权重只看价格与房型：分数完全由这两个字段决定，方便推算期望值
func priceRoomManager(t *testing.T) *weights.Manager {
	t.Helper()
	m, err := weights.NewManager(mustWeights(t, map[string]float64{"price": 0.5, "room_type": 0.5}))
	require.NoError(t, err)
	return m
}

func mustWeights(t *testing.T, m map[string]float64) core.Weights {
	t.Helper()
	w, err := weights.FromMap(m)
	require.NoError(t, err)
	return w
}

func testListings() []*core.Listing {
	return []*core.Listing{
		{ID: 1, Name: "Canal loft", Price: core.Some(100.0), RoomType: "Entire home/apt", Neighbourhood: "Centrum"},
		{ID: 2, Name: "Loft two", Price: core.Some(120.0), RoomType: "Entire home/apt", Neighbourhood: "Centrum"}, // 0.99
		{ID: 3, Name: "Loft three", Price: core.Some(80.0), RoomType: "Entire home/apt", Neighbourhood: "Oost"},  // 0.99
		{ID: 4, Name: "Room", Price: core.Some(100.0), RoomType: "Private room", Neighbourhood: "Oost"},          // 0.5
		{ID: 5, Name: "Pricey", Price: core.Some(700.0), RoomType: "Entire home/apt", Neighbourhood: "Centrum"},  // 0.7
		{ID: 6, Name: "Unknown price", RoomType: "entire home/apt", Neighbourhood: "Centrum"},                     // 0.75
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cached := catalog.NewCached(catalog.NewMemory(testListings()...))
	return NewEngine(cached, priceRoomManager(t), WithScoring(2, 4))
}

func resultIDs(rs []Result) []int64 {
	out := make([]int64, len(rs))
	for i, r := range rs {
		out[i] = r.ListingID
	}
	return out
}

func TestRecommend_OrderThresholdAndSelfExclusion(t *testing.T) {
	e := newTestEngine(t)
	req := NewRequest(1)

	got, err := e.Recommend(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 6, 5}, resultIDs(got))
	assert.InDelta(t, 0.99, got[0].Score, 1e-9)
	assert.InDelta(t, 0.75, got[2].Score, 1e-9)
	assert.InDelta(t, 0.7, got[3].Score, 1e-9)
	for i, r := range got {
		assert.NotEqual(t, int64(1), r.ListingID)
		assert.GreaterOrEqual(t, r.Score, req.Threshold)
		assert.Nil(t, r.Breakdown)
		require.NotNil(t, r.Listing)
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Score, r.Score)
		}
	}
}

func TestRecommend_MaxResults(t *testing.T) {
	e := newTestEngine(t)
	req := NewRequest(1)
	req.MaxResults = 2
	req.Threshold = 0

	got, err := e.Recommend(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, resultIDs(got))
}

func TestRecommend_ThresholdOneKeepsOnlyPerfectMatches(t *testing.T) {
	e := newTestEngine(t)
	req := NewRequest(1)
	req.Threshold = 1

	got, err := e.Recommend(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecommend_SingleListingCatalog(t *testing.T) {
	cached := catalog.NewCached(catalog.NewMemory(&core.Listing{ID: 1}))
	e := NewEngine(cached, nil)
	got, err := e.Recommend(context.Background(), Request{ListingID: 1, MaxResults: 5, Threshold: 0})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecommend_NotFound(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Recommend(context.Background(), NewRequest(999))
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
	assert.ErrorIs(t, err, core.ErrListingNotFound)
}

func TestRecommend_InvalidParameters(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name string
		mod  func(r *Request)
		msg  string
	}{
		{"zero results", func(r *Request) { r.MaxResults = 0 }, "max_results"},
		{"too many results", func(r *Request) { r.MaxResults = 101 }, "max_results"},
		{"negative threshold", func(r *Request) { r.Threshold = -0.1 }, "threshold"},
		{"threshold above one", func(r *Request) { r.Threshold = 1.5 }, "threshold"},
		{"negative cap", func(r *Request) { r.MaxPerNeighbourhood = -1 }, "max_per_neighbourhood"},
		{"bad filter", func(r *Request) { r.Filter = "listing.price <" }, "filter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewRequest(1)
			tt.mod(&req)
			_, err := e.Recommend(context.Background(), req)
			require.Error(t, err)
			assert.True(t, core.IsInvalidInput(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestRecommend_FilterAndDiversity(t *testing.T) {
	e := newTestEngine(t)

	req := NewRequest(1)
	req.Filter = `listing.price != null && listing.price < 500.0`
	got, err := e.Recommend(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, resultIDs(got))

	req = NewRequest(1)
	req.MaxPerNeighbourhood = 1
	got, err = e.Recommend(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, resultIDs(got))
}

func TestRecommend_Explain(t *testing.T) {
	e := newTestEngine(t)
	req := NewRequest(1)
	req.Explain = true
	got, err := e.Recommend(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.InDelta(t, 0.49, got[0].Breakdown["price"], 1e-9)
	assert.InDelta(t, 0.5, got[0].Breakdown["room_type"], 1e-9)
	assert.Equal(t, "recall:weighted", got[0].Trace["recall_source"])
	assert.Equal(t, "rank:1", got[0].Trace["rank_position"])
}

func TestRecommend_SnapshotWeightsPerRequest(t *testing.T) {
	e := newTestEngine(t)
	a := map[string]any{"price": 1.0}
	b := map[string]any{"room_type": 1.0}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if i%2 == 0 {
				_, _ = e.SetWeights(a)
			} else {
				_, _ = e.SetWeights(b)
			}
		}
	}()
	for i := 0; i < 100; i++ {
		req := NewRequest(4)
		req.Threshold = 0
		got, err := e.Recommend(context.Background(), req)
		require.NoError(t, err)
		for _, r := range got {
			// 纯价格或纯房型权重下，每个结果都由同一份权重算出
			assert.GreaterOrEqual(t, r.Score, 0.0)
			assert.LessOrEqual(t, r.Score, 1.0)
		}
	}
	wg.Wait()
}

func TestEngine_Weights(t *testing.T) {
	e := newTestEngine(t)
	before := e.Weights()

	_, err := e.SetWeights(map[string]any{"price": 0.5, "location": 0.6})
	require.Error(t, err)
	assert.True(t, core.IsInvalidConfig(err))
	assert.Equal(t, before, e.Weights())

	w, err := e.SetWeights(map[string]any{"price": 1})
	require.NoError(t, err)
	assert.Equal(t, w, e.Weights())
}

func TestEngine_ApplyWeights(t *testing.T) {
	e := newTestEngine(t)
	before := e.Weights()

	var bad core.Weights
	bad[core.FeaturePrice] = 0.7
	err := e.ApplyWeights(bad)
	require.Error(t, err)
	assert.True(t, core.IsInvalidConfig(err))
	assert.Equal(t, before, e.Weights())

	var w core.Weights
	w[core.FeaturePrice] = 0.5
	w[core.FeatureRoomType] = 0.5
	require.NoError(t, e.ApplyWeights(w))
	assert.Equal(t, w, e.Weights())
}

func TestEngine_InvalidateCatalog(t *testing.T) {
	src := catalog.NewMemory(&core.Listing{ID: 1, Name: "Loft"})
	e := NewEngine(catalog.NewCached(src), nil)
	ctx := context.Background()

	_, err := e.ListingDetail(ctx, 1)
	require.NoError(t, err)

	src.Replace(&core.Listing{ID: 2, Name: "Houseboat"})
	_, err = e.ListingDetail(ctx, 2)
	assert.True(t, core.IsNotFound(err))

	e.InvalidateCatalog()
	l, err := e.ListingDetail(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Houseboat", l.Name)
}

func TestEngine_ListingDetailAndSearch(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	l, err := e.ListingDetail(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Loft three", l.Name)

	_, err = e.ListingDetail(ctx, 42)
	assert.True(t, core.IsNotFound(err))

	s, err := e.Search(ctx, "loft", 20)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 1}, []int64{s[0].ID, s[1].ID, s[2].ID})

	n, err := e.RefreshCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

type failingCatalog struct{}

func (failingCatalog) ListAll(context.Context) ([]*core.Listing, error) {
	return nil, errors.New("connection refused")
}

func (failingCatalog) Get(context.Context, int64) (*core.Listing, error) {
	return nil, errors.New("connection refused")
}

func TestRecommend_Unavailable(t *testing.T) {
	e := NewEngine(catalog.NewCached(failingCatalog{}), nil)
	_, err := e.Recommend(context.Background(), NewRequest(1))
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))

	_, err = e.Search(context.Background(), "x", 5)
	assert.True(t, core.IsUnavailable(err))
}

func TestEngine_CatalogStats(t *testing.T) {
	e := newTestEngine(t)
	stats, err := e.CatalogStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, len(core.Features()))
	// 房源 6 没有价格
	assert.Equal(t, "price", stats[0].Feature)
	assert.Equal(t, 5, stats[0].Present)
	assert.Equal(t, 1, stats[0].Missing)
}
