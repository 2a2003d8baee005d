package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/listingrec/core"
)

func TestComputeStatistics(t *testing.T) {
	s := ComputeStatistics([]float64{4, 1, 3, 2, 5})
	assert.InDelta(t, 3.0, s.Mean, 1e-9)
	assert.InDelta(t, 1.0, s.Min, 1e-9)
	assert.InDelta(t, 5.0, s.Max, 1e-9)
	assert.InDelta(t, 3.0, s.P50, 1e-9)
	assert.InDelta(t, 4.8, s.P95, 1e-9)
	assert.InDelta(t, 1.4142135623, s.Std, 1e-9)

	assert.Equal(t, &Statistics{}, ComputeStatistics(nil))
}

func TestCoverage(t *testing.T) {
	vectors := []*Vector{
		NewVector(&core.Listing{ID: 1, Price: core.Some(100.0), RoomType: "Private room", Amenities: []string{"Wifi"}}),
		NewVector(&core.Listing{ID: 2, Price: core.Some(300.0), Latitude: core.Some(52.37), Longitude: core.Some(4.89)}),
		NewVector(&core.Listing{ID: 3, RoomType: "  "}),
	}

	stats := Coverage(vectors)
	require.Len(t, stats, len(core.Features()))

	byName := make(map[string]Stats, len(stats))
	for _, s := range stats {
		byName[s.Feature] = s
	}

	price := byName["price"]
	assert.Equal(t, 2, price.Present)
	assert.Equal(t, 1, price.Missing)
	require.NotNil(t, price.Numeric)
	assert.InDelta(t, 200.0, price.Numeric.Mean, 1e-9)
	assert.InDelta(t, 1.0/3.0, price.MissingRatio(), 1e-9)

	assert.Equal(t, 1, byName["location"].Present)
	assert.Nil(t, byName["location"].Numeric)
	assert.Equal(t, 1, byName["room_type"].Present)
	assert.Equal(t, 1, byName["amenities"].Present)
	assert.Equal(t, 3, byName["rating"].Missing)
	assert.Nil(t, byName["rating"].Numeric)
}

func TestCoverage_EmptyCatalog(t *testing.T) {
	for _, s := range Coverage(nil) {
		assert.Zero(t, s.MissingRatio())
		assert.Nil(t, s.Numeric)
	}
}
