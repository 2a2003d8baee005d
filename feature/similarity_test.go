package feature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rushteam/listingrec/core"
)

func TestNumeric(t *testing.T) {
	tests := []struct {
		name string
		a, b core.Optional[float64]
		rng  float64
		want float64
	}{
		{"identical", core.Some(100.0), core.Some(100.0), 1000, 1},
		{"price scenario", core.Some(100.0), core.Some(120.0), 1000, 0.98},
		{"beyond range clamps to zero", core.Some(0.0), core.Some(5000.0), 1000, 0},
		{"left missing is neutral", core.None[float64](), core.Some(1.0), 1000, NeutralSimilarity},
		{"right missing is neutral", core.Some(1.0), core.None[float64](), 1000, NeutralSimilarity},
		{"both missing is neutral", core.None[float64](), core.None[float64](), 1000, NeutralSimilarity},
		{"zero range equal", core.Some(3.0), core.Some(3.0), 0, 1},
		{"zero range different", core.Some(3.0), core.Some(4.0), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Numeric(tt.a, tt.b, tt.rng), 1e-12)
		})
	}
}

func TestCategorical(t *testing.T) {
	assert.Equal(t, 1.0, Categorical("entire", "entire"))
	assert.Equal(t, 0.0, Categorical("entire", "private"))
	assert.Equal(t, NeutralSimilarity, Categorical("", "private"))
	assert.Equal(t, NeutralSimilarity, Categorical("entire", ""))
}

func TestJaccard(t *testing.T) {
	set := func(tags ...string) map[string]struct{} { return AmenitySet(tags) }

	assert.Equal(t, 1.0, Jaccard(set(), set()), "two empty sets are identical")
	assert.Equal(t, 0.0, Jaccard(set("wifi"), set()))
	assert.Equal(t, 0.5, Jaccard(set("wifi", "kitchen"), set("wifi")))
	assert.InDelta(t, 1.0/3.0, Jaccard(set("wifi", "kitchen"), set("wifi", "pool")), 1e-12)
	assert.Equal(t, 1.0, Jaccard(set("WiFi ", "Kitchen"), set("kitchen", "wifi")), "tags are folded")
}

func TestHaversine(t *testing.T) {
	// Amsterdam Centraal -> Dam Square, roughly 0.85 km
	d := Haversine(52.3791, 4.9003, 52.3731, 4.8926)
	assert.InDelta(t, 0.84, d, 0.05)

	assert.Equal(t, 0.0, Haversine(10, 10, 10, 10))

	// one degree of latitude is ~111.2 km
	assert.InDelta(t, 111.2, Haversine(0, 0, 1, 0), 0.1)
}

func TestGeo(t *testing.T) {
	at := func(lat, lon float64) *Vector {
		return NewVector(&core.Listing{Latitude: core.Some(lat), Longitude: core.Some(lon)})
	}
	noLoc := NewVector(&core.Listing{Latitude: core.Some(1.0)})

	assert.Equal(t, 1.0, Geo(at(52.37, 4.89), at(52.37, 4.89), 25))
	assert.Equal(t, NeutralSimilarity, Geo(at(52.37, 4.89), noLoc, 25))
	assert.Equal(t, 0.0, Geo(at(0, 0), at(1, 0), 25), "111km apart is beyond max distance")

	got := Geo(at(0, 0), at(0.1, 0), 25) // ~11.1 km
	assert.InDelta(t, 1-11.12/25, got, 0.01)
	assert.False(t, math.IsNaN(got))
}

func TestNewVector(t *testing.T) {
	l := &core.Listing{
		ID:            7,
		RoomType:      " Entire home/apt ",
		Neighbourhood: "Centrum-West",
		Accommodates:  core.Some(4),
		Amenities:     []string{"Wifi", "wifi", "", "Kitchen"},
	}
	v := NewVector(l)

	assert.Equal(t, int64(7), v.ID)
	assert.Equal(t, "entire home/apt", v.RoomType)
	assert.Equal(t, "centrum-west", v.Neighbourhood)
	assert.Equal(t, core.Some(4.0), v.Accommodates)
	assert.False(t, v.Bedrooms.Valid)
	assert.Len(t, v.Amenities, 2)
	assert.False(t, v.HasLocation)
}
