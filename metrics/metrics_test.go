package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/rushteam/listingrec/core"
)

func TestRecordError(t *testing.T) {
	before := testutil.ToFloat64(RequestErrors.WithLabelValues("recommend", core.ErrorCodeNotFound))
	RecordError("recommend", core.ErrListingNotFound)
	RecordError("recommend", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(RequestErrors.WithLabelValues("recommend", core.ErrorCodeNotFound)))

	before = testutil.ToFloat64(RequestErrors.WithLabelValues("search", core.ErrorCodeInternalError))
	RecordError("search", errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(RequestErrors.WithLabelValues("search", core.ErrorCodeInternalError)))
}

func TestRecordWeights(t *testing.T) {
	RecordWeights(core.DefaultWeights(), true)
	assert.Equal(t, 0.25, testutil.ToFloat64(WeightValue.WithLabelValues("price")))

	before := testutil.ToFloat64(WeightUpdates.WithLabelValues("rejected"))
	RecordWeights(core.Weights{}, false)
	assert.Equal(t, before+1, testutil.ToFloat64(WeightUpdates.WithLabelValues("rejected")))
}

func TestRecordCatalogRefresh(t *testing.T) {
	RecordCatalogRefresh(time.Millisecond, 42)
	assert.Equal(t, 42.0, testutil.ToFloat64(CatalogListings))

	before := testutil.ToFloat64(CatalogRefreshErrors)
	RecordCatalogRefresh(time.Millisecond, -1)
	assert.Equal(t, before+1, testutil.ToFloat64(CatalogRefreshErrors))
}

func TestRecordFeatureCoverage(t *testing.T) {
	RecordFeatureCoverage("rating", 0.25)
	assert.Equal(t, 0.25, testutil.ToFloat64(CatalogFeatureMissing.WithLabelValues("rating")))
}
