package recommend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rushteam/listingrec/core"
)

func TestRequestValidate(t *testing.T) {
	assert.NoError(t, NewRequest(1).Validate())
	assert.NoError(t, Request{ListingID: 1, MaxResults: 100, Threshold: 1}.Validate())
	assert.NoError(t, Request{ListingID: 1, MaxResults: 1, Threshold: 0}.Validate())

	err := Request{ListingID: 1, MaxResults: 10, Threshold: math.NaN()}.Validate()
	assert.True(t, core.IsInvalidInput(err))

	err = Request{ListingID: 1, MaxResults: 0, Threshold: 2}.Validate()
	assert.True(t, core.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "max_results must be >= 1")
	assert.Contains(t, err.Error(), "threshold must be <= 1")
}
