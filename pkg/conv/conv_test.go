package conv

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float64", 0.25, 0.25, true},
		{"int from yaml", 1, 1, true},
		{"json number", json.Number("0.5"), 0.5, true},
		{"bad json number", json.Number("x"), 0, false},
		{"bool is not a number", true, 0, false},
		{"string is not a number", "0.5", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat64(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToInt64(t *testing.T) {
	n, ok := ToInt64("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	_, ok = ToInt64("4x")
	assert.False(t, ok)

	_, ok = ToInt64(1.5)
	assert.False(t, ok)

	n, ok = ToInt64(7.0)
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)
}
