package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountParamExtract(t *testing.T) {
	points := CountParam{Name: "points", Default: 60, Min: 1, Max: 500}

	tests := []struct {
		query string
		want  int
	}{
		{"", 60},
		{"?points=2", 2},
		{"?points=0", 1},
		{"?points=-5", 1},
		{"?points=9999", 500},
		{"?points=12.7", 12},
		{"?points=1e300", 500},
		{"?points=-1e300", 1},
		{"?points=1e999", 500},
		{"?points=99999999999999999999", 500},
		{"?points=%20", 60},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/energy"+tt.query, nil)
			n, err := points.Extract(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}

	for _, raw := range []string{"abc", "NaN", "Inf", "-Infinity"} {
		t.Run("Should reject "+raw, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/energy?points="+raw, nil)
			_, err := points.Extract(req)
			assert.EqualError(t, err, "points must be an integer")
		})
	}
}
