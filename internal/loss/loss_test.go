// Package loss provides unit tests for cost functions.
package loss

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMSE tests the mean squared error.
func TestMSE(t *testing.T) {
	tests := []struct {
		name     string
		yPred    []float64
		yTrue    []float64
		expected float64
	}{
		{"perfect", []float64{1, 0}, []float64{1, 0}, 0},
		{"one off", []float64{1, 0}, []float64{0, 0}, 0.5},
		{"mixed", []float64{0.5, 2, -1}, []float64{1, 1, 1}, (0.25 + 1 + 4) / 3},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MSE{}.Forward(tt.yPred, tt.yTrue), 1e-12)
		})
	}
}

func TestSSEAndResidual(t *testing.T) {
	p := []float64{3, 0}
	y := []float64{0, 4}
	assert.InDelta(t, 25.0, SSE{}.Forward(p, y), 1e-12)
	assert.InDelta(t, 5.0, Residual(p, y), 1e-12)
	assert.InDelta(t, math.Sqrt(2), Residual([]float64{1, 1}, []float64{0, 0}), 1e-12)
}

func TestMSEPanicsOnLengthMismatch(t *testing.T) {
	assert.Panics(t, func() { MSE{}.Forward([]float64{1}, []float64{1, 2}) })
}
