package linalg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNormalEquationsLeastSquares(t *testing.T) {
	// overdetermined but consistent: y = 2a - b
	j := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
	})
	e := []float64{2, -1, 1}

	dx, err := NormalEquations{}.Solve(j, e, 0)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, dx[0], 1e-9)
	assert.InDelta(t, -1.0, dx[1], 1e-9)
}

func TestDampingShrinksStep(t *testing.T) {
	j := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	e := []float64{1, 1}

	small, err := NormalEquations{}.Solve(j, e, 0.01)
	require.NoError(t, err)
	large, err := NormalEquations{}.Solve(j, e, 100)
	require.NoError(t, err)

	// (1 + λ)⁻¹
	assert.InDelta(t, 1/1.01, small[0], 1e-12)
	assert.InDelta(t, 1/101.0, large[0], 1e-12)
}

func TestRankDeficientWithoutDamping(t *testing.T) {
	// two identical columns: JᵀJ is singular
	j := mat.NewDense(2, 2, []float64{1, 1, 1, 1})
	_, err := NormalEquations{}.Solve(j, []float64{1, 1}, 0)
	assert.ErrorIs(t, err, ErrSingular)

	// any positive damping makes it solvable
	dx, err := NormalEquations{}.Solve(j, []float64{1, 1}, 1e-3)
	require.NoError(t, err)
	assert.InDelta(t, dx[0], dx[1], 1e-12)
}

func TestResidualLengthMismatch(t *testing.T) {
	j := mat.NewDense(2, 1, []float64{1, 1})
	_, err := NormalEquations{}.Solve(j, []float64{1}, 0)
	assert.Error(t, err)
}
