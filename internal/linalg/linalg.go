// Package linalg solves the damped normal equations used by second-order
// training.
package linalg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when the damped system cannot be solved.
var ErrSingular = errors.New("normal equations are singular")

// Solver solves (JᵀJ + λI) Δ = Jᵀe for Δ.
type Solver interface {
	Solve(j *mat.Dense, e []float64, lambda float64) ([]float64, error)
}

// NormalEquations is the default Solver. It factorizes the symmetric damped
// matrix with Cholesky and falls back to an LU solve when the matrix is not
// positive definite.
type NormalEquations struct{}

func (NormalEquations) Solve(j *mat.Dense, e []float64, lambda float64) ([]float64, error) {
	rows, cols := j.Dims()
	if len(e) != rows {
		return nil, fmt.Errorf("residual length %d does not match %d jacobian rows", len(e), rows)
	}

	// JᵀJ + λI
	var a mat.SymDense
	a.SymOuterK(1, j.T())
	for i := 0; i < cols; i++ {
		a.SetSym(i, i, a.At(i, i)+lambda)
	}

	// Jᵀe
	var g mat.VecDense
	g.MulVec(j.T(), mat.NewVecDense(rows, e))

	dx := mat.NewVecDense(cols, nil)

	var chol mat.Cholesky
	if chol.Factorize(&a) {
		if err := chol.SolveVecTo(dx, &g); err == nil {
			return dx.RawVector().Data, nil
		}
	}

	err := dx.SolveVec(&a, &g)
	var cond mat.Condition
	if errors.As(err, &cond) && !math.IsInf(float64(cond), 1) {
		// ill-conditioned but solved
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return dx.RawVector().Data, nil
}
