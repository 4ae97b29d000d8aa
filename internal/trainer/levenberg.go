package trainer

import (
	"errors"
	"fmt"
	"math"

	"github.com/DavidQChuang/SimpleAI/internal/linalg"
	"github.com/DavidQChuang/SimpleAI/internal/loss"
	"github.com/DavidQChuang/SimpleAI/internal/net"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultBeta is the factor λ is multiplied or divided by.
	DefaultBeta = 10

	solveRetries = 8
	minLambda    = 1e-12
	maxLambda    = 1e12
)

// LevenbergMarquardt is a batch rule. Every set contributes one Jacobian row
// of ∂error/∂weight over all weights of all layers; after the epoch the
// damped normal equations
//
//	(JᵀJ + λI) Δw = Jᵀe
//
// are solved and Δw applied to every weight at once. λ grows by Beta when
// the epoch MSE rose since the previous epoch and shrinks by Beta when it
// fell.
//
// A step is accepted even if the next epoch shows it made things worse,
// unless RejectWorse is set, in which case the weights are restored and the
// step re-solved with more damping.
type LevenbergMarquardt struct {
	// Damping is the initial λ. Zero uses the learning rate.
	Damping float64
	// Beta is the λ adjustment factor. Zero means DefaultBeta.
	Beta        float64
	RejectWorse bool
	Solver      linalg.Solver

	lambda  float64
	back    *backward
	offsets []int
	weights int

	jac   []float64
	resid []float64

	prev struct {
		ok      bool
		mse     float64
		jac     *mat.Dense
		resid   []float64
		weights [][]float64
	}
}

// NewLevenbergMarquardt creates the rule with default damping settings.
func NewLevenbergMarquardt() *LevenbergMarquardt { return &LevenbergMarquardt{} }

func (lm *LevenbergMarquardt) Name() string     { return "levenberg-marquardt" }
func (lm *LevenbergMarquardt) Supervised() bool { return true }

func (lm *LevenbergMarquardt) Check(n *net.Network) error {
	if n.Depth() < 2 {
		return fmt.Errorf("%w: levenberg-marquardt requires at least 2 layers, got %d", ErrTopology, n.Depth())
	}
	if n.WeightCount() == 0 {
		return fmt.Errorf("%w: levenberg-marquardt needs weights to train", ErrTopology)
	}
	return nil
}

func (lm *LevenbergMarquardt) Begin(n *net.Network, hp Hyperparameters) error {
	if lm.Beta < 0 || lm.Damping < 0 {
		return fmt.Errorf("%w: damping and beta must not be negative", ErrHyperparameters)
	}
	lm.lambda = lm.Damping
	if lm.lambda == 0 {
		lm.lambda = hp.LearningRate
	}
	if lm.lambda == 0 {
		lm.lambda = minLambda
	}
	if lm.Solver == nil {
		lm.Solver = linalg.NormalEquations{}
	}

	lm.back = newBackward(n)
	lm.offsets = make([]int, n.Depth())
	lm.weights = 0
	for i, l := range n.Layers() {
		lm.offsets[i] = lm.weights
		lm.weights += len(l.Weights())
	}
	lm.jac = nil
	lm.resid = nil
	lm.prev.ok = false
	lm.prev.jac = nil
	lm.prev.resid = nil
	lm.prev.weights = nil
	return nil
}

// Lambda returns the current damping factor.
func (lm *LevenbergMarquardt) Lambda() float64 { return lm.lambda }

func (lm *LevenbergMarquardt) beta() float64 {
	if lm.Beta == 0 {
		return DefaultBeta
	}
	return lm.Beta
}

// Update appends the set's Jacobian row. The output error is seeded the same
// way as backpropagation and divided by the set's residual norm, which turns
// delta·input into the derivative of that norm.
func (lm *LevenbergMarquardt) Update(n *net.Network, buf []float64, set net.TrainingSet) error {
	last := n.Depth() - 1
	e := loss.Residual(n.LayerOutput(buf, last), set.Expected)

	start := len(lm.jac)
	lm.jac = append(lm.jac, make([]float64, lm.weights)...)
	row := lm.jac[start:]
	lm.resid = append(lm.resid, e)

	if e == 0 {
		return nil
	}
	outErr := lm.back.outputError(n, buf, set.Expected)
	lm.back.walk(n, buf, outErr, func(li, w int, g float64) {
		row[lm.offsets[li]+w] = g / e
	})
	return nil
}

func (lm *LevenbergMarquardt) EndEpoch(n *net.Network, epoch int, mse float64) error {
	j := mat.NewDense(len(lm.resid), lm.weights, lm.jac)
	e := lm.resid
	lm.jac = nil
	lm.resid = nil

	rejected := false
	if lm.prev.ok {
		if mse > lm.prev.mse {
			lm.scale(lm.beta())
			if lm.RejectWorse {
				lm.restore(n)
				j, e = lm.prev.jac, lm.prev.resid
				rejected = true
			}
		} else {
			lm.scale(1 / lm.beta())
		}
	}
	if !rejected {
		lm.prev.ok = true
		lm.prev.mse = mse
		lm.prev.jac = j
		lm.prev.resid = e
	}
	if lm.RejectWorse {
		lm.snapshot(n)
	}

	step, err := lm.solve(j, e)
	if err != nil {
		return err
	}
	for li, l := range n.Layers() {
		w := l.Weights()
		off := lm.offsets[li]
		for i := range w {
			w[i] += step[off+i]
		}
	}
	return nil
}

// solve retries with more damping while the system is singular.
func (lm *LevenbergMarquardt) solve(j *mat.Dense, e []float64) ([]float64, error) {
	var err error
	for try := 0; try <= solveRetries; try++ {
		var step []float64
		step, err = lm.Solver.Solve(j, e, lm.lambda)
		if err == nil {
			return step, nil
		}
		if !errors.Is(err, linalg.ErrSingular) {
			return nil, err
		}
		lm.scale(lm.beta())
	}
	return nil, fmt.Errorf("damping %g: %w", lm.lambda, err)
}

func (lm *LevenbergMarquardt) scale(f float64) {
	lm.lambda = math.Min(math.Max(lm.lambda*f, minLambda), maxLambda)
}

func (lm *LevenbergMarquardt) snapshot(n *net.Network) {
	if lm.prev.weights == nil {
		lm.prev.weights = make([][]float64, n.Depth())
	}
	for i, l := range n.Layers() {
		lm.prev.weights[i] = append(lm.prev.weights[i][:0], l.Weights()...)
	}
}

func (lm *LevenbergMarquardt) restore(n *net.Network) {
	if lm.prev.weights == nil {
		return
	}
	for i, l := range n.Layers() {
		copy(l.Weights(), lm.prev.weights[i])
	}
}
