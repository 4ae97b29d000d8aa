package trainer

import (
	"math"
	"testing"

	"github.com/DavidQChuang/SimpleAI/internal/activations"
	"github.com/DavidQChuang/SimpleAI/internal/layer"
	"github.com/DavidQChuang/SimpleAI/internal/linalg"
	"github.com/DavidQChuang/SimpleAI/internal/net"
	"github.com/DavidQChuang/SimpleAI/internal/weights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// fixedSolver returns the same step every time and records λ.
type fixedSolver struct {
	step    float64
	lambdas []float64
	rows    []int
}

func (s *fixedSolver) Solve(j *mat.Dense, e []float64, lambda float64) ([]float64, error) {
	r, c := j.Dims()
	s.rows = append(s.rows, r)
	s.lambdas = append(s.lambdas, lambda)
	out := make([]float64, c)
	for i := range out {
		out[i] = s.step
	}
	return out, nil
}

type singularSolver struct{ calls int }

func (s *singularSolver) Solve(j *mat.Dense, e []float64, lambda float64) ([]float64, error) {
	s.calls++
	return nil, linalg.ErrSingular
}

func tinyNet(t *testing.T) *net.Network {
	t.Helper()
	n, err := net.New(nil,
		layer.Spec{Neurons: 1, Activation: activations.Linear},
		layer.Spec{Neurons: 1, Activation: activations.Linear, Init: weights.Constant{Value: 0}},
	)
	require.NoError(t, err)
	return n
}

func TestLevenbergDampingFalls(t *testing.T) {
	solver := &fixedSolver{}
	lm := &LevenbergMarquardt{Solver: solver}
	n := twoClassNet(t)

	_, err := New(lm, hp(0.1, 0, 3)).Train(n, twoClassSets())
	require.NoError(t, err)

	// a zero step leaves the MSE unchanged, which counts as not rising
	require.Len(t, solver.lambdas, 3)
	assert.InDelta(t, 0.1, solver.lambdas[0], 1e-15)
	assert.InDelta(t, 0.01, solver.lambdas[1], 1e-15)
	assert.InDelta(t, 0.001, solver.lambdas[2], 1e-15)
	assert.Equal(t, []int{10, 10, 10}, solver.rows)
}

// TestLevenbergAcceptsWorseStep checks that by default a step is kept even
// when the next epoch shows it raised the error.
func TestLevenbergAcceptsWorseStep(t *testing.T) {
	sets := net.Sets([][]float64{{1}}, [][]float64{{0.1}})

	solver := &fixedSolver{step: 1}
	lm := &LevenbergMarquardt{Solver: solver, Damping: 1}
	n := tinyNet(t)
	_, err := New(lm, hp(0.1, 0, 2)).Train(n, sets)
	require.NoError(t, err)

	assert.Equal(t, []float64{3}, n.Layer(0).Weights())
	assert.Equal(t, []float64{2}, n.Layer(1).Weights())
	assert.Equal(t, []float64{1, 10}, solver.lambdas)
}

func TestLevenbergRejectWorse(t *testing.T) {
	sets := net.Sets([][]float64{{1}}, [][]float64{{0.1}})

	solver := &fixedSolver{step: 1}
	lm := &LevenbergMarquardt{Solver: solver, Damping: 1, RejectWorse: true}
	n := tinyNet(t)
	_, err := New(lm, hp(0.1, 0, 2)).Train(n, sets)
	require.NoError(t, err)

	// the second epoch's worse weights were restored before stepping again
	assert.Equal(t, []float64{2}, n.Layer(0).Weights())
	assert.Equal(t, []float64{1}, n.Layer(1).Weights())
	assert.Equal(t, []float64{1, 10}, solver.lambdas)
}

func TestLevenbergSingular(t *testing.T) {
	solver := &singularSolver{}
	lm := &LevenbergMarquardt{Solver: solver, Damping: 1}
	res, err := New(lm, hp(0.1, 0, 5)).Train(twoClassNet(t), twoClassSets())
	assert.ErrorIs(t, err, linalg.ErrSingular)
	assert.Equal(t, Failed, res.Status)
	assert.Equal(t, solveRetries+1, solver.calls)
	assert.Greater(t, lm.Lambda(), 1.0)
}

// TestLevenbergStep checks that one well-damped step lowers the MSE.
func TestLevenbergStep(t *testing.T) {
	lm := &LevenbergMarquardt{Damping: 10}
	res, err := New(lm, hp(0.1, 0, 2)).Train(twoClassNet(t), twoClassSets())
	require.NoError(t, err)

	samples := res.History.Samples()
	require.Len(t, samples, 2)
	assert.Less(t, samples[1].MSE, samples[0].MSE)
	assert.InDelta(t, 1.0, lm.Lambda(), 1e-12)
}

// TestLevenbergJacobian compares one row against finite differences of the
// residual norm.
func TestLevenbergJacobian(t *testing.T) {
	n := twoClassNet(t)
	set := twoClassSets()[6]

	lm := NewLevenbergMarquardt()
	require.NoError(t, lm.Begin(n, Defaults()))
	buf := n.NewBuffer()
	_, err := forward(n, buf, set.Input)
	require.NoError(t, err)
	require.NoError(t, lm.Update(n, buf, set))
	row := append([]float64(nil), lm.jac...)

	residual := func() float64 {
		out, err := n.Execute(set.Input)
		require.NoError(t, err)
		d := 0.0
		for i := range out {
			d += (set.Expected[i] - out[i]) * (set.Expected[i] - out[i])
		}
		return math.Sqrt(d)
	}

	const h = 1e-6
	idx := 0
	for _, l := range n.Layers() {
		w := l.Weights()
		for i := range w {
			orig := w[i]
			w[i] = orig + h
			up := residual()
			w[i] = orig - h
			down := residual()
			w[i] = orig
			// rows hold -∂e/∂w
			assert.InDelta(t, -(up-down)/(2*h), row[idx], 1e-6, "weight %d", idx)
			idx++
		}
	}
}
