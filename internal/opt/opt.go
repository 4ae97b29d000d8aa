// Package opt provides the weight step helpers shared by the gradient trainers.
package opt

// Momentum computes weight deltas with an optional momentum term:
//
//	Δw = rate·g + momentum·Δw_prev
//
// where g is the ascent direction (target - output) times the local input.
// Velocities are kept per parameter group, one group per layer.
type Momentum struct {
	LearningRate float64
	Momentum     float64

	prev [][]float64
}

// NewMomentum creates a Momentum optimizer.
func NewMomentum(learningRate, momentum float64) *Momentum {
	return &Momentum{LearningRate: learningRate, Momentum: momentum}
}

// Reset clears the velocities and sizes one group per entry in sizes.
func (m *Momentum) Reset(sizes ...int) {
	m.prev = make([][]float64, len(sizes))
	for g, n := range sizes {
		m.prev[g] = make([]float64, n)
	}
}

// Delta returns the step for parameter i of group g and records it as the
// previous step. Without momentum nothing is recorded.
func (m *Momentum) Delta(g, i int, grad float64) float64 {
	d := m.LearningRate * grad
	if m.Momentum == 0 || g >= len(m.prev) {
		return d
	}
	d += m.Momentum * m.prev[g][i]
	m.prev[g][i] = d
	return d
}

// StepInPlace adds the step for every parameter of group g to params.
func (m *Momentum) StepInPlace(g int, params, grads []float64) {
	for i := range params {
		params[i] += m.Delta(g, i, grads[i])
	}
}
