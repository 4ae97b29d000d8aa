package activations

import "math"

// SoftmaxFunc normalizes a layer's whole output block so it sums to 1.
// The scalar pass is the identity; the exponentials and their sum from the
// last ActivateBlock call are kept for DerivativeAt.
type SoftmaxFunc struct {
	exps []float64
	sum  float64
}

func (s *SoftmaxFunc) Activate(x float64) float64 { return x }

// Derivative of the scalar pass. Use DerivativeAt for the block derivative.
func (s *SoftmaxFunc) Derivative(x float64) float64 { return 1 }

// ActivateBlock computes softmax over out in place.
func (s *SoftmaxFunc) ActivateBlock(out []float64) {
	if len(out) == 0 {
		return
	}
	if cap(s.exps) < len(out) {
		s.exps = make([]float64, len(out))
	}
	s.exps = s.exps[:len(out)]

	// Find max for numerical stability
	maxVal := out[0]
	for _, v := range out[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	s.sum = 0
	for i, v := range out {
		e := math.Exp(v - maxVal)
		s.exps[i] = e
		s.sum += e
	}

	for i := range out {
		out[i] = s.exps[i] / s.sum
	}
}

// DerivativeAt returns e_k * (sum - e_k) / sum^2, i.e. s_k * (1 - s_k),
// from the cached exponentials.
func (s *SoftmaxFunc) DerivativeAt(x float64, slot int) float64 {
	if slot < 0 || slot >= len(s.exps) || s.sum == 0 {
		return 0
	}
	e := s.exps[slot]
	return e * (s.sum - e) / (s.sum * s.sum)
}

func (s *SoftmaxFunc) Clone() Block {
	c := &SoftmaxFunc{sum: s.sum}
	if s.exps != nil {
		c.exps = append([]float64(nil), s.exps...)
	}
	return c
}

// ArgmaxFunc sets the largest output of the block to 1 and all others to 0.
// Ties go to the lowest slot.
type ArgmaxFunc struct{}

func (ArgmaxFunc) Activate(x float64) float64   { return x }
func (ArgmaxFunc) Derivative(x float64) float64 { return 0 }

// ActivateBlock rewrites out as a one-hot vector.
func (ArgmaxFunc) ActivateBlock(out []float64) {
	if len(out) == 0 {
		return
	}
	best := 0
	for i := 1; i < len(out); i++ {
		if out[i] > out[best] {
			best = i
		}
	}
	for i := range out {
		out[i] = 0
	}
	out[best] = 1
}

// DerivativeAt is 0: the one-hot selection is piecewise constant.
func (ArgmaxFunc) DerivativeAt(x float64, slot int) float64 { return 0 }

func (a ArgmaxFunc) Clone() Block { return a }
