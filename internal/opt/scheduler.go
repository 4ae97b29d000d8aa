package opt

import "math"

// Schedule gives the learning rate for an epoch (0-based).
type Schedule interface {
	Rate(epoch int) float64
}

// ConstantRate never changes.
type ConstantRate float64

func (c ConstantRate) Rate(epoch int) float64 { return float64(c) }

// LinearDecay falls linearly from Initial to Min over Epochs epochs.
type LinearDecay struct {
	Initial float64
	Epochs  int
	Min     float64
}

func (l LinearDecay) Rate(epoch int) float64 {
	if l.Epochs <= 0 {
		return l.Initial
	}
	r := l.Initial * (1 - float64(epoch)/float64(l.Epochs))
	if r < l.Min {
		return l.Min
	}
	return r
}

// ExponentialDecay multiplies the rate by Gamma every epoch.
type ExponentialDecay struct {
	Initial float64
	Gamma   float64
}

func (e ExponentialDecay) Rate(epoch int) float64 {
	return e.Initial * math.Pow(e.Gamma, float64(epoch))
}

// StepDecay multiplies the rate by Gamma every StepSize epochs.
type StepDecay struct {
	Initial  float64
	StepSize int
	Gamma    float64
}

func (s StepDecay) Rate(epoch int) float64 {
	if s.StepSize <= 0 {
		return s.Initial
	}
	return s.Initial * math.Pow(s.Gamma, float64(epoch/s.StepSize))
}
