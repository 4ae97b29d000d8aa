// Package activations provides the closed set of neuron activation functions.
package activations

import (
	"fmt"
	"math"
)

// Kind identifies an activation function.
type Kind int

const (
	Step Kind = iota
	Linear
	Sigmoid
	Tanh
	ReLU
	LeakyReLU
	GELU
	Softmax
	Argmax
)

var kindNames = [...]string{
	Step:      "step",
	Linear:    "linear",
	Sigmoid:   "sigmoid",
	Tanh:      "tanh",
	ReLU:      "relu",
	LeakyReLU: "leakyrelu",
	GELU:      "gelu",
	Softmax:   "softmax",
	Argmax:    "argmax",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a name such as "sigmoid" to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	// a couple of aliases used in older experiment files
	switch name {
	case "siglog", "logistic":
		return Sigmoid, nil
	case "hypertan":
		return Tanh, nil
	}
	return 0, fmt.Errorf("unknown activation %q", name)
}

// Activation is a scalar activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x) where x is the weighted sum
	Derivative(x float64) float64
}

// Block is implemented by activations that also run over the whole output
// block of a layer after the scalar pass.
type Block interface {
	Activation

	// ActivateBlock rewrites the output block in place.
	ActivateBlock(out []float64)

	// DerivativeAt returns the local derivative for one output slot, using
	// state cached by the last ActivateBlock call.
	DerivativeAt(x float64, slot int) float64

	// Clone returns an instance with its own cache.
	Clone() Block
}

// New returns a fresh activation for the given kind.
// Block kinds are returned as values implementing Block with their own cache.
func New(kind Kind) (Activation, error) {
	switch kind {
	case Step:
		return StepFunc{}, nil
	case Linear:
		return LinearFunc{}, nil
	case Sigmoid:
		return SigmoidFunc{}, nil
	case Tanh:
		return TanhFunc{}, nil
	case ReLU:
		return ReLUFunc{}, nil
	case LeakyReLU:
		return NewLeakyReLU(0.01), nil
	case GELU:
		return GELUFunc{}, nil
	case Softmax:
		return &SoftmaxFunc{}, nil
	case Argmax:
		return ArgmaxFunc{}, nil
	}
	return nil, fmt.Errorf("unknown activation kind %d", int(kind))
}

// StepFunc is the Heaviside step. Its derivative is 0 everywhere.
type StepFunc struct{}

// Activate returns 1 for x >= +0 and 0 otherwise.
func (StepFunc) Activate(x float64) float64 {
	if math.Signbit(x) {
		return 0
	}
	return 1
}

// Derivative is defined as 0; perceptron-style rules never use it.
func (StepFunc) Derivative(x float64) float64 {
	return 0
}

// LinearFunc is the identity.
type LinearFunc struct{}

func (LinearFunc) Activate(x float64) float64   { return x }
func (LinearFunc) Derivative(x float64) float64 { return 1 }

// SigmoidFunc is the logistic function.
type SigmoidFunc struct{}

// sigmoid computes the sigmoid function
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Activate computes sigmoid(x)
func (SigmoidFunc) Activate(x float64) float64 {
	return sigmoid(x)
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (SigmoidFunc) Derivative(x float64) float64 {
	s := sigmoid(x)
	return s * (1 - s)
}

// TanhFunc is the hyperbolic tangent.
type TanhFunc struct{}

// Activate computes tanh(x)
func (TanhFunc) Activate(x float64) float64 {
	return math.Tanh(x)
}

// Derivative computes 1 - tanh(x)^2
func (TanhFunc) Derivative(x float64) float64 {
	t := math.Tanh(x)
	return 1 - t*t
}

// ReLUFunc is max(0, x).
type ReLUFunc struct{}

// Activate computes max(0, x)
func (ReLUFunc) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 for x >= +0, else 0
func (ReLUFunc) Derivative(x float64) float64 {
	if math.Signbit(x) {
		return 0
	}
	return 1
}

// LeakyReLUFunc keeps a small slope for negative inputs.
type LeakyReLUFunc struct {
	Alpha float64 // Slope for x < 0
}

// NewLeakyReLU creates a LeakyReLU with the given alpha value.
func NewLeakyReLU(alpha float64) LeakyReLUFunc {
	return LeakyReLUFunc{Alpha: alpha}
}

// Activate computes x if x >= 0, else alpha*x
func (l LeakyReLUFunc) Activate(x float64) float64 {
	if x >= 0 {
		return x
	}
	return l.Alpha * x
}

// Derivative returns 1 if x >= +0, else alpha
func (l LeakyReLUFunc) Derivative(x float64) float64 {
	if math.Signbit(x) {
		return l.Alpha
	}
	return 1
}

// GELUFunc is the exact (erf based) Gaussian error linear unit.
type GELUFunc struct{}

const invSqrt2Pi = 0.3989422804014327

func gaussCDF(x float64) float64 {
	return (1 + math.Erf(x/math.Sqrt2)) / 2
}

// Activate computes x * Phi(x)
func (GELUFunc) Activate(x float64) float64 {
	return x * gaussCDF(x)
}

// Derivative computes Phi(x) + x * phi(x)
func (GELUFunc) Derivative(x float64) float64 {
	pdf := invSqrt2Pi * math.Exp(-0.5*x*x)
	return gaussCDF(x) + x*pdf
}
