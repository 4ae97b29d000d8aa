// Package layer provides the neuron layer used by the network composer.
package layer

import (
	"errors"
	"fmt"
	"math"

	"github.com/DavidQChuang/SimpleAI/internal/activations"
	"github.com/DavidQChuang/SimpleAI/internal/weights"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrZeroNeurons   = errors.New("invalid neuron count, cannot be zero")
	ErrNegativeCount = errors.New("invalid input/output count, cannot be negative")
	ErrUninitialized = errors.New("layer is not configured")
	ErrInputLength   = errors.New("input block length is invalid")
	ErrOutputLength  = errors.New("output block length is invalid")
	ErrNaN           = errors.New("activation function input was NaN")
)

// Spec describes a layer before it is wired into a network.
type Spec struct {
	Neurons    int
	Activation activations.Kind
	Name       string

	// Independent makes each neuron read its own input slice instead of all
	// neurons sharing one. The composer decides this for the first layer.
	Independent bool

	// Unweighted layers sum their inputs without weights.
	Unweighted bool

	// OutputsPerNeuron is the number of slots each neuron's value is
	// broadcast to. Zero means 1.
	OutputsPerNeuron int

	// Inputs is the declared fan-in. Zero lets the composer derive it.
	Inputs int

	// Init overrides the network's default weight policy for this layer.
	Init weights.Strategy
}

// Layer is a homogeneous bank of neurons.
// Weights are stored row-major: weight i of neuron n is at weights[n*inputsPerNeuron+i].
type Layer struct {
	spec  Spec
	act   activations.Activation
	block activations.Block

	inputsPerNeuron  int
	outputsPerNeuron int
	independent      bool
	useWeights       bool
	configured       bool

	weights []float64

	// weighted sums of the last Execute, one per neuron
	sums []float64
}

// New creates an unconfigured layer. It cannot execute until Configure is
// called, which the network composer does.
func New(spec Spec) (*Layer, error) {
	if spec.Neurons == 0 {
		return nil, fmt.Errorf("layer %q: %w", spec.Name, ErrZeroNeurons)
	}
	if spec.Neurons < 0 || spec.OutputsPerNeuron < 0 || spec.Inputs < 0 {
		return nil, fmt.Errorf("layer %q: %w", spec.Name, ErrNegativeCount)
	}
	act, err := activations.New(spec.Activation)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", spec.Name, err)
	}
	l := &Layer{spec: spec, act: act}
	if b, ok := act.(activations.Block); ok {
		l.block = b
	}
	return l, nil
}

// Configure fixes the layer's shape and fills its weights.
func (l *Layer) Configure(inputsPerNeuron, outputsPerNeuron int, independent, useWeights bool, init weights.Strategy) error {
	if l.spec.Neurons == 0 {
		return fmt.Errorf("layer %q: %w", l.spec.Name, ErrZeroNeurons)
	}
	if inputsPerNeuron < 0 || outputsPerNeuron < 0 {
		return fmt.Errorf("layer %q: %w", l.spec.Name, ErrNegativeCount)
	}

	l.inputsPerNeuron = inputsPerNeuron
	l.outputsPerNeuron = outputsPerNeuron
	l.independent = independent
	l.useWeights = useWeights

	l.weights = make([]float64, l.spec.Neurons*inputsPerNeuron)
	if init == nil {
		init = weights.Constant{Value: 1}
	}
	init.Fill(l.weights)

	l.sums = make([]float64, l.spec.Neurons)
	l.configured = true
	return nil
}

// Execute runs every neuron over in and writes the activated values to out.
func (l *Layer) Execute(in, out []float64) error {
	if !l.configured || l.inputsPerNeuron == 0 || l.outputsPerNeuron == 0 {
		return fmt.Errorf("layer %q: %w", l.spec.Name, ErrUninitialized)
	}
	if len(in) != l.ExpectedInputs() {
		return fmt.Errorf("layer %q: %w: got %d, want %d", l.spec.Name, ErrInputLength, len(in), l.ExpectedInputs())
	}
	if len(out) != l.ExpectedOutputs() {
		return fmt.Errorf("layer %q: %w: got %d, want %d", l.spec.Name, ErrOutputLength, len(out), l.ExpectedOutputs())
	}

	ipn := l.inputsPerNeuron
	opn := l.outputsPerNeuron
	for n := 0; n < l.spec.Neurons; n++ {
		start := l.InputStart(n)
		dataIn := in[start : start+ipn]

		var sum float64
		if l.useWeights {
			sum = floats.Dot(dataIn, l.weights[n*ipn:(n+1)*ipn])
		} else {
			sum = floats.Sum(dataIn)
		}
		if math.IsNaN(sum) {
			return fmt.Errorf("layer %q neuron %d: %w", l.spec.Name, n, ErrNaN)
		}
		l.sums[n] = sum

		v := l.act.Activate(sum)
		if math.IsNaN(v) {
			return fmt.Errorf("layer %q neuron %d: activation produced NaN: %w", l.spec.Name, n, ErrNaN)
		}

		// copy outputs to buffer
		dataOut := out[n*opn : (n+1)*opn]
		for o := range dataOut {
			dataOut[o] = v
		}
	}

	if l.block != nil {
		l.block.ActivateBlock(out)
		for i, v := range out {
			if math.IsNaN(v) {
				return fmt.Errorf("layer %q slot %d: block activation produced NaN: %w", l.spec.Name, i, ErrNaN)
			}
		}
	}
	return nil
}

// DerivativeAt returns the local derivative for a neuron whose weighted sum
// was weightedSum and whose first output slot is slot.
func (l *Layer) DerivativeAt(weightedSum float64, slot int) float64 {
	if l.block != nil {
		return l.block.DerivativeAt(weightedSum, slot)
	}
	return l.act.Derivative(weightedSum)
}

// InputStart returns the offset of neuron n's slice in the input block.
// Neurons that share inputs all start at 0.
func (l *Layer) InputStart(n int) int {
	if l.independent {
		return n * l.inputsPerNeuron
	}
	return 0
}

// ExpectedInputs returns the input block length.
func (l *Layer) ExpectedInputs() int {
	if l.independent {
		return l.inputsPerNeuron * l.spec.Neurons
	}
	return l.inputsPerNeuron
}

// ExpectedOutputs returns the output block length.
func (l *Layer) ExpectedOutputs() int {
	return l.outputsPerNeuron * l.spec.Neurons
}

// Clone returns a deep copy with its own weights and activation cache.
func (l *Layer) Clone() *Layer {
	c := *l
	c.weights = append([]float64(nil), l.weights...)
	c.sums = append([]float64(nil), l.sums...)
	if l.block != nil {
		c.block = l.block.Clone()
		c.act = c.block
	}
	return &c
}

// Weights returns the weight vector. Trainers mutate it in place.
func (l *Layer) Weights() []float64 {
	return l.weights
}

// NeuronWeights returns neuron n's input weights as a view into Weights.
func (l *Layer) NeuronWeights(n int) []float64 {
	return l.weights[n*l.inputsPerNeuron : (n+1)*l.inputsPerNeuron]
}

// Sum returns neuron n's weighted sum from the last Execute.
func (l *Layer) Sum(n int) float64 {
	return l.sums[n]
}

// Size returns the neuron count.
func (l *Layer) Size() int { return l.spec.Neurons }

// Name returns the layer name.
func (l *Layer) Name() string { return l.spec.Name }

// Spec returns the specification the layer was built from.
func (l *Layer) Spec() Spec { return l.spec }

// Kind returns the activation kind.
func (l *Layer) Kind() activations.Kind { return l.spec.Activation }

// Normalized reports whether the block activation normalizes the outputs
// (Softmax).
func (l *Layer) Normalized() bool { return l.spec.Activation == activations.Softmax }

func (l *Layer) InputsPerNeuron() int  { return l.inputsPerNeuron }
func (l *Layer) OutputsPerNeuron() int { return l.outputsPerNeuron }
func (l *Layer) Independent() bool     { return l.independent }
func (l *Layer) UsesWeights() bool     { return l.useWeights }
func (l *Layer) Configured() bool      { return l.configured }
