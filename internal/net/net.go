// Package net composes layers into a network sharing one I/O buffer and
// runs the forward pass over it.
package net

import (
	"errors"
	"fmt"

	"github.com/DavidQChuang/SimpleAI/internal/layer"
	"github.com/DavidQChuang/SimpleAI/internal/weights"
)

var (
	ErrEmptyNetwork  = errors.New("network needs at least one layer")
	ErrShapeMismatch = errors.New("layer shape mismatch")
	ErrInputLength   = errors.New("input length does not match network inputs")
	ErrBufferLength  = errors.New("buffer length does not match network buffer size")
)

// Network is an ordered chain of layers over one contiguous buffer.
//
// Buffer layout: layer i reads buf[offsets[i] : offsets[i]+in_i] and writes
// the region immediately after it, which is exactly layer i+1's input. The
// last layer's output is the tail of the buffer.
type Network struct {
	layers     []*layer.Layer
	offsets    []int
	bufferSize int
}

// New builds layers from specs and composes them. Weights not covered by a
// spec's Init are drawn from src; a nil src uses seed 0.
func New(src *weights.Source, specs ...layer.Spec) (*Network, error) {
	layers := make([]*layer.Layer, 0, len(specs))
	for i, s := range specs {
		l, err := layer.New(s)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers = append(layers, l)
	}
	return Build(layers, src)
}

// Build validates and wires the layers.
//
// The first layer's neurons each read their own input (one per neuron unless
// the spec declares Inputs), except in a single-layer network where all
// neurons share one input vector. Every later layer takes the previous
// layer's whole output: shared by all of its neurons, or split evenly across
// them when the spec is Independent.
func Build(layers []*layer.Layer, src *weights.Source) (*Network, error) {
	if len(layers) == 0 {
		return nil, ErrEmptyNetwork
	}
	if src == nil {
		src = weights.NewSource(0)
	}

	// Every shape is checked before any layer is configured, so a rejected
	// list leaves its layers free for another Build.
	shapes, err := plan(layers)
	if err != nil {
		return nil, err
	}
	single := len(layers) == 1
	for i, l := range layers {
		spec := l.Spec()
		init := spec.Init
		if init == nil {
			init = defaultInit(i, single, src)
		}
		sh := shapes[i]
		if err := l.Configure(sh.inputsPerNeuron, sh.outputsPerNeuron, sh.independent, !spec.Unweighted, init); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}

	n := &Network{layers: layers, offsets: make([]int, len(layers))}
	offset := 0
	for i, l := range layers {
		n.offsets[i] = offset
		offset += l.ExpectedInputs()
	}
	n.bufferSize = offset + layers[len(layers)-1].ExpectedOutputs()
	return n, nil
}

type shape struct {
	inputsPerNeuron  int
	outputsPerNeuron int
	independent      bool
}

// plan works out how each layer will be wired without touching it.
func plan(layers []*layer.Layer) ([]shape, error) {
	single := len(layers) == 1
	shapes := make([]shape, len(layers))
	seen := make(map[*layer.Layer]int, len(layers))
	prevOut := 0

	for i, l := range layers {
		if l == nil {
			return nil, fmt.Errorf("layer %d is nil", i)
		}
		if l.Configured() {
			return nil, fmt.Errorf("layer %d (%s) is already part of a network", i, l.Name())
		}
		if j, ok := seen[l]; ok {
			return nil, fmt.Errorf("layer %d (%s) is also layer %d", i, l.Name(), j)
		}
		seen[l] = i

		spec := l.Spec()
		if spec.Neurons == 0 {
			return nil, fmt.Errorf("layer %d (%s): %w", i, spec.Name, layer.ErrZeroNeurons)
		}
		sh := shape{outputsPerNeuron: spec.OutputsPerNeuron}
		if sh.outputsPerNeuron == 0 {
			sh.outputsPerNeuron = 1
		}

		switch {
		case i == 0 && single:
			sh.inputsPerNeuron = spec.Inputs
			if sh.inputsPerNeuron == 0 {
				sh.inputsPerNeuron = spec.Neurons
			}
		case i == 0:
			sh.independent = true
			sh.inputsPerNeuron = spec.Inputs
			if sh.inputsPerNeuron == 0 {
				sh.inputsPerNeuron = 1
			}
		default:
			sh.independent = spec.Independent
			sh.inputsPerNeuron = prevOut
			if sh.independent {
				if prevOut%spec.Neurons != 0 {
					return nil, fmt.Errorf("%w: layer %d (%s) has %d independent neurons but layer %d outputs %d values",
						ErrShapeMismatch, i, spec.Name, spec.Neurons, i-1, prevOut)
				}
				sh.inputsPerNeuron = prevOut / spec.Neurons
			}
			if spec.Inputs != 0 && spec.Inputs != sh.inputsPerNeuron {
				return nil, fmt.Errorf("%w: layer %d (%s) expects %d inputs per neuron, layer %d provides %d",
					ErrShapeMismatch, i, spec.Name, spec.Inputs, i-1, sh.inputsPerNeuron)
			}
		}

		shapes[i] = sh
		prevOut = spec.Neurons * sh.outputsPerNeuron
	}
	return shapes, nil
}

// defaultInit passes the input layer through unchanged and draws every
// other layer uniformly from [-1, 1).
func defaultInit(i int, single bool, src *weights.Source) weights.Strategy {
	if i == 0 && !single {
		return weights.Constant{Value: 1}
	}
	return src.Uniform(-1, 1)
}

// ExecuteToBuffer runs the forward pass over buf, whose first inputLength
// values hold the input. It returns a view of the last layer's output.
// Every intermediate output stays in buf for the backward pass.
func (n *Network) ExecuteToBuffer(buf []float64, inputLength int) ([]float64, error) {
	if inputLength != n.Inputs() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInputLength, inputLength, n.Inputs())
	}
	if len(buf) != n.bufferSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrBufferLength, len(buf), n.bufferSize)
	}

	for i, l := range n.layers {
		if err := l.Execute(n.LayerInput(buf, i), n.LayerOutput(buf, i)); err != nil {
			return nil, err
		}
	}
	return n.LayerOutput(buf, len(n.layers)-1), nil
}

// Execute runs input through a fresh buffer and returns the outputs.
func (n *Network) Execute(input []float64) ([]float64, error) {
	buf := n.NewBuffer()
	if len(input) != n.Inputs() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInputLength, len(input), n.Inputs())
	}
	copy(buf, input)
	return n.ExecuteToBuffer(buf, len(input))
}

// LayerInput returns layer i's input region of buf.
func (n *Network) LayerInput(buf []float64, i int) []float64 {
	start := n.offsets[i]
	return buf[start : start+n.layers[i].ExpectedInputs()]
}

// LayerOutput returns layer i's output region of buf.
func (n *Network) LayerOutput(buf []float64, i int) []float64 {
	start := n.offsets[i] + n.layers[i].ExpectedInputs()
	return buf[start : start+n.layers[i].ExpectedOutputs()]
}

// Offset returns where layer i's input region starts.
func (n *Network) Offset(i int) int {
	return n.offsets[i]
}

// NewBuffer allocates a buffer of BufferSize.
func (n *Network) NewBuffer() []float64 {
	return make([]float64, n.bufferSize)
}

// Clone deep-copies every layer so the copy can be trained independently.
func (n *Network) Clone() *Network {
	c := &Network{
		layers:     make([]*layer.Layer, len(n.layers)),
		offsets:    append([]int(nil), n.offsets...),
		bufferSize: n.bufferSize,
	}
	for i, l := range n.layers {
		c.layers[i] = l.Clone()
	}
	return c
}

// WeightCount returns the number of weights across all layers.
func (n *Network) WeightCount() int {
	total := 0
	for _, l := range n.layers {
		total += len(l.Weights())
	}
	return total
}

// Inputs returns the network's input arity.
func (n *Network) Inputs() int { return n.layers[0].ExpectedInputs() }

// Outputs returns the network's output arity.
func (n *Network) Outputs() int { return n.layers[len(n.layers)-1].ExpectedOutputs() }

// BufferSize returns the I/O buffer length.
func (n *Network) BufferSize() int { return n.bufferSize }

// Depth returns the number of layers.
func (n *Network) Depth() int { return len(n.layers) }

// Layer returns layer i.
func (n *Network) Layer(i int) *layer.Layer { return n.layers[i] }

// Layers returns the network's layers slice.
func (n *Network) Layers() []*layer.Layer { return n.layers }
