package trainer

import (
	"fmt"

	"github.com/DavidQChuang/SimpleAI/internal/net"
	"github.com/DavidQChuang/SimpleAI/internal/opt"
)

// softmaxEpsilon keeps the normalized-output error finite at zero outputs.
const softmaxEpsilon = 1e-9

// backward walks a network from the output layer to the input layer over a
// buffer holding a completed forward pass.
type backward struct {
	// upstream error per layer, sized to the layer's input region
	upstream [][]float64
	outErr   []float64
}

func newBackward(n *net.Network) *backward {
	b := &backward{
		upstream: make([][]float64, n.Depth()),
		outErr:   make([]float64, n.Outputs()),
	}
	for i, l := range n.Layers() {
		b.upstream[i] = make([]float64, l.ExpectedInputs())
	}
	return b
}

// outputError fills the output layer's error terms, target - output, or
// (target - output) / (output + ε) for a normalized output layer.
func (b *backward) outputError(n *net.Network, buf, expected []float64) []float64 {
	last := n.Depth() - 1
	out := n.LayerOutput(buf, last)
	normalized := n.Layer(last).Normalized()
	for i := range b.outErr {
		e := expected[i] - out[i]
		if normalized {
			e /= out[i] + softmaxEpsilon
		}
		b.outErr[i] = e
	}
	return b.outErr
}

// walk propagates outErr back through every layer. For each weight it calls
// fn(layer, index, delta·input) after the weight's contribution to the
// upstream error has been taken, so fn may change the weight.
func (b *backward) walk(n *net.Network, buf, outErr []float64, fn func(layer, w int, g float64)) {
	incoming := outErr
	for li := n.Depth() - 1; li >= 0; li-- {
		l := n.Layer(li)
		in := n.LayerInput(buf, li)
		up := b.upstream[li]
		for i := range up {
			up[i] = 0
		}

		ipn := l.InputsPerNeuron()
		opn := l.OutputsPerNeuron()
		for nIdx := 0; nIdx < l.Size(); nIdx++ {
			e := 0.0
			for o := nIdx * opn; o < (nIdx+1)*opn; o++ {
				e += incoming[o]
			}
			delta := e * l.DerivativeAt(l.Sum(nIdx), nIdx*opn)

			start := l.InputStart(nIdx)
			if !l.UsesWeights() {
				for i := 0; i < ipn; i++ {
					up[start+i] += delta
				}
				continue
			}
			w := l.NeuronWeights(nIdx)
			for i := 0; i < ipn; i++ {
				up[start+i] += delta * w[i]
				fn(li, nIdx*ipn+i, delta*in[start+i])
			}
		}
		incoming = up
	}
}

// Backprop is online gradient descent through every layer with optional
// momentum:
//
//	delta[n] = incoming[n]·f'(sum[n])
//	Δw[n,i] = η·delta[n]·input[i] + momentum·Δw_prev
type Backprop struct {
	step *opt.Momentum
	back *backward
}

// NewBackprop creates the Backpropagation rule.
func NewBackprop() *Backprop { return &Backprop{} }

func (b *Backprop) Name() string     { return "backpropagation" }
func (b *Backprop) Supervised() bool { return true }

func (b *Backprop) Check(n *net.Network) error {
	if n.Depth() < 2 {
		return fmt.Errorf("%w: backpropagation requires at least 2 layers, got %d", ErrTopology, n.Depth())
	}
	return nil
}

func (b *Backprop) Begin(n *net.Network, hp Hyperparameters) error {
	b.step = opt.NewMomentum(hp.LearningRate, hp.Momentum)
	sizes := make([]int, n.Depth())
	for i, l := range n.Layers() {
		sizes[i] = len(l.Weights())
	}
	b.step.Reset(sizes...)
	b.back = newBackward(n)
	return nil
}

func (b *Backprop) Update(n *net.Network, buf []float64, set net.TrainingSet) error {
	outErr := b.back.outputError(n, buf, set.Expected)
	b.back.walk(n, buf, outErr, func(li, w int, g float64) {
		n.Layer(li).Weights()[w] += b.step.Delta(li, w, g)
	})
	return nil
}

func (b *Backprop) EndEpoch(n *net.Network, epoch int, mse float64) error { return nil }
