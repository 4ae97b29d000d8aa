package trainer

import (
	"fmt"

	"github.com/DavidQChuang/SimpleAI/internal/net"
	"github.com/DavidQChuang/SimpleAI/internal/opt"
)

// checkSingleLayer accepts one in/out layer or an input layer followed by
// one output layer.
func checkSingleLayer(name string, n *net.Network) error {
	if n.Depth() > 2 {
		return fmt.Errorf("%w: %s trainer requires 1 inout layer or 1 in + 1 out layer, got %d layers",
			ErrTopology, name, n.Depth())
	}
	if !n.Layer(n.Depth() - 1).UsesWeights() {
		return fmt.Errorf("%w: %s trainer needs a weighted output layer", ErrTopology, name)
	}
	return nil
}

// neuronError sums target - output over neuron nIdx's output slots.
func neuronError(out, expected []float64, nIdx, opn int) float64 {
	e := 0.0
	for o := nIdx * opn; o < (nIdx+1)*opn; o++ {
		e += expected[o] - out[o]
	}
	return e
}

// Perceptron moves the output layer's weights in the direction of the error:
//
//	Δw = η·(target - output)·input
type Perceptron struct {
	rate float64
}

// NewPerceptron creates the Perceptron rule.
func NewPerceptron() *Perceptron { return &Perceptron{} }

func (p *Perceptron) Name() string     { return "perceptron" }
func (p *Perceptron) Supervised() bool { return true }

func (p *Perceptron) Check(n *net.Network) error {
	return checkSingleLayer(p.Name(), n)
}

func (p *Perceptron) Begin(n *net.Network, hp Hyperparameters) error {
	p.rate = hp.LearningRate
	return nil
}

func (p *Perceptron) Update(n *net.Network, buf []float64, set net.TrainingSet) error {
	last := n.Depth() - 1
	l := n.Layer(last)
	in := n.LayerInput(buf, last)
	out := n.LayerOutput(buf, last)

	for nIdx := 0; nIdx < l.Size(); nIdx++ {
		e := neuronError(out, set.Expected, nIdx, l.OutputsPerNeuron())
		if e == 0 {
			continue
		}
		start := l.InputStart(nIdx)
		w := l.NeuronWeights(nIdx)
		for i := range w {
			w[i] += p.rate * e * in[start+i]
		}
	}
	return nil
}

func (p *Perceptron) EndEpoch(n *net.Network, epoch int, mse float64) error { return nil }

// Adaline is the LMS rule for a single linear unit, scaled by the
// activation's derivative and smoothed by optional momentum:
//
//	Δw = η·(target - output)·input·f'(sum) + momentum·Δw_prev
type Adaline struct {
	step  *opt.Momentum
	grads []float64
}

// NewAdaline creates the Adaline rule.
func NewAdaline() *Adaline { return &Adaline{} }

func (a *Adaline) Name() string     { return "adaline" }
func (a *Adaline) Supervised() bool { return true }

func (a *Adaline) Check(n *net.Network) error {
	if err := checkSingleLayer(a.Name(), n); err != nil {
		return err
	}
	if n.Outputs() != 1 {
		return fmt.Errorf("%w: adaline trainer requires 1 output, got %d", ErrTopology, n.Outputs())
	}
	return nil
}

func (a *Adaline) Begin(n *net.Network, hp Hyperparameters) error {
	a.step = opt.NewMomentum(hp.LearningRate, hp.Momentum)
	size := len(n.Layer(n.Depth() - 1).Weights())
	a.step.Reset(size)
	a.grads = make([]float64, size)
	return nil
}

func (a *Adaline) Update(n *net.Network, buf []float64, set net.TrainingSet) error {
	last := n.Depth() - 1
	l := n.Layer(last)
	in := n.LayerInput(buf, last)
	out := n.LayerOutput(buf, last)

	e := set.Expected[0] - out[0]
	d := e * l.DerivativeAt(l.Sum(0), 0)
	for i, x := range in {
		a.grads[i] = d * x
	}
	a.step.StepInPlace(0, l.NeuronWeights(0), a.grads)
	return nil
}

func (a *Adaline) EndEpoch(n *net.Network, epoch int, mse float64) error { return nil }
