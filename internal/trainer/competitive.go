package trainer

import (
	"math"

	"github.com/DavidQChuang/SimpleAI/internal/net"
	"github.com/DavidQChuang/SimpleAI/internal/opt"
	"gonum.org/v1/gonum/floats"
)

// Winner returns the output-layer neuron with the largest summed output.
// Ties go to the lowest index.
func Winner(n *net.Network, buf []float64) int {
	last := n.Depth() - 1
	l := n.Layer(last)
	out := n.LayerOutput(buf, last)
	opn := l.OutputsPerNeuron()

	winner := 0
	best := math.Inf(-1)
	for nIdx := 0; nIdx < l.Size(); nIdx++ {
		sum := floats.Sum(out[nIdx*opn : (nIdx+1)*opn])
		if sum > best {
			winner = nIdx
			best = sum
		}
	}
	return winner
}

// competitive holds what WTA and Kohonen share: the topology check and the
// quantization error used as their cost.
type competitive struct{}

func (competitive) Supervised() bool { return false }

// Cost is the mean squared distance between the winner's weights and the
// input slice it reads.
func (competitive) Cost(n *net.Network, buf []float64, set net.TrainingSet) float64 {
	last := n.Depth() - 1
	l := n.Layer(last)
	winner := Winner(n, buf)
	in := n.LayerInput(buf, last)
	start := l.InputStart(winner)
	w := l.NeuronWeights(winner)
	if len(w) == 0 {
		return 0
	}
	d := floats.Distance(in[start:start+len(w)], w, 2)
	return d * d / float64(len(w))
}

// pull moves neuron nIdx's weights toward its input by rate.
func pull(n *net.Network, buf []float64, nIdx int, rate float64) {
	last := n.Depth() - 1
	l := n.Layer(last)
	in := n.LayerInput(buf, last)
	start := l.InputStart(nIdx)
	w := l.NeuronWeights(nIdx)
	for i := range w {
		w[i] += rate * (in[start+i] - w[i])
	}
}

// WTA is competitive learning. Only the winner moves toward the input:
//
//	Δw = η·(input - w)
type WTA struct {
	competitive
	rate float64
}

// NewWTA creates the Winner-Takes-All rule.
func NewWTA() *WTA { return &WTA{} }

func (r *WTA) Name() string { return "winner-takes-all" }

func (r *WTA) Check(n *net.Network) error { return checkSingleLayer(r.Name(), n) }

func (r *WTA) Begin(n *net.Network, hp Hyperparameters) error {
	r.rate = hp.LearningRate
	return nil
}

func (r *WTA) Update(n *net.Network, buf []float64, set net.TrainingSet) error {
	pull(n, buf, Winner(n, buf), r.rate)
	return nil
}

func (r *WTA) EndEpoch(n *net.Network, epoch int, mse float64) error { return nil }

// Neighborhood weights the update of neuron n when winner won. A zero
// weight leaves the neuron alone.
type Neighborhood interface {
	Weight(winner, n, epoch int) float64
}

// WinnerOnly updates the winner alone.
type WinnerOnly struct{}

func (WinnerOnly) Weight(winner, n, epoch int) float64 {
	if n == winner {
		return 1
	}
	return 0
}

// Kohonen extends WTA with a learning rate that decays over the run and a
// neighborhood around the winner:
//
//	Δw[n] = rate(epoch)·h(winner, n, epoch)·(input - w[n])
type Kohonen struct {
	competitive

	// Neighborhood defaults to WinnerOnly.
	Neighborhood Neighborhood
	// Schedule defaults to a linear decay from the learning rate to zero
	// over the epoch cap.
	Schedule opt.Schedule

	schedule opt.Schedule
	epoch    int
}

// NewKohonen creates the Kohonen rule.
func NewKohonen() *Kohonen { return &Kohonen{} }

func (r *Kohonen) Name() string { return "kohonen" }

func (r *Kohonen) Check(n *net.Network) error { return checkSingleLayer(r.Name(), n) }

func (r *Kohonen) Begin(n *net.Network, hp Hyperparameters) error {
	if r.Neighborhood == nil {
		r.Neighborhood = WinnerOnly{}
	}
	r.schedule = r.Schedule
	if r.schedule == nil {
		r.schedule = opt.LinearDecay{Initial: hp.LearningRate, Epochs: hp.EpochTarget}
	}
	r.epoch = 0
	return nil
}

// Rate returns the learning rate of the current epoch.
func (r *Kohonen) Rate() float64 { return r.schedule.Rate(r.epoch) }

func (r *Kohonen) Update(n *net.Network, buf []float64, set net.TrainingSet) error {
	winner := Winner(n, buf)
	rate := r.Rate()
	for nIdx := 0; nIdx < n.Layer(n.Depth()-1).Size(); nIdx++ {
		h := r.Neighborhood.Weight(winner, nIdx, r.epoch)
		if h == 0 {
			continue
		}
		pull(n, buf, nIdx, rate*h)
	}
	return nil
}

func (r *Kohonen) EndEpoch(n *net.Network, epoch int, mse float64) error {
	r.epoch = epoch
	return nil
}
