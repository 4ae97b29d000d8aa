// Package weights provides the weight initialization policies and the
// seeded random source they draw from.
package weights

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Strategy fills a weight vector.
// Every strategy is deterministic: filling twice gives the same values.
type Strategy interface {
	Fill(w []float64)
	fmt.Stringer
}

// Constant sets every weight to Value.
type Constant struct {
	Value float64
}

func (c Constant) Fill(w []float64) {
	for i := range w {
		w[i] = c.Value
	}
}

func (c Constant) String() string { return fmt.Sprintf("constant(%g)", c.Value) }

// Uniform draws from [Min, Max) with a fixed seed.
type Uniform struct {
	Min, Max float64
	Seed     int64
}

func (u Uniform) Fill(w []float64) {
	r := rand.New(rand.NewSource(u.Seed))
	span := u.Max - u.Min
	for i := range w {
		w[i] = u.Min + r.Float64()*span
	}
}

func (u Uniform) String() string {
	return fmt.Sprintf("uniform(%g, %g, seed=%d)", u.Min, u.Max, u.Seed)
}

// clamp is the half width of the Normal draw range in standard deviations.
const clamp = 3.5

// Normal draws Gaussian weights restricted to Mean ± 3.5·StdDev.
// Draws are made by inverse transform: a uniform variate in
// [Φ(-3.5), Φ(3.5)] is mapped through the inverse normal CDF, so no
// value ever falls outside the clamp.
type Normal struct {
	StdDev, Mean float64
	Seed         int64
}

func (n Normal) Fill(w []float64) {
	r := rand.New(rand.NewSource(n.Seed))
	lo := distuv.UnitNormal.CDF(-clamp)
	hi := distuv.UnitNormal.CDF(clamp)
	for i := range w {
		p := lo + r.Float64()*(hi-lo)
		w[i] = n.Mean + n.StdDev*distuv.UnitNormal.Quantile(p)
	}
}

func (n Normal) String() string {
	return fmt.Sprintf("normal(stddev=%g, mean=%g, seed=%d)", n.StdDev, n.Mean, n.Seed)
}

// He returns a zero-mean Normal with stddev sqrt(2 / (neurons * inputsPerNeuron)).
func He(neurons, inputsPerNeuron int, seed int64) Normal {
	fan := neurons * inputsPerNeuron
	if fan < 1 {
		fan = 1
	}
	return Normal{StdDev: math.Sqrt(2 / float64(fan)), Seed: seed}
}
