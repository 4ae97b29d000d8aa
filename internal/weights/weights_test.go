package weights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstantFill(t *testing.T) {
	w := make([]float64, 5)
	Constant{Value: 0.5}.Fill(w)
	for i, v := range w {
		assert.Equal(t, 0.5, v, "w[%d]", i)
	}
}

func TestSeededStrategiesAreDeterministic(t *testing.T) {
	strategies := []Strategy{
		Uniform{Min: -1, Max: 1, Seed: 42},
		Normal{StdDev: 0.3, Mean: 0.1, Seed: 42},
		He(4, 3, 7),
	}

	for _, s := range strategies {
		a := make([]float64, 64)
		b := make([]float64, 64)
		s.Fill(a)
		s.Fill(b)
		assert.Equal(t, a, b, s.String())
	}
}

func TestDifferentSeedsDiffer(t *testing.T) {
	a := make([]float64, 16)
	b := make([]float64, 16)
	Uniform{Min: -1, Max: 1, Seed: 1}.Fill(a)
	Uniform{Min: -1, Max: 1, Seed: 2}.Fill(b)
	assert.NotEqual(t, a, b)
}

func TestUniformRange(t *testing.T) {
	w := make([]float64, 1000)
	Uniform{Min: -0.25, Max: 0.75, Seed: 3}.Fill(w)
	for _, v := range w {
		assert.GreaterOrEqual(t, v, -0.25)
		assert.Less(t, v, 0.75)
	}
}

func TestNormalIsClamped(t *testing.T) {
	const mean, sd = 2.0, 0.5
	w := make([]float64, 20000)
	Normal{StdDev: sd, Mean: mean, Seed: 11}.Fill(w)

	sum := 0.0
	for _, v := range w {
		assert.LessOrEqual(t, v, mean+clamp*sd)
		assert.GreaterOrEqual(t, v, mean-clamp*sd)
		sum += v
	}
	assert.InDelta(t, mean, sum/float64(len(w)), 0.02)
}

func TestSourceReseed(t *testing.T) {
	s := NewSource(5)
	first := []int64{s.Next(), s.Next(), s.Next()}

	s.Reseed(5)
	again := []int64{s.Next(), s.Next(), s.Next()}
	assert.Equal(t, first, again)
	assert.Equal(t, int64(5), s.Seed())

	s.Reseed(6)
	assert.NotEqual(t, first[0], s.Next())
}
