package net

import (
	"math"
	"math/rand"
)

// Spirals generates classes interleaved spiral arms of points each. Inputs
// are (x, y) in [-1, 1]; expected outputs are one-hot over the classes.
// noise scales the Gaussian jitter of each point's angle.
func Spirals(points, classes int, noise float64, r *rand.Rand) []TrainingSet {
	sets := make([]TrainingSet, 0, points*classes)
	for c := 0; c < classes; c++ {
		for i := 0; i < points; i++ {
			radius := float64(i) / float64(points)
			theta := float64(c)*2*math.Pi/float64(classes) + 4*radius + noise*r.NormFloat64()

			expected := make([]float64, classes)
			expected[c] = 1
			sets = append(sets, TrainingSet{
				Input:    []float64{radius * math.Sin(theta), radius * math.Cos(theta)},
				Expected: expected,
			})
		}
	}
	r.Shuffle(len(sets), func(i, j int) { sets[i], sets[j] = sets[j], sets[i] })
	return sets
}
