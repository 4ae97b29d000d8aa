package weights

import "math/rand"

// Source is the explicit random handle threaded through network
// construction. It hands out derived seeds so that each layer gets its own
// reproducible stream, and can be reseeded by the caller.
type Source struct {
	seed int64
	rnd  *rand.Rand
}

// NewSource creates a source starting at seed.
func NewSource(seed int64) *Source {
	s := &Source{}
	s.Reseed(seed)
	return s
}

// Reseed restarts the source from seed.
func (s *Source) Reseed(seed int64) {
	s.seed = seed
	s.rnd = rand.New(rand.NewSource(seed))
}

// Seed returns the seed the source was last (re)seeded with.
func (s *Source) Seed() int64 {
	return s.seed
}

// Next returns a derived seed.
func (s *Source) Next() int64 {
	return s.rnd.Int63()
}

// Rand exposes the underlying generator for stochastic steps such as
// shuffling training sets.
func (s *Source) Rand() *rand.Rand {
	return s.rnd
}

// Uniform returns a Uniform strategy seeded from the source.
func (s *Source) Uniform(min, max float64) Uniform {
	return Uniform{Min: min, Max: max, Seed: s.Next()}
}

// Normal returns a Normal strategy seeded from the source.
func (s *Source) Normal(stddev, mean float64) Normal {
	return Normal{StdDev: stddev, Mean: mean, Seed: s.Next()}
}
