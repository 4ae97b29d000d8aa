// Package layer provides benchmarks for the neuron layer.
package layer

import (
	"math/rand"
	"testing"

	"github.com/DavidQChuang/SimpleAI/internal/activations"
	"github.com/DavidQChuang/SimpleAI/internal/weights"
)

// fillRandom fills a slice with random values.
func fillRandom(slice []float64) {
	r := rand.New(rand.NewSource(1))
	for i := range slice {
		slice[i] = r.Float64()
	}
}

func benchLayer(b *testing.B, spec Spec, ipn, opn int, independent bool) {
	b.Helper()
	l, err := New(spec)
	if err != nil {
		b.Fatal(err)
	}
	if err := l.Configure(ipn, opn, independent, true, weights.Uniform{Min: -1, Max: 1, Seed: 1}); err != nil {
		b.Fatal(err)
	}
	in := make([]float64, l.ExpectedInputs())
	out := make([]float64, l.ExpectedOutputs())
	fillRandom(in)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := l.Execute(in, out); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkExecute benchmarks a shared-input layer (typical MLP hidden layer).
func BenchmarkExecute(b *testing.B) {
	benchLayer(b, Spec{Neurons: 256, Activation: activations.Tanh}, 784, 1, false)
}

// BenchmarkExecuteLarge benchmarks a large shared-input layer.
func BenchmarkExecuteLarge(b *testing.B) {
	benchLayer(b, Spec{Neurons: 1024, Activation: activations.Sigmoid}, 1024, 1, false)
}

// BenchmarkExecuteIndependent benchmarks neurons reading their own slices.
func BenchmarkExecuteIndependent(b *testing.B) {
	benchLayer(b, Spec{Neurons: 256, Activation: activations.LeakyReLU}, 16, 1, true)
}

// BenchmarkExecuteSoftmax benchmarks the block pass of a softmax output.
func BenchmarkExecuteSoftmax(b *testing.B) {
	benchLayer(b, Spec{Neurons: 10, Activation: activations.Softmax}, 256, 1, false)
}

// BenchmarkExecuteBroadcast benchmarks neurons feeding several slots each.
func BenchmarkExecuteBroadcast(b *testing.B) {
	benchLayer(b, Spec{Neurons: 64, Activation: activations.ReLU}, 64, 4, false)
}
