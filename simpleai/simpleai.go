// Package simpleai is the public entry point: it re-exports the network,
// layer and trainer types and wraps the common build-and-train path.
package simpleai

import (
	"github.com/DavidQChuang/SimpleAI/internal/activations"
	"github.com/DavidQChuang/SimpleAI/internal/config"
	"github.com/DavidQChuang/SimpleAI/internal/layer"
	"github.com/DavidQChuang/SimpleAI/internal/net"
	"github.com/DavidQChuang/SimpleAI/internal/trainer"
	"github.com/DavidQChuang/SimpleAI/internal/weights"
)

// Re-export common types for easier access
type (
	Network         = net.Network
	LayerSpec       = layer.Spec
	Activation      = activations.Kind
	TrainingSet     = net.TrainingSet
	CSVOptions      = net.CSVOptions
	Hyperparameters = trainer.Hyperparameters
	Rule            = trainer.Rule
	Result          = trainer.Result
	Status          = trainer.Status
	Callback        = trainer.Callback
	Source          = weights.Source
	Experiment      = config.Experiment
)

// Activations
const (
	Step      = activations.Step
	Linear    = activations.Linear
	Sigmoid   = activations.Sigmoid
	Tanh      = activations.Tanh
	ReLU      = activations.ReLU
	LeakyReLU = activations.LeakyReLU
	GELU      = activations.GELU
	Softmax   = activations.Softmax
	Argmax    = activations.Argmax
)

// Outcomes
const (
	Failed    = trainer.Failed
	Converged = trainer.Converged
	Exhausted = trainer.Exhausted
	Diverged  = trainer.Diverged
	Stopped   = trainer.Stopped
)

// Build composes a network whose random weights derive from seed.
func Build(seed int64, specs ...LayerSpec) (*Network, error) {
	return net.New(weights.NewSource(seed), specs...)
}

// NewSource creates a seeded random source for Network construction.
func NewSource(seed int64) *Source {
	return weights.NewSource(seed)
}

// Layer describes a layer of neurons with the given activation.
func Layer(neurons int, act Activation, name string) LayerSpec {
	return LayerSpec{Neurons: neurons, Activation: act, Name: name}
}

// Sets pairs inputs with expected outputs. expected may be nil.
func Sets(inputs, expected [][]float64) []TrainingSet {
	return net.Sets(inputs, expected)
}

// LoadCSV loads training sets from a CSV file.
func LoadCSV(filename string, opts CSVOptions) ([]TrainingSet, error) {
	return net.LoadCSV(filename, opts)
}

// Defaults returns the default hyperparameters.
func Defaults() Hyperparameters {
	return trainer.Defaults()
}

// Trainers
func Perceptron() Rule         { return trainer.NewPerceptron() }
func Adaline() Rule            { return trainer.NewAdaline() }
func Backpropagation() Rule    { return trainer.NewBackprop() }
func LevenbergMarquardt() Rule { return trainer.NewLevenbergMarquardt() }
func WTA() Rule                { return trainer.NewWTA() }
func Kohonen() Rule            { return trainer.NewKohonen() }

// ParseRule returns a trainer by name, such as "backprop" or "lm".
func ParseRule(name string) (Rule, error) {
	return trainer.ParseRule(name)
}

// Train trains n in place.
func Train(n *Network, rule Rule, hp Hyperparameters, sets []TrainingSet, cbs ...Callback) (Result, error) {
	return trainer.New(rule, hp, trainer.WithCallbacks(cbs...)).Train(n, sets)
}

// TrainCopy trains a clone of n and returns it, leaving n untouched.
func TrainCopy(n *Network, rule Rule, hp Hyperparameters, sets []TrainingSet, cbs ...Callback) (*Network, Result, error) {
	return trainer.New(rule, hp, trainer.WithCallbacks(cbs...)).TrainCopy(n, sets)
}

// LoadExperiment reads an experiment file.
func LoadExperiment(path string) (*Experiment, error) {
	return config.Load(path)
}

// Preset returns a built-in experiment by name.
func Preset(name string) (*Experiment, error) {
	return config.Preset(name)
}
