// Package config reads experiment descriptions: the layers of a network,
// the trainer that fits it, its hyperparameters and where the data comes
// from.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/DavidQChuang/SimpleAI/internal/activations"
	"github.com/DavidQChuang/SimpleAI/internal/layer"
	"github.com/DavidQChuang/SimpleAI/internal/opt"
	"github.com/DavidQChuang/SimpleAI/internal/trainer"
	"github.com/DavidQChuang/SimpleAI/internal/weights"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoLayers = errors.New("experiment has no layers")
	ErrNoData   = errors.New("experiment has no data source")
)

// Init selects a weight policy for one layer.
type Init struct {
	// Kind is constant, uniform, normal or he.
	Kind   string  `yaml:"kind"`
	Value  float64 `yaml:"value"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	StdDev float64 `yaml:"stddev"`
	Mean   float64 `yaml:"mean"`
}

// Layer is the file form of layer.Spec.
type Layer struct {
	Neurons          int    `yaml:"neurons"`
	Activation       string `yaml:"activation"`
	Name             string `yaml:"name"`
	Independent      bool   `yaml:"independent"`
	Unweighted       bool   `yaml:"unweighted"`
	OutputsPerNeuron int    `yaml:"outputs_per_neuron"`
	Inputs           int    `yaml:"inputs"`
	Init             *Init  `yaml:"init"`
}

// He reports whether the layer asks for He initialization, which can only
// be applied once the composer has fixed the layer's fan-in.
func (l Layer) He() bool { return l.Init != nil && l.Init.Kind == "he" }

// Levenberg holds the damping settings of the levenberg-marquardt trainer.
type Levenberg struct {
	Damping     float64 `yaml:"damping"`
	Beta        float64 `yaml:"beta"`
	RejectWorse bool    `yaml:"reject_worse"`
}

// Schedule picks how the kohonen learning rate changes from epoch to epoch.
// Every kind starts from the learning rate.
type Schedule struct {
	// Kind is linear, exponential, step or constant.
	Kind     string  `yaml:"kind"`
	Min      float64 `yaml:"min"`
	Gamma    float64 `yaml:"gamma"`
	StepSize int     `yaml:"step_size"`
}

// Kohonen holds the settings of the kohonen trainer.
type Kohonen struct {
	// Schedule defaults to a linear decay to zero over the epoch cap.
	Schedule *Schedule `yaml:"schedule"`
}

func (s *Schedule) build(hp trainer.Hyperparameters) (opt.Schedule, error) {
	switch s.Kind {
	case "", "linear":
		return opt.LinearDecay{Initial: hp.LearningRate, Epochs: hp.EpochTarget, Min: s.Min}, nil
	case "constant":
		return opt.ConstantRate(hp.LearningRate), nil
	case "exponential":
		if s.Gamma <= 0 {
			return nil, fmt.Errorf("kohonen: exponential schedule needs a positive gamma, got %v", s.Gamma)
		}
		return opt.ExponentialDecay{Initial: hp.LearningRate, Gamma: s.Gamma}, nil
	case "step":
		if s.Gamma <= 0 || s.StepSize <= 0 {
			return nil, fmt.Errorf("kohonen: step schedule needs a positive gamma and step_size, got %v and %d", s.Gamma, s.StepSize)
		}
		return opt.StepDecay{Initial: hp.LearningRate, StepSize: s.StepSize, Gamma: s.Gamma}, nil
	}
	return nil, fmt.Errorf("kohonen: unknown schedule %q", s.Kind)
}

// CSV points at a file of training rows.
type CSV struct {
	Path      string `yaml:"path"`
	Inputs    int    `yaml:"inputs"`
	Outputs   int    `yaml:"outputs"`
	OneHot    bool   `yaml:"one_hot"`
	Header    bool   `yaml:"header"`
	Stride    int    `yaml:"stride"`
	Shuffle   bool   `yaml:"shuffle"`
	Normalize bool   `yaml:"normalize"`
}

// Spirals generates interleaved spiral arms, one class per arm.
type Spirals struct {
	Points  int     `yaml:"points"`
	Classes int     `yaml:"classes"`
	Noise   float64 `yaml:"noise"`
}

// Data lists the training sets inline or names a source for them.
// Exactly one of Inputs, CSV and Spirals is set.
type Data struct {
	Inputs   [][]float64 `yaml:"inputs"`
	Expected [][]float64 `yaml:"expected"`

	// Validation vectors are only run through the trained network.
	Validation [][]float64 `yaml:"validation"`

	// Holdout is the fraction of the sets, taken from the end, kept out of
	// training and scored afterwards. Supervised trainers only.
	Holdout float64 `yaml:"holdout"`

	CSV     *CSV     `yaml:"csv"`
	Spirals *Spirals `yaml:"spirals"`
}

// Experiment is one network, one trainer and its data.
type Experiment struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Seed        int64  `yaml:"seed"`

	Layers []Layer `yaml:"layers"`

	Trainer         string                  `yaml:"trainer"`
	Hyperparameters trainer.Hyperparameters `yaml:"hyperparameters"`
	Levenberg       Levenberg               `yaml:"levenberg"`
	Kohonen         Kohonen                 `yaml:"kohonen"`

	Data Data `yaml:"data"`
}

// Load reads and validates an experiment file.
func Load(path string) (*Experiment, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment: %w", err)
	}
	e, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// Parse decodes an experiment. Hyperparameters missing from the document
// keep trainer.Defaults.
func Parse(b []byte) (*Experiment, error) {
	e := &Experiment{Hyperparameters: trainer.Defaults()}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(e); err != nil {
		return nil, fmt.Errorf("failed to decode experiment: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks the experiment without building anything.
func (e *Experiment) Validate() error {
	if len(e.Layers) == 0 {
		return ErrNoLayers
	}
	for i, l := range e.Layers {
		if l.Neurons <= 0 {
			return fmt.Errorf("layer %d: %w", i, layer.ErrZeroNeurons)
		}
		if l.Inputs < 0 || l.OutputsPerNeuron < 0 {
			return fmt.Errorf("layer %d: %w", i, layer.ErrNegativeCount)
		}
		if _, err := parseActivation(l.Activation); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		if l.Init != nil {
			switch l.Init.Kind {
			case "constant", "uniform", "normal", "he":
			default:
				return fmt.Errorf("layer %d: unknown init %q", i, l.Init.Kind)
			}
		}
	}

	rule, err := e.Rule()
	if err != nil {
		return err
	}
	if err := e.Hyperparameters.Validate(); err != nil {
		return err
	}
	return e.Data.validate(rule.Supervised())
}

func (d Data) validate(supervised bool) error {
	sources := 0
	if len(d.Inputs) > 0 {
		sources++
	}
	if d.CSV != nil {
		sources++
	}
	if d.Spirals != nil {
		sources++
	}
	switch {
	case sources == 0:
		return ErrNoData
	case sources > 1:
		return errors.New("data: inputs, csv and spirals are exclusive")
	}

	switch {
	case len(d.Inputs) > 0 && supervised && len(d.Expected) != len(d.Inputs):
		return fmt.Errorf("data: %d inputs but %d expected outputs", len(d.Inputs), len(d.Expected))
	case d.CSV != nil && d.CSV.Path == "":
		return errors.New("data: csv path is empty")
	case d.CSV != nil && (d.CSV.Inputs <= 0 || d.CSV.Outputs <= 0):
		return errors.New("data: csv inputs and outputs must be positive")
	case d.Spirals != nil && (d.Spirals.Points <= 0 || d.Spirals.Classes <= 0):
		return errors.New("data: spirals points and classes must be positive")
	case d.Holdout < 0 || d.Holdout >= 1:
		return fmt.Errorf("data: holdout must be in [0, 1), got %v", d.Holdout)
	case d.Holdout > 0 && !supervised:
		return errors.New("data: holdout needs a supervised trainer")
	}
	return nil
}

func parseActivation(name string) (activations.Kind, error) {
	if name == "" {
		return activations.Linear, nil
	}
	return activations.ParseKind(name)
}

// Rule returns a fresh trainer rule configured from the experiment.
func (e *Experiment) Rule() (trainer.Rule, error) {
	rule, err := trainer.ParseRule(e.Trainer)
	if err != nil {
		return nil, err
	}
	if lm, ok := rule.(*trainer.LevenbergMarquardt); ok {
		lm.Damping = e.Levenberg.Damping
		lm.Beta = e.Levenberg.Beta
		lm.RejectWorse = e.Levenberg.RejectWorse
	}
	if k, ok := rule.(*trainer.Kohonen); ok && e.Kohonen.Schedule != nil {
		k.Schedule, err = e.Kohonen.Schedule.build(e.Hyperparameters)
		if err != nil {
			return nil, err
		}
	}
	return rule, nil
}

// Specs converts the layers. Random policies draw their seeds from src in
// layer order. He layers get no policy here; see Layer.He.
func (e *Experiment) Specs(src *weights.Source) ([]layer.Spec, error) {
	specs := make([]layer.Spec, len(e.Layers))
	for i, l := range e.Layers {
		kind, err := parseActivation(l.Activation)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		specs[i] = layer.Spec{
			Neurons:          l.Neurons,
			Activation:       kind,
			Name:             l.Name,
			Independent:      l.Independent,
			Unweighted:       l.Unweighted,
			OutputsPerNeuron: l.OutputsPerNeuron,
			Inputs:           l.Inputs,
		}
		if l.Init == nil {
			continue
		}
		switch l.Init.Kind {
		case "constant":
			specs[i].Init = weights.Constant{Value: l.Init.Value}
		case "uniform":
			specs[i].Init = src.Uniform(l.Init.Min, l.Init.Max)
		case "normal":
			specs[i].Init = src.Normal(l.Init.StdDev, l.Init.Mean)
		}
	}
	return specs, nil
}
