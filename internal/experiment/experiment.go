// Package experiment builds the network and data an experiment describes,
// trains a copy of the network and reports on the outcome.
package experiment

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/DavidQChuang/SimpleAI/internal/config"
	"github.com/DavidQChuang/SimpleAI/internal/net"
	"github.com/DavidQChuang/SimpleAI/internal/report"
	"github.com/DavidQChuang/SimpleAI/internal/trainer"
	"github.com/DavidQChuang/SimpleAI/internal/weights"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// Outcome is what a run produced. Before is never modified by training.
type Outcome struct {
	Before *net.Network
	After  *net.Network
	Sets   []net.TrainingSet
	Result trainer.Result

	// Holdout sets were kept out of training; HoldoutMSE is their mean cost
	// on After.
	Holdout    []net.TrainingSet
	HoldoutMSE float64
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where reports are written. io.Discard silences them.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithLogger sets the logger handed to the trainer.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithCallbacks adds trainer callbacks to every run.
func WithCallbacks(cbs ...trainer.Callback) Option {
	return func(r *Runner) { r.callbacks = append(r.callbacks, cbs...) }
}

// WithSeed overrides the experiment's seed.
func WithSeed(seed int64) Option {
	return func(r *Runner) { r.seed = &seed }
}

// Runner runs experiments.
type Runner struct {
	out       io.Writer
	log       zerolog.Logger
	callbacks []trainer.Callback
	seed      *int64
}

// NewRunner creates a runner that reports to io.Discard and logs nothing
// unless configured otherwise.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{out: io.Discard, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run trains a copy of the experiment's network. A run that ended in a
// fatal error is still reported, and its partial Outcome returned with the
// error.
func (r *Runner) Run(e *config.Experiment) (Outcome, error) {
	seed := e.Seed
	if r.seed != nil {
		seed = *r.seed
	}
	src := weights.NewSource(seed)
	log := r.log.With().Str("experiment", e.Name).Int64("seed", seed).Logger()

	n, err := Network(e, src)
	if err != nil {
		return Outcome{}, err
	}
	sets, err := Data(e, src.Rand())
	if err != nil {
		return Outcome{}, err
	}
	rule, err := e.Rule()
	if err != nil {
		return Outcome{}, err
	}
	var holdout []net.TrainingSet
	if e.Data.Holdout > 0 {
		sets, holdout = net.Split(sets, 1-e.Data.Holdout)
	}

	hp := e.Hyperparameters
	interval := hp.EpochTarget / 15
	if interval < 1 {
		interval = 1
	}
	callbacks := append([]trainer.Callback{trainer.NewLogger(log, interval)}, r.callbacks...)
	t := trainer.New(rule, hp, trainer.WithLogger(log), trainer.WithCallbacks(callbacks...))

	if e.Description != "" {
		fmt.Fprintf(r.out, "%s: %s\n\n", e.Name, e.Description)
	}
	fmt.Fprintf(r.out, "### NETWORK ###\n")
	report.Network(r.out, n)

	fmt.Fprintf(r.out, "\n### TRAINING NETWORK ###\n")
	trained, res, err := t.TrainCopy(n, sets)
	out := Outcome{Before: n, After: trained, Sets: sets, Result: res, Holdout: holdout}

	fmt.Fprintf(r.out, "\n### NETWORK AFTER TRAINING ###\n")
	if cerr := report.Change(r.out, n, trained); cerr != nil {
		return out, cerr
	}
	report.Summary(r.out, res)
	if res.History != nil && res.History.Len() > 0 {
		fmt.Fprintln(r.out)
		report.Trend(r.out, res.History)
	}
	if err != nil {
		return out, err
	}

	if rule.Supervised() {
		fmt.Fprintf(r.out, "\n### RESULTS ###\n")
		report.Results(r.out, trained, sets)
		if len(holdout) == 0 {
			return out, nil
		}
		costs, err := t.Evaluate(trained, holdout)
		if err != nil {
			return out, err
		}
		out.HoldoutMSE = stat.Mean(costs, nil)
		fmt.Fprintf(r.out, "\n### HOLDOUT ###\n")
		report.Results(r.out, trained, holdout)
		fmt.Fprintf(r.out, "Holdout MSE: %e\n", out.HoldoutMSE)
		return out, nil
	}

	fmt.Fprintf(r.out, "\n### VERIFICATION ###\n")
	validation := e.Data.Validation
	if len(validation) == 0 {
		validation = make([][]float64, len(sets))
		for i, s := range sets {
			validation[i] = s.Input
		}
	}
	report.Clusters(r.out, trained, validation)
	return out, nil
}

// Network builds the experiment's network from src. Layers asking for He
// initialization are filled once their fan-in is known.
func Network(e *config.Experiment, src *weights.Source) (*net.Network, error) {
	specs, err := e.Specs(src)
	if err != nil {
		return nil, err
	}
	n, err := net.New(src, specs...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	for i, l := range e.Layers {
		if !l.He() {
			continue
		}
		nl := n.Layer(i)
		weights.He(nl.Size(), nl.InputsPerNeuron(), src.Next()).Fill(nl.Weights())
	}
	return n, nil
}

// Data loads or generates the experiment's training sets. r shuffles CSV
// rows when asked to and drives the generators.
func Data(e *config.Experiment, r *rand.Rand) ([]net.TrainingSet, error) {
	d := e.Data
	switch {
	case d.CSV != nil:
		opts := net.CSVOptions{
			Inputs:  d.CSV.Inputs,
			Outputs: d.CSV.Outputs,
			OneHot:  d.CSV.OneHot,
			Header:  d.CSV.Header,
			Stride:  d.CSV.Stride,
		}
		if d.CSV.Shuffle {
			opts.Shuffle = r
		}
		sets, err := net.LoadCSV(d.CSV.Path, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.CSV.Path, err)
		}
		if d.CSV.Normalize {
			net.Normalize(sets)
		}
		return sets, nil
	case d.Spirals != nil:
		return net.Spirals(d.Spirals.Points, d.Spirals.Classes, d.Spirals.Noise, r), nil
	case len(d.Inputs) > 0:
		expected := d.Expected
		if len(expected) != len(d.Inputs) {
			expected = nil
		}
		return net.Sets(d.Inputs, expected), nil
	}
	return nil, config.ErrNoData
}
