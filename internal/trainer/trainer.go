// Package trainer runs the epoch loop shared by every learning rule and
// implements the rules themselves.
package trainer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/DavidQChuang/SimpleAI/internal/loss"
	"github.com/DavidQChuang/SimpleAI/internal/net"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNoTrainingSets  = errors.New("no training sets")
	ErrArity           = errors.New("training set does not match network arity")
	ErrTopology        = errors.New("network topology not supported by trainer")
	ErrHyperparameters = errors.New("invalid hyperparameters")
)

// DefaultDivergenceCeiling is the mean MSE above which a run is halted.
const DefaultDivergenceCeiling = 1e8

// Hyperparameters are shared by all rules.
type Hyperparameters struct {
	LearningRate float64 `yaml:"learning_rate"`
	ErrorTarget  float64 `yaml:"error_target"`
	EpochTarget  int     `yaml:"epochs"`
	Momentum     float64 `yaml:"momentum"`

	// DivergenceCeiling halts the run when the mean MSE exceeds it.
	// Zero means DefaultDivergenceCeiling.
	DivergenceCeiling float64 `yaml:"divergence_ceiling"`
}

// Defaults returns learning rate 0.1, error target 0.002 and 1000 epochs.
func Defaults() Hyperparameters {
	return Hyperparameters{
		LearningRate:      0.1,
		ErrorTarget:       0.002,
		EpochTarget:       1000,
		DivergenceCeiling: DefaultDivergenceCeiling,
	}
}

// Validate checks the ranges of every field.
func (hp Hyperparameters) Validate() error {
	switch {
	case hp.EpochTarget <= 0:
		return fmt.Errorf("%w: epochs must be positive, got %d", ErrHyperparameters, hp.EpochTarget)
	case hp.LearningRate < 0 || math.IsNaN(hp.LearningRate):
		return fmt.Errorf("%w: learning rate must not be negative, got %v", ErrHyperparameters, hp.LearningRate)
	case hp.ErrorTarget < 0 || math.IsNaN(hp.ErrorTarget):
		return fmt.Errorf("%w: error target must not be negative, got %v", ErrHyperparameters, hp.ErrorTarget)
	case hp.Momentum < 0 || hp.Momentum >= 1:
		return fmt.Errorf("%w: momentum must be in [0, 1), got %v", ErrHyperparameters, hp.Momentum)
	case hp.DivergenceCeiling < 0:
		return fmt.Errorf("%w: divergence ceiling must not be negative, got %v", ErrHyperparameters, hp.DivergenceCeiling)
	}
	return nil
}

func (hp Hyperparameters) ceiling() float64 {
	if hp.DivergenceCeiling == 0 {
		return DefaultDivergenceCeiling
	}
	return hp.DivergenceCeiling
}

// Status is how a run ended.
type Status int

const (
	// Failed means a fatal error aborted the run.
	Failed Status = iota
	// Converged means the mean MSE reached the error target.
	Converged
	// Exhausted means the epoch cap was reached first.
	Exhausted
	// Diverged means the mean MSE exceeded the divergence ceiling or became NaN.
	Diverged
	// Stopped means a callback asked the run to stop.
	Stopped
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "Succeeded - Reached minimum MSE target"
	case Exhausted:
		return "Failed - Reached epoch limit"
	case Diverged:
		return "Failed - Diverged"
	case Stopped:
		return "Stopped - No improvement"
	default:
		return "[ FAILED ]"
	}
}

// Succeeded reports whether the run reached its error target.
func (s Status) Succeeded() bool { return s == Converged }

// Result describes a finished run. Weights are never rolled back, whatever
// the status.
type Result struct {
	RunID      uuid.UUID
	Trainer    string
	Status     Status
	Epochs     int
	MSE        float64
	InitialMSE float64
	History    *History
	Elapsed    time.Duration
}

// Run identifies a run to callbacks.
type Run struct {
	ID              uuid.UUID
	Trainer         string
	Sets            int
	Hyperparameters Hyperparameters
}

// Rule is a learning rule plugged into the epoch loop.
type Rule interface {
	Name() string

	// Supervised rules need an expected output for every set.
	Supervised() bool

	// Check rejects networks the rule cannot train.
	Check(n *net.Network) error

	// Begin resets per-run state.
	Begin(n *net.Network, hp Hyperparameters) error

	// Update is called once per set right after its forward pass, with
	// every layer's output still in buf. Online rules change weights here.
	Update(n *net.Network, buf []float64, set net.TrainingSet) error

	// EndEpoch is called with the epoch's mean MSE. Batch rules apply
	// their step here.
	EndEpoch(n *net.Network, epoch int, mse float64) error
}

// Coster is implemented by rules that score a set without an expected
// output. The forward pass for set is in buf.
type Coster interface {
	Cost(n *net.Network, buf []float64, set net.TrainingSet) float64
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets the logger for run start, end and divergence.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

// WithCallbacks appends callbacks.
func WithCallbacks(cbs ...Callback) Option {
	return func(t *Trainer) { t.callbacks = append(t.callbacks, cbs...) }
}

// Trainer drives a Rule over a network.
type Trainer struct {
	rule      Rule
	hp        Hyperparameters
	logger    zerolog.Logger
	callbacks []Callback
}

// New creates a trainer. The logger is silent unless WithLogger is given.
func New(rule Rule, hp Hyperparameters, opts ...Option) *Trainer {
	t := &Trainer{rule: rule, hp: hp, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Rule returns the learning rule.
func (t *Trainer) Rule() Rule { return t.rule }

// Hyperparameters returns the run settings.
func (t *Trainer) Hyperparameters() Hyperparameters { return t.hp }

// Train trains n in place. Loop outcomes are reported in Result.Status; an
// error means the run was aborted and Result holds what was reached.
func (t *Trainer) Train(n *net.Network, sets []net.TrainingSet) (res Result, err error) {
	start := time.Now()
	res = Result{RunID: uuid.New(), Trainer: t.rule.Name(), Status: Failed}
	res.History = NewHistory(t.hp.EpochTarget)
	begun := false
	defer func() {
		res.Elapsed = time.Since(start)
		if err != nil {
			res.Status = Failed
			t.logger.Error().Err(err).
				Str("run", res.RunID.String()).
				Str("trainer", res.Trainer).
				Int("epoch", res.Epochs).
				Float64("mse", res.MSE).
				Msg("training failed")
		}
		if !begun {
			return
		}
		for _, cb := range t.callbacks {
			cb.OnTrainEnd(res, n)
		}
	}()

	if err := t.hp.Validate(); err != nil {
		return res, err
	}
	if err := t.validate(n, sets); err != nil {
		return res, err
	}
	if err := t.rule.Begin(n, t.hp); err != nil {
		return res, fmt.Errorf("%s: %w", t.rule.Name(), err)
	}

	buf := n.NewBuffer()
	initial, err := t.meanCost(n, buf, sets)
	if err != nil {
		return res, err
	}
	res.InitialMSE = initial
	res.MSE = initial
	res.History.Start(initial)

	run := Run{ID: res.RunID, Trainer: res.Trainer, Sets: len(sets), Hyperparameters: t.hp}
	t.logger.Info().
		Str("run", run.ID.String()).
		Str("trainer", run.Trainer).
		Int("sets", run.Sets).
		Int("weights", n.WeightCount()).
		Float64("initial_mse", initial).
		Msg("training started")
	for _, cb := range t.callbacks {
		cb.OnTrainBegin(run, n)
	}
	begun = true

	for epoch := 1; epoch <= t.hp.EpochTarget; epoch++ {
		for _, cb := range t.callbacks {
			cb.OnEpochBegin(epoch, n)
		}

		total := 0.0
		for i, set := range sets {
			if _, err := forward(n, buf, set.Input); err != nil {
				return res, fmt.Errorf("epoch %d set %d: %w", epoch, i, err)
			}
			c := t.cost(n, buf, set)
			if err := t.rule.Update(n, buf, set); err != nil {
				return res, fmt.Errorf("epoch %d set %d: %s: %w", epoch, i, t.rule.Name(), err)
			}
			total += c
			for _, cb := range t.callbacks {
				cb.OnSetEnd(i, c, n)
			}
		}

		mse := total / float64(len(sets))
		if err := t.rule.EndEpoch(n, epoch, mse); err != nil {
			return res, fmt.Errorf("epoch %d: %s: %w", epoch, t.rule.Name(), err)
		}
		res.Epochs = epoch
		res.MSE = mse
		res.History.Record(epoch, mse)
		for _, cb := range t.callbacks {
			cb.OnEpochEnd(epoch, mse, n)
		}

		if math.IsNaN(mse) || mse > t.hp.ceiling() {
			res.Status = Diverged
			t.logger.Warn().
				Str("run", run.ID.String()).
				Int("epoch", epoch).
				Float64("mse", mse).
				Float64("ceiling", t.hp.ceiling()).
				Msg("training diverged")
			return res, nil
		}
		if mse <= t.hp.ErrorTarget {
			res.Status = Converged
			break
		}
		if t.stopRequested() {
			res.Status = Stopped
			break
		}
	}
	if res.Status == Failed {
		res.Status = Exhausted
	}

	t.logger.Info().
		Str("run", run.ID.String()).
		Str("status", res.Status.String()).
		Int("epochs", res.Epochs).
		Float64("mse", res.MSE).
		Dur("elapsed", time.Since(start)).
		Msg("training finished")
	return res, nil
}

// TrainCopy trains a clone of n and returns it, leaving n untouched.
func (t *Trainer) TrainCopy(n *net.Network, sets []net.TrainingSet) (*net.Network, Result, error) {
	c := n.Clone()
	res, err := t.Train(c, sets)
	return c, res, err
}

// Evaluate returns the per-set cost of n over sets without training.
func (t *Trainer) Evaluate(n *net.Network, sets []net.TrainingSet) ([]float64, error) {
	if err := t.validate(n, sets); err != nil {
		return nil, err
	}
	buf := n.NewBuffer()
	costs := make([]float64, len(sets))
	for i, set := range sets {
		if _, err := forward(n, buf, set.Input); err != nil {
			return nil, fmt.Errorf("set %d: %w", i, err)
		}
		costs[i] = t.cost(n, buf, set)
	}
	return costs, nil
}

func (t *Trainer) validate(n *net.Network, sets []net.TrainingSet) error {
	if n == nil {
		return fmt.Errorf("%w: nil network", ErrTopology)
	}
	if len(sets) == 0 {
		return ErrNoTrainingSets
	}
	for i, s := range sets {
		if len(s.Input) != n.Inputs() {
			return fmt.Errorf("%w: set %d has %d inputs, network takes %d", ErrArity, i, len(s.Input), n.Inputs())
		}
		if t.rule.Supervised() && len(s.Expected) != n.Outputs() {
			return fmt.Errorf("%w: set %d has %d expected outputs, network produces %d", ErrArity, i, len(s.Expected), n.Outputs())
		}
	}
	if err := t.rule.Check(n); err != nil {
		return fmt.Errorf("%s: %w", t.rule.Name(), err)
	}
	return nil
}

func (t *Trainer) meanCost(n *net.Network, buf []float64, sets []net.TrainingSet) (float64, error) {
	total := 0.0
	for i, set := range sets {
		if _, err := forward(n, buf, set.Input); err != nil {
			return 0, fmt.Errorf("set %d: %w", i, err)
		}
		total += t.cost(n, buf, set)
	}
	return total / float64(len(sets)), nil
}

func (t *Trainer) cost(n *net.Network, buf []float64, set net.TrainingSet) float64 {
	if c, ok := t.rule.(Coster); ok {
		return c.Cost(n, buf, set)
	}
	return loss.MSE{}.Forward(n.LayerOutput(buf, n.Depth()-1), set.Expected)
}

func (t *Trainer) stopRequested() bool {
	for _, cb := range t.callbacks {
		if s, ok := cb.(Stopper); ok && s.ShouldStop() {
			return true
		}
	}
	return false
}

// forward copies input into buf and runs the network over it.
func forward(n *net.Network, buf, input []float64) ([]float64, error) {
	copy(buf, input)
	return n.ExecuteToBuffer(buf, len(input))
}
