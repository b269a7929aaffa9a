package nested

import (
	"fmt"
	"log/slog"

	"github.com/rwhender/BayesicFitting/internal/engine"
	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/observability"
	"github.com/rwhender/BayesicFitting/pkg/ports"
)

// Defaults of a run.
const (
	DefaultEnsemble          = 100
	DefaultDiscard           = 1
	DefaultSeed              = 80409
	DefaultMinimumIterations = 100
	DefaultEnd               = 2.0
	DefaultRate              = 1.0
	DefaultProgressEvery     = 100
)

// Options configures a Sampler. Zero values take the defaults above.
type Options struct {
	Ensemble int
	Discard  int
	Seed     uint64
	// Rate scales the number of moves per replenished walker.
	Rate float64
	// MaxSize caps the number of posterior samples kept; 0 keeps all.
	MaxSize           int
	MinimumIterations int
	// End multiplies the adaptive iteration bound ensemble*H/discard.
	End float64
	// Threads explores the replenished walkers in parallel when > 1.
	Threads   int
	MaxTrials int
	Steps     int
	MaxRounds int

	// Engines names the exploration engines; nil takes the problem's choice.
	Engines []string
	// StartEngine names the engine populating the ensemble.
	StartEngine string
	// Keep fixes entries of allpars at a value. Keys are model indices,
	// hyperparameter positions npars+j, or hyperparameter sentinels -nh..-1.
	Keep map[int]float64

	RunID     string
	Restarter ports.Restarter
	Hooks     domain.LifecycleHooks
	Tracer    *observability.Tracer
	Logger    *slog.Logger
	// ProgressEvery logs a progress line every n iterations; < 0 disables.
	ProgressEvery int
}

func (o *Options) defaults() {
	if o.Ensemble == 0 {
		o.Ensemble = DefaultEnsemble
	}
	if o.Discard == 0 {
		o.Discard = DefaultDiscard
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Rate == 0 {
		o.Rate = DefaultRate
	}
	if o.MinimumIterations == 0 {
		o.MinimumIterations = DefaultMinimumIterations
	}
	if o.End == 0 {
		o.End = DefaultEnd
	}
	if o.ProgressEvery == 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
}

func (o *Options) validate() error {
	switch {
	case o.Discard < 1:
		return fmt.Errorf("%w: discard %d < 1", domain.ErrInvalidConfig, o.Discard)
	case o.Ensemble <= o.Discard:
		return fmt.Errorf("%w: ensemble %d must exceed discard %d", domain.ErrInvalidConfig, o.Ensemble, o.Discard)
	case o.End <= 0:
		return fmt.Errorf("%w: end %g <= 0", domain.ErrInvalidConfig, o.End)
	case o.Rate < 0:
		return fmt.Errorf("%w: rate %g < 0", domain.ErrInvalidConfig, o.Rate)
	case o.MinimumIterations < 0:
		return fmt.Errorf("%w: minimum iterations %d < 0", domain.ErrInvalidConfig, o.MinimumIterations)
	case o.MaxSize < 0:
		return fmt.Errorf("%w: maxsize %d < 0", domain.ErrInvalidConfig, o.MaxSize)
	case o.Threads < 0, o.MaxTrials < 0, o.Steps < 0, o.MaxRounds < 0:
		return fmt.Errorf("%w: negative engine setting", domain.ErrInvalidConfig)
	}
	return nil
}

func (o *Options) engineOptions() engine.Options {
	return engine.Options{MaxTrials: o.MaxTrials, Steps: o.Steps}
}
