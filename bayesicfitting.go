package bayesicfitting

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/rwhender/BayesicFitting/internal/logging"
	"github.com/rwhender/BayesicFitting/internal/nested"
	"github.com/rwhender/BayesicFitting/internal/restart"
	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/errdis"
	"github.com/rwhender/BayesicFitting/pkg/observability"
	"github.com/rwhender/BayesicFitting/pkg/ports"
	"github.com/rwhender/BayesicFitting/pkg/problem"
	"github.com/rwhender/BayesicFitting/pkg/sample"
)

// Sampler is the high-level entry point of the library.
type Sampler struct {
	problem      problem.Problem
	distribution errdis.ErrorDistribution
	opts         nested.Options
	hooks        []domain.LifecycleHooks
	logger       *slog.Logger
	tp           trace.TracerProvider
	store        ports.CheckpointStore
	saveEvery    int
	resume       bool
	runID        string
	locker       ports.RunLocker
	leaseTTL     time.Duration

	inner *nested.Sampler
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithDistribution sets the error distribution.
func WithDistribution(d errdis.ErrorDistribution) Option {
	return func(s *Sampler) { s.distribution = d }
}

// WithEnsemble sets the number of walkers (default 100).
func WithEnsemble(n int) Option {
	return func(s *Sampler) { s.opts.Ensemble = n }
}

// WithDiscard sets the number of walkers replaced per iteration (default 1).
func WithDiscard(n int) Option {
	return func(s *Sampler) { s.opts.Discard = n }
}

// WithSeed sets the master seed.
func WithSeed(seed uint64) Option {
	return func(s *Sampler) { s.opts.Seed = seed }
}

// WithRate scales the exploration effort per replaced walker (default 1).
func WithRate(rate float64) Option {
	return func(s *Sampler) { s.opts.Rate = rate }
}

// WithMaxSize caps the number of posterior samples kept.
func WithMaxSize(n int) Option {
	return func(s *Sampler) { s.opts.MaxSize = n }
}

// WithMinimumIterations sets the least number of iterations (default 100).
func WithMinimumIterations(n int) Option {
	return func(s *Sampler) { s.opts.MinimumIterations = n }
}

// WithEnd sets the stopping factor on the information (default 2).
func WithEnd(end float64) Option {
	return func(s *Sampler) { s.opts.End = end }
}

// WithThreads explores replaced walkers on up to n goroutines.
func WithThreads(n int) Option {
	return func(s *Sampler) { s.opts.Threads = n }
}

// WithMaxTrials sets the number of proposals per engine move (default 5).
func WithMaxTrials(n int) Option {
	return func(s *Sampler) { s.opts.MaxTrials = n }
}

// WithEngines names the exploration engines, applied in order.
func WithEngines(names ...string) Option {
	return func(s *Sampler) { s.opts.Engines = names }
}

// WithKeep fixes parameters at a value. Hyperparameters follow the model
// parameters, or are addressed by sentinels -nh..-1.
func WithKeep(keep map[int]float64) Option {
	return func(s *Sampler) { s.opts.Keep = keep }
}

// WithLifecycleHooks registers observability hooks. Repeated calls add hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Sampler) { s.hooks = append(s.hooks, hooks) }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sampler) { s.logger = logger }
}

// WithTracerProvider traces runs and checkpoints on tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Sampler) { s.tp = tp }
}

// WithProgressEvery logs a progress line every n iterations; negative disables.
func WithProgressEvery(n int) Option {
	return func(s *Sampler) { s.opts.ProgressEvery = n }
}

// WithCheckpointStore saves the run into store every n iterations.
func WithCheckpointStore(store ports.CheckpointStore, every int) Option {
	return func(s *Sampler) {
		s.store = store
		s.saveEvery = every
	}
}

// WithResume continues the run from its last checkpoint, when there is one.
func WithResume(resume bool) Option {
	return func(s *Sampler) { s.resume = resume }
}

// WithRunID names the run; it keys the checkpoints. Default: a random UUID.
func WithRunID(id string) Option {
	return func(s *Sampler) { s.runID = id }
}

// WithRunLock holds a lease on the run ID while sampling, so that no other
// sampler writes checkpoints for the same run. The lease expires after ttl
// when the process dies.
func WithRunLock(locker ports.RunLocker, ttl time.Duration) Option {
	return func(s *Sampler) {
		s.locker = locker
		s.leaseTTL = ttl
	}
}

// New validates the configuration and returns a Sampler for p.
func New(p problem.Problem, opts ...Option) (*Sampler, error) {
	s := &Sampler{problem: p}
	for _, opt := range opts {
		opt(s)
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.logger = s.logger.With("run_id", s.runID)

	s.opts.RunID = s.runID
	s.opts.Logger = s.logger
	s.opts.Hooks = domain.Combine(s.hooks...)
	if s.tp != nil {
		s.opts.Tracer = observability.NewTracer(s.tp)
	}
	if s.store != nil {
		s.opts.Restarter = restart.New(s.store, s.runID,
			restart.WithEvery(s.saveEvery),
			restart.WithResume(s.resume),
			restart.WithLogger(s.logger),
		)
	} else if s.resume {
		return nil, fmt.Errorf("%w: resume needs a checkpoint store", domain.ErrInvalidConfig)
	}

	inner, err := nested.New(p, s.distribution, s.opts)
	if err != nil {
		return nil, err
	}
	s.inner = inner
	return s, nil
}

// RunID returns the identifier of the run.
func (s *Sampler) RunID() string { return s.runID }

// Distribution returns the error distribution in use.
func (s *Sampler) Distribution() errdis.ErrorDistribution { return s.inner.Distribution() }

// Sample runs nested sampling to termination.
func (s *Sampler) Sample(ctx context.Context) (*Result, error) {
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, s.runID, s.leaseTTL)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release run lease (will expire via TTL)", "error", err)
			}
		}()
	}
	if err := s.inner.Sample(ctx); err != nil {
		return nil, err
	}
	return newResult(s.inner), nil
}

// Report writes the engine counters and the evidence.
func (s *Sampler) Report(w io.Writer) error { return s.inner.Report(w) }

// Result is the outcome of a finished run.
type Result struct {
	RunID string
	// LogZ is the natural log of the evidence; Evidence is its 10log.
	LogZ          float64
	LogZPrecision float64
	Evidence      float64
	Precision     float64
	Information   float64
	Iterations    int

	Parameters            []float64
	StdDevs               []float64
	HyperParameters       []float64
	StdDevHyperParameters []float64
	// Scale is NaN for distributions without hyperparameters.
	Scale       float64
	StdDevScale float64
	// ModelFit is the posterior-averaged model at the data points.
	ModelFit []float64

	Samples *sample.List
	Summary *domain.Summary
}

func newResult(n *nested.Sampler) *Result {
	return &Result{
		RunID:                 n.Options().RunID,
		LogZ:                  n.LogZ(),
		LogZPrecision:         n.LogZPrecision(),
		Evidence:              n.Evidence(),
		Precision:             n.Precision(),
		Information:           n.Information(),
		Iterations:            n.Iteration(),
		Parameters:            n.Parameters(),
		StdDevs:               n.StdDevs(),
		HyperParameters:       n.HyperParameters(),
		StdDevHyperParameters: n.StdDevHyperParameters(),
		Scale:                 n.Scale(),
		StdDevScale:           n.StdDevScale(),
		ModelFit:              n.ModelFit(),
		Samples:               n.Samples(),
		Summary:               n.Summary(),
	}
}
