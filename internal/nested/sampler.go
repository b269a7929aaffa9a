// Package nested drives a nested-sampling run: it keeps the ensemble of
// walkers, replaces the worst of them each iteration, accumulates the evidence
// and the information, and assembles the weighted posterior.
package nested

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/rwhender/BayesicFitting/internal/engine"
	"github.com/rwhender/BayesicFitting/internal/explorer"
	"github.com/rwhender/BayesicFitting/internal/logging"
	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/errdis"
	"github.com/rwhender/BayesicFitting/pkg/observability"
	"github.com/rwhender/BayesicFitting/pkg/problem"
	"github.com/rwhender/BayesicFitting/pkg/rng"
	"github.com/rwhender/BayesicFitting/pkg/sample"
	"github.com/rwhender/BayesicFitting/pkg/walker"
)

// Stream indices of the master seed.
const (
	streamExplore uint64 = iota + 1
	streamStart
	streamReplenish
	streamEngines
)

// Sampler is the nested-sampling orchestrator. It owns the ensemble and the
// posterior exclusively; it is not safe for concurrent use.
type Sampler struct {
	problem problem.Problem
	errdis  errdis.ErrorDistribution
	opts    Options
	logger  *slog.Logger
	tracer  *observability.Tracer

	fitIndex []int
	allpars  []float64
	engNames []string

	state     domain.RunState
	walkers   *walker.List
	samples   *sample.List
	start     engine.Engine
	engines   []engine.Engine
	explorer  *explorer.Explorer
	iteration int
	logZ      float64
	info      float64
	lowLhood  float64
	logWidth0 float64
	summary   *domain.Summary
	started   time.Time
}

// New validates the configuration and returns a sampler for p with error
// distribution d. A nil d takes the distribution the problem asks for.
func New(p problem.Problem, d errdis.ErrorDistribution, opts Options) (*Sampler, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil problem", domain.ErrInvalidConfig)
	}
	opts.defaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = observability.NopTracer()
	}

	if d == nil {
		var err error
		d, err = errdis.New(p.MyDistribution(), errdis.Data{X: p.XData(), Y: p.YData(), Weights: p.Weights()}, errdis.Options{})
		if err != nil {
			return nil, err
		}
	}
	if len(d.Data().Y) != p.NData() {
		return nil, fmt.Errorf("%w: distribution holds %d points, problem %d", domain.ErrDataMismatch, len(d.Data().Y), p.NData())
	}
	if p.Weights() != nil && !d.AcceptWeight() {
		return nil, fmt.Errorf("%w: %s does not accept weights", domain.ErrInvalidConfig, d.Name())
	}

	names := opts.Engines
	if len(names) == 0 {
		names = p.MyEngines()
	}
	for _, name := range names {
		if !slices.Contains(engine.Names, name) {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEngine, name)
		}
		if (name == "birth" || name == "death") && !p.IsDynamic() {
			return nil, fmt.Errorf("%w: %s", domain.ErrStaticModel, name)
		}
	}
	if opts.StartEngine == "" {
		opts.StartEngine = p.MyStartEngine()
	}
	if !slices.Contains(engine.Names, opts.StartEngine) {
		return nil, fmt.Errorf("%w: start engine %q", domain.ErrUnknownEngine, opts.StartEngine)
	}

	fitIndex, allpars, err := makeFitlist(p.NPars(), d.HyperPars(), opts.Keep)
	if err != nil {
		return nil, err
	}
	if !p.Model().HasPriors() {
		logger.Warn("model has no priors for all its parameters", "model", p.Model().String())
	}

	return &Sampler{
		problem:  p,
		errdis:   d,
		opts:     opts,
		logger:   logger,
		tracer:   tracer,
		fitIndex: fitIndex,
		allpars:  allpars,
		engNames: names,
		state:    domain.StateUninitialized,
		logZ:     -math.MaxFloat64,
	}, nil
}

// checkPriors reports the first fitted entry without a prior.
func (s *Sampler) checkPriors() error {
	hyper := s.errdis.HyperPars()
	for _, fi := range s.fitIndex {
		if fi >= 0 {
			if s.problem.Model().Prior(fi) == nil {
				return fmt.Errorf("%w: model parameter %d", domain.ErrMissingPrior, fi)
			}
			continue
		}
		if hyper[len(hyper)+fi].Prior() == nil {
			return fmt.Errorf("%w: hyperparameter %d", domain.ErrMissingPrior, fi)
		}
	}
	return nil
}

// Sample runs the sampler to termination. It returns early with the context
// error when ctx is done between iterations.
func (s *Sampler) Sample(ctx context.Context) (err error) {
	if s.state == domain.StateTerminated {
		return domain.ErrAlreadySampled
	}
	if err := s.checkPriors(); err != nil {
		return err
	}
	s.started = time.Now()
	ctx, span := s.tracer.StartRun(ctx, s.opts.RunID, s.opts.Ensemble, s.opts.Discard)
	defer func() { s.tracer.EndRun(span, s.summary, err) }()

	if h := s.opts.Hooks.OnRunStart; h != nil {
		h(ctx, &domain.RunEvent{EventBase: s.event(domain.EventRunStart)})
	}
	s.errdis.ResetCalls()

	restored, err := s.initialize(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("sampling started",
		"run_id", s.opts.RunID,
		"model", s.problem.Model().String(),
		"distribution", s.errdis.Name(),
		"engines", s.engNames,
		"fit_index", s.fitIndex,
		"ensemble", s.opts.Ensemble,
		"restored", restored)

	s.state = domain.StateIterating
	for s.iteration < s.maxIter() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.iterate(ctx); err != nil {
			return err
		}
	}

	s.finalize()
	s.state = domain.StateTerminated
	s.summary = s.buildSummary()
	s.logger.Info("sampling finished",
		"run_id", s.opts.RunID,
		"iterations", s.iteration,
		"log_z", s.logZ,
		"evidence", s.Evidence(),
		"precision", s.Precision())
	if h := s.opts.Hooks.OnRunFinish; h != nil {
		h(ctx, &domain.RunEvent{EventBase: s.event(domain.EventRunFinish), Summary: s.summary})
	}
	return nil
}

// initialize builds the ensemble, from a checkpoint when the restarter has
// one, and the engines working on it.
func (s *Sampler) initialize(ctx context.Context) (bool, error) {
	s.iteration = 0
	s.logZ = -math.MaxFloat64
	s.info = 0
	s.samples = sample.NewList(s.opts.MaxSize)
	s.logWidth0 = math.Log(-math.Expm1(-float64(s.opts.Discard) / float64(s.opts.Ensemble)))

	restored := false
	if r := s.opts.Restarter; r != nil && r.WantRestore(ctx) {
		if err := s.restore(ctx); err != nil {
			return false, err
		}
		restored = true
	} else {
		s.walkers = walker.NewList(s.problem, s.opts.Ensemble, s.allpars, s.fitIndex, len(s.errdis.HyperPars()))
	}

	start, err := engine.New(s.opts.StartEngine, s.walkers, s.errdis, rng.Derive(s.opts.Seed, streamStart), s.opts.engineOptions())
	if err != nil {
		return false, err
	}
	s.start = start
	s.engines = make([]engine.Engine, len(s.engNames))
	for k, name := range s.engNames {
		e, err := engine.New(name, s.walkers, s.errdis, rng.Derive(s.opts.Seed, streamEngines, uint64(k)), s.opts.engineOptions())
		if err != nil {
			return false, err
		}
		s.engines[k] = e
	}
	s.explorer = explorer.New(s.engines, s.walkers, explorer.Options{
		Threads:   s.opts.Threads,
		Seed:      rng.Derive(s.opts.Seed, streamExplore),
		Rate:      s.opts.Rate,
		MaxRounds: s.opts.MaxRounds,
		Logger:    s.logger,
	})

	if !restored {
		s.populate()
	}
	s.state = domain.StateInitialized
	s.updateUnitBox()
	return restored, nil
}

// populate draws every live walker from the prior and caches the best.
func (s *Sampler) populate() {
	n := s.walkers.Ensemble()
	for i := range n {
		s.start.Execute(s.walkers.At(i), math.Inf(-1))
	}
	best := 0
	for i := 1; i < n; i++ {
		if s.walkers.At(i).LogL > s.walkers.At(best).LogL {
			best = i
		}
	}
	s.walkers.Copy(best, n)
}

func (s *Sampler) updateUnitBox() {
	box := engine.NewUnitBox(s.walkers.Live(), s.errdis)
	s.start.SetUnitBox(box)
	s.explorer.SetUnitBox(box)
}

// logWidth is the log of the prior mass shed in the current iteration.
func (s *Sampler) logWidth() float64 {
	return s.logWidth0 - float64(s.iteration)*float64(s.opts.Discard)/float64(s.opts.Ensemble)
}

func (s *Sampler) maxIter() int {
	bound := math.Ceil(s.opts.End * float64(s.opts.Ensemble) * s.info / float64(s.opts.Discard))
	if !(bound < math.MaxInt32) {
		bound = math.MaxInt32
	}
	return max(s.opts.MinimumIterations, int(bound))
}

// iterate performs one discard, replenish and explore cycle.
func (s *Sampler) iterate(ctx context.Context) error {
	worst := s.findWorst()
	s.lowLhood = s.walkers.At(worst[len(worst)-1]).LogL

	logW := s.logWidth() - math.Log(float64(s.opts.Discard))
	for _, k := range worst {
		w := s.walkers.At(k)
		s.samples.Add(w.ToSample(logW + w.LogL))
		s.update(logW+w.LogL, w.LogL)
	}

	s.replenish(worst)
	if err := s.explorer.Explore(ctx, worst, s.lowLhood, s.iteration); err != nil {
		return err
	}

	s.iteration++
	if err := s.optionalSave(ctx); err != nil {
		return err
	}
	s.updateUnitBox()
	s.progress(ctx, worst[0])
	return nil
}

// findWorst returns the discard slots with the lowest logL, worst first.
// Ties go to the lowest slot.
func (s *Sampler) findWorst() []int {
	worst := make([]int, 0, s.opts.Discard)
	for range s.opts.Discard {
		bad := -1
		for i := range s.walkers.Ensemble() {
			if slices.Contains(worst, i) {
				continue
			}
			if bad < 0 || s.walkers.At(i).LogL < s.walkers.At(bad).LogL {
				bad = i
			}
		}
		worst = append(worst, bad)
	}
	return worst
}

// update adds a sample of weight logW and likelihood logL to the evidence and
// the information.
func (s *Sampler) update(logW, logL float64) {
	logZnew := floats.LogSumExp([]float64{s.logZ, logW})
	s.info = math.Exp(logW-logZnew)*logL + math.Exp(s.logZ-logZnew)*(s.info+s.logZ) - logZnew
	if math.IsNaN(s.info) {
		s.info = 0
	}
	s.logZ = logZnew
}

// replenish overwrites every discarded slot with a copy of a random live
// walker that was not discarded in this iteration.
func (s *Sampler) replenish(worst []int) {
	r := rng.Stream(s.opts.Seed, streamReplenish, uint64(s.iteration))
	live := make([]int, 0, s.walkers.Ensemble()-len(worst))
	for i := range s.walkers.Ensemble() {
		if !slices.Contains(worst, i) {
			live = append(live, i)
		}
	}
	for _, k := range worst {
		s.walkers.Copy(live[r.Intn(len(live))], k)
	}
}

// finalize flushes the live ensemble into the posterior, lowest logL first,
// and computes the posterior statistics.
func (s *Sampler) finalize() {
	n := s.walkers.Ensemble()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(s.walkers.At(a).LogL, s.walkers.At(b).LogL)
	})
	logW := s.logWidth() - math.Log(float64(s.opts.Discard))
	for _, k := range order {
		w := s.walkers.At(k)
		s.samples.Add(w.ToSample(logW + w.LogL))
		s.update(logW+w.LogL, w.LogL)
	}
	s.samples.SetEvidence(s.logZ, s.info)
	s.samples.Normalize()
}

func (s *Sampler) progress(ctx context.Context, kw int) {
	w := s.walkers.At(kw)
	params := make([]float64, len(w.FitIndex))
	for k, fi := range w.FitIndex {
		params[k] = w.Allpars[w.Index(fi)]
	}
	if h := s.opts.Hooks.OnIteration; h != nil {
		h(ctx, &domain.IterationEvent{
			EventBase:   s.event(domain.EventIteration),
			Iteration:   s.iteration,
			LogZ:        s.logZ,
			Information: s.info,
			LowLhood:    s.lowLhood,
			NPars:       w.NPars(),
			Parameters:  params,
		})
	}
	if s.opts.ProgressEvery > 0 && s.iteration%s.opts.ProgressEvery == 0 {
		s.logger.Info("iteration",
			"iteration", s.iteration,
			"log_z", s.logZ,
			"information", s.info,
			"low_lhood", s.lowLhood,
			"npars", w.NPars())
	}
}

func (s *Sampler) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, RunID: s.opts.RunID}
}
