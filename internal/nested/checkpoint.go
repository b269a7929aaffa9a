package nested

import (
	"context"
	"fmt"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/model"
	"github.com/rwhender/BayesicFitting/pkg/observability"
	"github.com/rwhender/BayesicFitting/pkg/sample"
	"github.com/rwhender/BayesicFitting/pkg/walker"
)

// Checkpoint returns the resumable state of the run.
func (s *Sampler) Checkpoint() *domain.Checkpoint {
	cp := &domain.Checkpoint{
		RunID:       s.opts.RunID,
		Iteration:   s.iteration,
		LogZ:        s.logZ,
		Information: s.info,
		Ensemble:    s.opts.Ensemble,
		Discard:     s.opts.Discard,
		Seed:        s.opts.Seed,
	}
	if s.walkers != nil {
		cp.Walkers = s.walkers.States()
	}
	if s.samples != nil {
		cp.Samples = make([]domain.SampleState, s.samples.Len())
		for i, smp := range s.samples.Samples() {
			cp.Samples[i] = smp.State()
		}
	}
	return cp
}

func (s *Sampler) optionalSave(ctx context.Context) (err error) {
	r := s.opts.Restarter
	if r == nil || !r.WantSave(s.iteration) {
		return nil
	}
	ctx, span := s.tracer.StartCheckpoint(ctx, s.iteration, false)
	defer func() { observability.End(span, err) }()

	if err := r.Save(ctx, s.Checkpoint()); err != nil {
		return err
	}
	if h := s.opts.Hooks.OnCheckpoint; h != nil {
		h(ctx, &domain.CheckpointEvent{EventBase: s.event(domain.EventCheckpoint), Iteration: s.iteration})
	}
	return nil
}

// restore installs the ensemble and the posterior of the last checkpoint.
func (s *Sampler) restore(ctx context.Context) (err error) {
	ctx, span := s.tracer.StartCheckpoint(ctx, 0, true)
	defer func() { observability.End(span, err) }()

	cp, err := s.opts.Restarter.Restore(ctx)
	if err != nil {
		return err
	}
	if cp.Ensemble != s.opts.Ensemble || cp.Discard != s.opts.Discard || len(cp.Walkers) != s.opts.Ensemble+1 {
		return fmt.Errorf("%w: checkpoint of run %q has ensemble %d, discard %d and %d walkers",
			domain.ErrInvalidConfig, cp.RunID, cp.Ensemble, cp.Discard, len(cp.Walkers))
	}
	if cp.Seed != s.opts.Seed {
		s.logger.Warn("checkpoint was made with another seed", "saved", cp.Seed, "seed", s.opts.Seed)
	}

	for i, w := range cp.Walkers {
		if err := s.checkLayout(w.Allpars, w.FitIndex, w.NHyper); err != nil {
			return fmt.Errorf("%w: checkpoint of run %q, walker %d: %v", domain.ErrInvalidConfig, cp.RunID, i, err)
		}
	}
	for i, st := range cp.Samples {
		if err := s.checkLayout(st.Allpars, st.FitIndex, st.NHyper); err != nil {
			return fmt.Errorf("%w: checkpoint of run %q, sample %d: %v", domain.ErrInvalidConfig, cp.RunID, i, err)
		}
	}

	s.walkers = walker.RestoreList(s.problem, cp.Walkers)
	for _, st := range cp.Samples {
		s.samples.Add(sample.FromState(st))
	}
	s.iteration = cp.Iteration
	s.logZ = cp.LogZ
	s.info = cp.Information

	if h := s.opts.Hooks.OnCheckpoint; h != nil {
		h(ctx, &domain.CheckpointEvent{EventBase: s.event(domain.EventCheckpoint), Iteration: s.iteration, Restored: true})
	}
	return nil
}

// checkLayout reports whether a saved parameter vector fits the model and the
// error distribution of this run.
func (s *Sampler) checkLayout(allpars []float64, fitIndex []int, nhyper int) error {
	if want := len(s.errdis.HyperPars()); nhyper != want {
		return fmt.Errorf("%d hyperparameters, the distribution has %d", nhyper, want)
	}
	np := len(allpars) - nhyper
	if d, ok := s.problem.Model().(model.Dynamic); ok && s.problem.IsDynamic() {
		if !d.IsValidParameterCount(np) {
			return fmt.Errorf("%d parameters is not a valid count for the model", np)
		}
	} else if np != s.problem.NPars() {
		return fmt.Errorf("%d parameters, the model has %d", np, s.problem.NPars())
	}
	for _, fi := range fitIndex {
		if fi >= np || fi < -nhyper {
			return fmt.Errorf("fit index %d out of range", fi)
		}
	}
	return nil
}
