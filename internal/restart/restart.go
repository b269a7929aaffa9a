// Package restart saves a run at a fixed iteration cadence and resumes it
// from the last save.
package restart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rwhender/BayesicFitting/internal/logging"
	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/ports"
)

// StopStart is a ports.Restarter bound to one run in a CheckpointStore.
type StopStart struct {
	store  ports.CheckpointStore
	runID  string
	every  int
	resume bool
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*StopStart)

// WithEvery saves every n iterations; 0 disables saving.
func WithEvery(n int) Option {
	return func(s *StopStart) { s.every = n }
}

// WithResume resumes from an existing checkpoint of the run.
func WithResume(resume bool) Option {
	return func(s *StopStart) { s.resume = resume }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *StopStart) { s.logger = l }
}

// New returns a restarter for runID.
func New(store ports.CheckpointStore, runID string, opts ...Option) *StopStart {
	s := &StopStart{
		store:  store,
		runID:  runID,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunID returns the run the restarter is bound to.
func (s *StopStart) RunID() string { return s.runID }

func (s *StopStart) WantSave(iteration int) bool {
	return s.every > 0 && iteration > 0 && iteration%s.every == 0
}

// Save stores cp under the bound run ID.
func (s *StopStart) Save(ctx context.Context, cp *domain.Checkpoint) error {
	cp.RunID = s.runID
	cp.SavedAt = s.now().UTC()
	if err := s.store.Save(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint of run %s: %w", s.runID, err)
	}
	s.logger.Debug("checkpoint saved", "run_id", s.runID, "iteration", cp.Iteration)
	return nil
}

// WantRestore reports whether resuming is enabled and a checkpoint exists.
func (s *StopStart) WantRestore(ctx context.Context) bool {
	if !s.resume {
		return false
	}
	runs, err := s.store.List(ctx)
	if err != nil {
		s.logger.Warn("cannot list checkpoints", "error", err)
		return false
	}
	for _, id := range runs {
		if id == s.runID {
			return true
		}
	}
	return false
}

// Restore loads the checkpoint of the bound run.
func (s *StopStart) Restore(ctx context.Context) (*domain.Checkpoint, error) {
	cp, err := s.store.Load(ctx, s.runID)
	if err != nil {
		if errors.Is(err, domain.ErrCheckpointNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("restore run %s: %w", s.runID, err)
	}
	s.logger.Info("checkpoint restored", "run_id", s.runID, "iteration", cp.Iteration)
	return cp, nil
}

// Clear removes the checkpoint of the bound run.
func (s *StopStart) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.runID)
}
