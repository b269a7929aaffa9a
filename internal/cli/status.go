package cli

import (
	"context"
	"sync"
	"time"

	"github.com/rwhender/BayesicFitting/pkg/domain"
)

// Status is a snapshot of a run for the status endpoint.
type Status struct {
	RunID       string          `json:"run_id"`
	State       domain.RunState `json:"state"`
	Iteration   int             `json:"iteration"`
	LogZ        float64         `json:"log_z"`
	Information float64         `json:"information"`
	LowLhood    float64         `json:"low_lhood"`
	Checkpoints int             `json:"checkpoints"`
	StartedAt   time.Time       `json:"started_at,omitzero"`
	Summary     *domain.Summary `json:"summary,omitempty"`
}

// Tracker follows a run through its lifecycle hooks.
//
// Thread Safety: Safe for concurrent use; hooks write, handlers read.
type Tracker struct {
	mu     sync.RWMutex
	status Status
}

func NewTracker(runID string) *Tracker {
	return &Tracker{status: Status{RunID: runID, State: domain.StateUninitialized}}
}

// Snapshot returns a copy of the current status.
func (t *Tracker) Snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Hooks returns the hooks that keep the tracker current.
func (t *Tracker) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, e *domain.RunEvent) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.status.State = domain.StateInitialized
			t.status.StartedAt = e.Timestamp
		},
		OnIteration: func(_ context.Context, e *domain.IterationEvent) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.status.State = domain.StateIterating
			t.status.Iteration = e.Iteration
			t.status.LogZ = e.LogZ
			t.status.Information = e.Information
			t.status.LowLhood = e.LowLhood
		},
		OnCheckpoint: func(_ context.Context, e *domain.CheckpointEvent) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.status.Checkpoints++
			if e.Restored {
				t.status.Iteration = e.Iteration
			}
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.status.State = domain.StateTerminated
			t.status.Summary = e.Summary
			if e.Summary != nil {
				t.status.Iteration = e.Summary.Iterations
				t.status.LogZ = e.Summary.LogZ
				t.status.Information = e.Summary.Information
			}
		},
	}
}
