package ports

import (
	"context"
	"time"

	"github.com/rwhender/BayesicFitting/pkg/domain"
)

// CheckpointStore persists the state of a sampling run so that it can be
// resumed later ("Stop & Resume").
type CheckpointStore interface {
	// Save persists the checkpoint under its RunID, replacing an older one.
	Save(ctx context.Context, cp *domain.Checkpoint) error

	// Load retrieves the checkpoint of a run.
	// Returns domain.ErrCheckpointNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.Checkpoint, error)

	// Delete removes the checkpoint of a run.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of all stored runs.
	List(ctx context.Context) ([]string, error)
}

// Restarter decides when a run is saved and whether it resumes from an
// earlier save. The sampler consults it at a fixed iteration cadence.
type Restarter interface {
	// WantSave reports whether the run should be saved at iteration.
	WantSave(iteration int) bool
	Save(ctx context.Context, cp *domain.Checkpoint) error

	// WantRestore reports whether the run resumes from a saved checkpoint.
	WantRestore(ctx context.Context) bool
	Restore(ctx context.Context) (*domain.Checkpoint, error)
}

// UnlockFunc releases a lock.
type UnlockFunc func(ctx context.Context) error

// RunLocker grants exclusive use of a run ID, so that two samplers never
// write checkpoints for the same run.
type RunLocker interface {
	// Lock blocks until the run is free or ctx is done. The lease expires
	// after ttl when the holder dies; ttl <= 0 means no expiry.
	Lock(ctx context.Context, runID string, ttl time.Duration) (UnlockFunc, error)
}
