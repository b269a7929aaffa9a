package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwhender/BayesicFitting/pkg/domain"
)

// RunCheckpointStoreContract runs a suite of tests to verify that a
// CheckpointStore implementation adheres to the defined interface contract.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	newCheckpoint := func(id string, iteration int) *domain.Checkpoint {
		return &domain.Checkpoint{
			RunID:       id,
			Iteration:   iteration,
			LogZ:        -12.5,
			Information: 3.25,
			Ensemble:    2,
			Discard:     1,
			Seed:        7,
			Walkers: []domain.WalkerState{
				{ID: 0, Parent: -1, Allpars: []float64{1, 2, 0.5}, FitIndex: []int{0, 1, -1}, LogL: -4, NHyper: 1},
				{ID: 1, Parent: 0, Allpars: []float64{1.5, 2, 0.5}, FitIndex: []int{0, 1, -1}, LogL: -3, NHyper: 1},
				{ID: 2, Parent: 1, Allpars: []float64{1.5, 2, 0.5}, FitIndex: []int{0, 1, -1}, LogL: -3, NHyper: 1},
			},
			Samples: []domain.SampleState{
				{ID: 0, Parent: -1, Allpars: []float64{0, 1, 0.5}, FitIndex: []int{0, 1, -1}, LogL: -9, LogW: -11, NHyper: 1},
			},
			SavedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		// 1. Create a checkpoint
		cp := newCheckpoint(runID, 40)

		// 2. Save
		err := store.Save(ctx, cp)
		require.NoError(t, err, "Save should not return error")

		// 3. Load
		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, cp.Iteration, loaded.Iteration)
		assert.Equal(t, cp.LogZ, loaded.LogZ)
		assert.Equal(t, cp.Information, loaded.Information)
		assert.Equal(t, cp.Walkers, loaded.Walkers)
		assert.Equal(t, cp.Samples, loaded.Samples)
		assert.True(t, cp.SavedAt.Equal(loaded.SavedAt))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newCheckpoint(runID, 80)))
		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, 80, loaded.Iteration)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		// Setup
		err := store.Save(ctx, newCheckpoint(runID, 1))
		require.NoError(t, err)

		// Delete
		err = store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		// Verify gone
		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound, "Load after Delete should return ErrCheckpointNotFound")
	})

	t.Run("List", func(t *testing.T) {
		// Setup: Create 2 runs
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, newCheckpoint(id1, 1))
		_ = store.Save(ctx, newCheckpoint(id2, 1))

		// Ensure cleanup
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		// List
		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
