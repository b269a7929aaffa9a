package memory

import (
	"context"
	"sync"

	"github.com/rwhender/BayesicFitting/pkg/domain"
)

// Store implements ports.CheckpointStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Checkpoint
	mu   sync.RWMutex
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		data: make(map[string]*domain.Checkpoint),
	}
}

// Save persists the checkpoint in memory.
func (s *Store) Save(ctx context.Context, cp *domain.Checkpoint) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := cp.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[cp.RunID] = copied
	return nil
}

// Load retrieves the checkpoint from memory.
func (s *Store) Load(ctx context.Context, runID string) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrCheckpointNotFound
	}

	// Copy on read so the caller can't mutate the store through the pointer
	return cp.Clone(), nil
}

// Delete removes the checkpoint.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns the stored runs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]string, 0, len(s.data))
	for id := range s.data {
		runs = append(runs, id)
	}
	return runs, nil
}
