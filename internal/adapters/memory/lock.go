package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/ports"
)

// lockEntry is a context-aware mutex with the number of goroutines holding
// or waiting for it.
type lockEntry struct {
	sem  chan struct{}
	refs int
}

// Locker implements ports.RunLocker inside one process. Entries are
// reference counted and dropped once nobody holds or waits for them.
// The ttl of Lock is ignored.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*lockEntry)}
}

func (l *Locker) acquire(runID string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[runID]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.locks[runID] = e
	}
	e.refs++
	return e
}

func (l *Locker) release(runID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[runID]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(l.locks, runID)
	}
}

// Lock blocks until runID is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, runID string, _ time.Duration) (ports.UnlockFunc, error) {
	e := l.acquire(runID)
	select {
	case e.sem <- struct{}{}:
	default:
		select {
		case e.sem <- struct{}{}:
		case <-ctx.Done():
			l.release(runID)
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrRunLocked, runID, ctx.Err())
		}
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-e.sem
			l.release(runID)
		})
		return nil
	}, nil
}

// held returns the number of live entries.
func (l *Locker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
