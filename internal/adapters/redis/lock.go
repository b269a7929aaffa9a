package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/ports"
)

// unlockScript deletes the lease only while it still carries our token.
const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// Locker implements ports.RunLocker using Redis SET NX PX.
type Locker struct {
	client *backend.Client
	prefix string
	poll   time.Duration
}

// NewLocker creates a locker on client. Keys are prefix + "lock:" + runID.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix, poll: 100 * time.Millisecond}
}

// Locker returns a run locker sharing the connection and prefix of the store.
func (s *Store) Locker() *Locker {
	return NewLocker(s.client, s.prefix)
}

// Lock polls until the lease is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, runID string, ttl time.Duration) (ports.UnlockFunc, error) {
	key := l.prefix + "lock:" + runID
	token := uuid.NewString()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, max(ttl, 0)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis error acquiring lock: %w", err)
		}
		if ok {
			return func(ctx context.Context) error {
				return l.client.Eval(ctx, unlockScript, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrRunLocked, runID, ctx.Err())
		case <-ticker.C:
		}
	}
}
