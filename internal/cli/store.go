package cli

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/rwhender/BayesicFitting/internal/adapters/file"
	"github.com/rwhender/BayesicFitting/internal/adapters/memory"
	"github.com/rwhender/BayesicFitting/internal/adapters/redis"
	"github.com/rwhender/BayesicFitting/internal/config"
	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/persistence/middleware"
	"github.com/rwhender/BayesicFitting/pkg/ports"
)

// checkpointing is the storage side of a run.
type checkpointing struct {
	store ports.CheckpointStore
	// locker is nil when the backend cannot be shared between samplers.
	locker ports.RunLocker
	close  func() error
}

// buildStore opens the checkpoint store of cfg; store is nil when
// checkpoints are off. close is never nil.
func buildStore(cfg config.Checkpoint) (checkpointing, error) {
	noop := func() error { return nil }
	off := checkpointing{close: noop}

	var (
		store  ports.CheckpointStore
		locker ports.RunLocker
		done   = noop
	)
	switch cfg.Backend {
	case "":
		return off, nil
	case "memory":
		store, locker = memory.New(), memory.NewLocker()
	case "file":
		store = file.New(cfg.Path)
	case "redis":
		var opts []redis.Option
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		if cfg.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.TTL))
		}
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		store, locker, done = rs, rs.Locker(), rs.Close
	default:
		return off, fmt.Errorf("%w: unknown checkpoint backend %q", domain.ErrInvalidConfig, cfg.Backend)
	}

	if cfg.KeyEnv == "" {
		return checkpointing{store: store, locker: locker, close: done}, nil
	}
	key, err := base64.StdEncoding.DecodeString(os.Getenv(cfg.KeyEnv))
	if err != nil {
		done()
		return off, fmt.Errorf("%w: %s does not hold a base64 key: %v", domain.ErrInvalidConfig, cfg.KeyEnv, err)
	}
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	if err != nil {
		done()
		return off, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return checkpointing{store: mw(store), locker: locker, close: done}, nil
}
