package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwhender/BayesicFitting/internal/adapters/memory"
	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.New()
	ports.RunCheckpointStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cp := &domain.Checkpoint{RunID: "r", Walkers: []domain.WalkerState{{Allpars: []float64{1}}}}
	require.NoError(t, store.Save(ctx, cp))

	cp.Walkers[0].Allpars[0] = 2
	loaded, err := store.Load(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 1.0, loaded.Walkers[0].Allpars[0])

	loaded.Walkers[0].Allpars[0] = 3
	again, err := store.Load(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 1.0, again.Walkers[0].Allpars[0])
}
