package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refitlabs/refit/internal/adapters/redis"
	"github.com/refitlabs/refit/pkg/domain"
	"github.com/refitlabs/refit/pkg/ports"
	"github.com/refitlabs/refit/pkg/ports/tests"
)

var (
	_ ports.StateStore    = (*redis.Store)(nil)
	_ ports.ArtifactStore = (*redis.Store)(nil)
	_ ports.RunStore      = (*redis.Store)(nil)
)

func newTestStore(t *testing.T) *redis.Store {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return redis.NewFromClient(client)
}

func TestStore_StateContract(t *testing.T) {
	tests.StateStoreContractTest(t, newTestStore(t))
}

func TestStore_ArtifactContract(t *testing.T) {
	tests.ArtifactStoreContractTest(t, newTestStore(t))
}

func TestStore_RunIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Latest(ctx)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	require.NoError(t, store.Init(ctx, "run-a"))
	require.NoError(t, store.Init(ctx, "run-b"))

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-b", latest)

	ok, err := store.Exists(ctx, "run-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "run-z")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-a", "run-b"}, list)

	// Duplicate registration is rejected.
	assert.Error(t, store.Init(ctx, "run-a"))
}

func TestStore_RemoveDropsEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Init(ctx, "run-a"))
	_, err := store.Save(ctx, "run-a", 1, "content", "summary")
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, "run-a"))

	ok, err := store.Exists(ctx, "run-a")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = store.Load(ctx, "run-a", 1)
	assert.ErrorIs(t, err, domain.ErrMissingArtifact)
}
