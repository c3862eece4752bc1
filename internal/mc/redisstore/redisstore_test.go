package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetmesh/control-plane/internal/common/cperr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client)
}

func TestWriteMhFencing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("first write at a higher generation applies", func(t *testing.T) {
		err := store.WriteMh(ctx, "meeting-1", 1, MhRecord{PrimaryID: "mh-1", PrimaryEndpoint: "10.0.0.1:443"})
		require.NoError(t, err)

		gen, err := store.CurrentGeneration(ctx, "meeting-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), gen)
	})

	t.Run("a write at an equal-or-lower generation is fenced out", func(t *testing.T) {
		err := store.WriteMh(ctx, "meeting-1", 1, MhRecord{PrimaryID: "mh-2", PrimaryEndpoint: "10.0.0.2:443"})
		assert.Equal(t, cperr.FencedOut, cperr.KindOf(err))
	})

	t.Run("a write at a strictly higher generation applies", func(t *testing.T) {
		err := store.WriteMh(ctx, "meeting-1", 2, MhRecord{PrimaryID: "mh-3", PrimaryEndpoint: "10.0.0.3:443"})
		assert.NoError(t, err)
	})
}

func TestDeleteFencing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.WriteMh(ctx, "meeting-2", 5, MhRecord{PrimaryID: "mh-1"}))

	t.Run("delete at a lower generation is fenced out", func(t *testing.T) {
		err := store.Delete(ctx, "meeting-2", 4)
		assert.Equal(t, cperr.FencedOut, cperr.KindOf(err))
	})

	t.Run("delete at a higher generation applies", func(t *testing.T) {
		err := store.Delete(ctx, "meeting-2", 6)
		assert.NoError(t, err)

		gen, err := store.CurrentGeneration(ctx, "meeting-2")
		require.NoError(t, err)
		assert.Equal(t, int64(6), gen)
	})
}

func TestCurrentGenerationDefaultsToZero(t *testing.T) {
	store := newTestStore(t)
	gen, err := store.CurrentGeneration(context.Background(), "never-seen")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), gen)
}
