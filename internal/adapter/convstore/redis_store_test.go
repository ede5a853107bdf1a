package convstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retrieval-engine/internal/adapter/convstore"
)

func newTestStore(t *testing.T) (*convstore.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return convstore.NewRedisStore(client), mr
}

func TestRedisStore_GetSummary(t *testing.T) {
	store, mr := newTestStore(t)

	require.NoError(t, mr.Set("conversation:summary:session-1", "User asked about Box migration."))

	summary, err := store.GetSummary(context.Background(), "session-1")

	require.NoError(t, err)
	assert.Equal(t, "User asked about Box migration.", summary)
}

func TestRedisStore_MissingSessionIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	summary, err := store.GetSummary(context.Background(), "unknown-session")

	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestRedisStore_ServerErrorSurfaces(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, err := store.GetSummary(context.Background(), "session-1")

	assert.Error(t, err)
}
