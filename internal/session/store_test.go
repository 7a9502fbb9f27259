package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-relay/internal/common/database"
	"pdf-relay/internal/models"
)

func newSession(token string, ttl time.Duration) *models.Session {
	now := time.Now()
	return &models.Session{
		Token:     token,
		Username:  "admin",
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, newSession("tok-1", time.Hour)))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)

	require.NoError(t, store.Delete(ctx, "tok-1"))
	_, err = store.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, newSession("tok-2", time.Hour)))

	// Force the entry past its expiry.
	store.mu.Lock()
	s := store.sessions["tok-2"]
	s.ExpiresAt = time.Now().Add(-time.Minute)
	store.sessions["tok-2"] = s
	store.mu.Unlock()

	_, err := store.Get(ctx, "tok-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUnknownToken(t *testing.T) {
	_, err := NewMemoryStore().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func miniredisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: srv.Addr()})}
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), srv
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, srv := miniredisStore(t)

	require.NoError(t, store.Put(ctx, newSession("tok-3", time.Hour)))
	assert.True(t, srv.Exists("session:tok-3"))

	got, err := store.Get(ctx, "tok-3")
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)
	assert.Equal(t, "tok-3", got.Token)

	require.NoError(t, store.Delete(ctx, "tok-3"))
	_, err = store.Get(ctx, "tok-3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store, srv := miniredisStore(t)

	require.NoError(t, store.Put(ctx, newSession("tok-4", time.Minute)))

	srv.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, "tok-4")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreRejectsExpiredSession(t *testing.T) {
	store, _ := miniredisStore(t)
	err := store.Put(context.Background(), newSession("tok-5", -time.Minute))
	assert.Error(t, err)
}

func TestRedisStoreUnknownToken(t *testing.T) {
	store, _ := miniredisStore(t)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
