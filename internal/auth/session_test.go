package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewSessionStore(rdb, time.Hour), mr
}

func TestSessionCreateAndRotate(t *testing.T) {
	store, _ := newSessionStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, newToken, err := store.Rotate(ctx, token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, userID)
	assert.NotEqual(t, token, newToken)

	// 旧令牌在轮换时立即作废
	_, _, err = store.Rotate(ctx, token)
	require.ErrorIs(t, err, ErrSessionNotFound)

	// 新令牌可以继续用
	userID, _, err = store.Rotate(ctx, newToken)
	require.NoError(t, err)
	assert.EqualValues(t, 42, userID)
}

func TestSessionRotateUnknownToken(t *testing.T) {
	store, _ := newSessionStore(t)

	_, _, err := store.Rotate(context.Background(), "no-such-token")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionExpires(t *testing.T) {
	store, mr := newSessionStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, 7)
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, _, err = store.Rotate(ctx, token)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionDelete(t *testing.T) {
	store, _ := newSessionStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, 7)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, token))

	_, _, err = store.Rotate(ctx, token)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
