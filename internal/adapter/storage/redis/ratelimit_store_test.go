package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimitStore(t *testing.T) (*RateLimitStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	return NewRateLimitStore(client), s
}

func TestRateLimitStore_WithinLimit(t *testing.T) {
	store, _ := newRateLimitStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		res, err := store.Allow(ctx, "user-1:wallet", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, int64(5), res.Limit)
		assert.Equal(t, 5-i, res.Remaining)
	}
}

func TestRateLimitStore_OverLimit(t *testing.T) {
	store, _ := newRateLimitStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Allow(ctx, "user-1:wallet", 5, time.Minute)
		require.NoError(t, err)
	}

	res, err := store.Allow(ctx, "user-1:wallet", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Greater(t, res.ResetAt, time.Now().Unix()-int64(time.Minute.Seconds()))
}

func TestRateLimitStore_IndependentKeys(t *testing.T) {
	store, _ := newRateLimitStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Allow(ctx, "user-1:transfers", 3, time.Minute)
		require.NoError(t, err)
	}

	res, err := store.Allow(ctx, "user-2:transfers", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "counters are scoped per key")
}
