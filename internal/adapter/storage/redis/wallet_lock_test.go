package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWalletLock(t *testing.T) (*WalletLock, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	return NewWalletLock(client), s
}

func TestWalletLock_AcquireAndRelease(t *testing.T) {
	lock, _ := newWalletLock(t)
	ctx := context.Background()
	walletID := uuid.New()

	ok, err := lock.Acquire(ctx, walletID, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second acquire while held fails.
	ok, err = lock.Acquire(ctx, walletID, 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx, walletID))

	ok, err = lock.Acquire(ctx, walletID, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWalletLock_ExpiresOnItsOwn(t *testing.T) {
	lock, s := newWalletLock(t)
	ctx := context.Background()
	walletID := uuid.New()

	ok, err := lock.Acquire(ctx, walletID, 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// A crashed holder never blocks the wallet forever.
	s.FastForward(31 * time.Second)

	ok, err = lock.Acquire(ctx, walletID, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWalletLock_IndependentWallets(t *testing.T) {
	lock, _ := newWalletLock(t)
	ctx := context.Background()

	first := uuid.New()
	second := uuid.New()

	ok, err := lock.Acquire(ctx, first, 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = lock.Acquire(ctx, second, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "locks are per wallet")
}
