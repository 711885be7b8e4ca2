package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// WalletLock implements ports.WalletLockStore using Redis SET NX. It keeps
// balance-changing operations single-flight per wallet.
type WalletLock struct {
	client *goredis.Client
	prefix string
}

// NewWalletLock creates a new Redis-backed wallet lock store.
func NewWalletLock(client *goredis.Client) *WalletLock {
	return &WalletLock{
		client: client,
		prefix: "oplock:",
	}
}

// Acquire atomically claims the lock for a wallet. Returns true if this
// caller got the lock, false if another operation holds it.
func (s *WalletLock) Acquire(ctx context.Context, walletID uuid.UUID, ttl time.Duration) (bool, error) {
	key := s.prefix + walletID.String()
	result, err := s.client.SetArgs(ctx, key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists, lock is held
			return false, nil
		}
		return false, fmt.Errorf("redis wallet lock: %w", err)
	}
	return result == "OK", nil
}

// Release frees the wallet lock.
func (s *WalletLock) Release(ctx context.Context, walletID uuid.UUID) error {
	if err := s.client.Del(ctx, s.prefix+walletID.String()).Err(); err != nil {
		return fmt.Errorf("redis wallet unlock: %w", err)
	}
	return nil
}
