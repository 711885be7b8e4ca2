package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// SessionStore implements ports.SessionStore: the per-wallet unlock flag
// and the PIN failure counter, both with TTLs so state expires on its own.
type SessionStore struct {
	client       *goredis.Client
	unlockPrefix string
	failPrefix   string
}

// NewSessionStore creates a new Redis-backed session store.
func NewSessionStore(client *goredis.Client) *SessionStore {
	return &SessionStore{
		client:       client,
		unlockPrefix: "pin:unlocked:",
		failPrefix:   "pin:failures:",
	}
}

// MarkUnlocked records that the owner's wallet passed the PIN check.
func (s *SessionStore) MarkUnlocked(ctx context.Context, ownerID uuid.UUID, ttl time.Duration) error {
	err := s.client.Set(ctx, s.unlockPrefix+ownerID.String(), 1, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis mark unlocked: %w", err)
	}
	return nil
}

// IsUnlocked reports whether the owner's wallet is currently unlocked.
func (s *SessionStore) IsUnlocked(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	n, err := s.client.Exists(ctx, s.unlockPrefix+ownerID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("redis unlock check: %w", err)
	}
	return n > 0, nil
}

// ClearUnlock re-seals the wallet immediately.
func (s *SessionStore) ClearUnlock(ctx context.Context, ownerID uuid.UUID) error {
	err := s.client.Del(ctx, s.unlockPrefix+ownerID.String()).Err()
	if err != nil {
		return fmt.Errorf("redis clear unlock: %w", err)
	}
	return nil
}

// RecordFailure increments the owner's PIN failure counter and returns the
// new count. The expiry is set on the first failure so the counter resets
// after the lockout window.
func (s *SessionStore) RecordFailure(ctx context.Context, ownerID uuid.UUID, window time.Duration) (int64, error) {
	key := s.failPrefix + ownerID.String()
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis record failure: %w", err)
	}
	if count == 1 {
		s.client.Expire(ctx, key, window)
	}
	return count, nil
}

// FailureCount returns the current PIN failure count, zero if none.
func (s *SessionStore) FailureCount(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	count, err := s.client.Get(ctx, s.failPrefix+ownerID.String()).Int64()
	if err != nil {
		if err == goredis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("redis failure count: %w", err)
	}
	return count, nil
}

// ResetFailures clears the failure counter after a successful unlock.
func (s *SessionStore) ResetFailures(ctx context.Context, ownerID uuid.UUID) error {
	err := s.client.Del(ctx, s.failPrefix+ownerID.String()).Err()
	if err != nil {
		return fmt.Errorf("redis reset failures: %w", err)
	}
	return nil
}
