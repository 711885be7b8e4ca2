package service

import (
	"context"
	"fmt"
	"time"

	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PinGateConfig tunes the PIN gate behaviour.
type PinGateConfig struct {
	MaxAttempts int64         // consecutive failures before lockout
	Lockout     time.Duration // cool-down once locked
	UnlockTTL   time.Duration // unlocked session lifetime
}

// PinGateImpl implements ports.PinGate. Unlock state is session-scoped and
// TTL-bound: nothing survives a server restart or the TTL, so clients must
// re-verify, matching the reload-relocks behaviour of the wallet UI.
//
// Lockout after MaxAttempts is enforced for real here, not just surfaced.
type PinGateImpl struct {
	walletRepo ports.WalletRepository
	sessions   ports.SessionStore
	hasher     ports.PinHasher
	cfg        PinGateConfig
	log        zerolog.Logger
}

// NewPinGate creates a new PinGateImpl.
func NewPinGate(
	walletRepo ports.WalletRepository,
	sessions ports.SessionStore,
	hasher ports.PinHasher,
	cfg PinGateConfig,
	log zerolog.Logger,
) *PinGateImpl {
	return &PinGateImpl{
		walletRepo: walletRepo,
		sessions:   sessions,
		hasher:     hasher,
		cfg:        cfg,
		log:        log,
	}
}

// Unlock verifies the candidate PIN against the stored digest.
func (s *PinGateImpl) Unlock(ctx context.Context, ownerID uuid.UUID, pin string) error {
	if !pinFormatRe.MatchString(pin) {
		return apperror.ErrMalformedPin()
	}

	attempts, err := s.sessions.FailureCount(ctx, ownerID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("read attempt counter: %w", err))
	}
	if attempts >= s.cfg.MaxAttempts {
		return apperror.ErrPinLocked()
	}

	wallet, err := s.walletRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("fetch wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrWalletNotFound()
	}

	ok, err := s.hasher.Verify(pin, wallet.PinHash)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("verify pin: %w", err))
	}
	if !ok {
		count, err := s.sessions.RecordFailure(ctx, ownerID, s.cfg.Lockout)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("record failed attempt: %w", err))
		}
		s.log.Warn().
			Str("owner_id", ownerID.String()).
			Int64("attempts", count).
			Msg("pin verification failed")
		if count >= s.cfg.MaxAttempts {
			return apperror.ErrPinLocked()
		}
		return apperror.ErrInvalidPin(s.cfg.MaxAttempts - count)
	}

	if err := s.sessions.ResetFailures(ctx, ownerID); err != nil {
		s.log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("failed to reset attempt counter")
	}
	if err := s.sessions.MarkUnlocked(ctx, ownerID, s.cfg.UnlockTTL); err != nil {
		return apperror.InternalError(fmt.Errorf("mark unlocked: %w", err))
	}

	s.log.Info().Str("owner_id", ownerID.String()).Msg("wallet unlocked")
	return nil
}

// Lock drops the session unlock flag.
func (s *PinGateImpl) Lock(ctx context.Context, ownerID uuid.UUID) error {
	if err := s.sessions.ClearUnlock(ctx, ownerID); err != nil {
		return apperror.InternalError(fmt.Errorf("clear unlock: %w", err))
	}
	return nil
}

// IsUnlocked reports whether the current session has passed the PIN gate.
func (s *PinGateImpl) IsUnlocked(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	unlocked, err := s.sessions.IsUnlocked(ctx, ownerID)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("read unlock flag: %w", err))
	}
	return unlocked, nil
}
