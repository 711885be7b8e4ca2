package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService with pessimistic locking.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	idempRepo  ports.IdempotencyRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		idempRepo:  idempRepo,
		transactor: transactor,
		log:        log,
	}
}

// CurrentBalance fetches the wallet without locking. The returned balance is
// authoritative only at read time; mutations must go through Apply.
func (s *LedgerServiceImpl) CurrentBalance(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("fetch wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	return wallet, nil
}

// History returns the wallet's transaction history in insertion order.
func (s *LedgerServiceImpl) History(ctx context.Context, ownerID uuid.UUID) ([]domain.Transaction, error) {
	wallet, err := s.CurrentBalance(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	txns, err := s.txRepo.ListByWallet(ctx, wallet.ID)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("list transactions: %w", err))
	}
	return txns, nil
}

// Apply commits one balance mutation and its ledger entry atomically. The
// wallet row is locked for the duration of the database transaction, and the
// non-negative balance invariant is checked before anything persists: a
// debit exceeding the balance never reaches the store.
func (s *LedgerServiceImpl) Apply(ctx context.Context, ownerID uuid.UUID, entry ports.LedgerEntry) (*domain.Wallet, *domain.Transaction, error) {
	if !entry.Amount.IsPositive() {
		return nil, nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, nil, apperror.ErrStoreUnavailable(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByOwnerIDForUpdate(ctx, dbTx, ownerID)
	if err != nil {
		return nil, nil, apperror.ErrStoreUnavailable(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, nil, apperror.ErrWalletNotFound()
	}

	newBalance := wallet.Balance
	switch entry.Direction {
	case domain.DirectionDebit:
		// Boundary inclusive: debiting the exact balance is allowed.
		if !wallet.CanDebit(entry.Amount) {
			return nil, nil, apperror.ErrInsufficientBalance()
		}
		newBalance = newBalance.Sub(entry.Amount)
	case domain.DirectionCredit:
		newBalance = newBalance.Add(entry.Amount)
	default:
		return nil, nil, apperror.InternalError(fmt.Errorf("unknown direction %q", entry.Direction))
	}

	txHash, err := generateTxHash()
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("generate tx hash: %w", err))
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:        uuid.New(),
		WalletID:  wallet.ID,
		Type:      entry.Type,
		Direction: entry.Direction,
		Amount:    entry.Amount,
		Network:   entry.Network,
		ToAddress: entry.ToAddress,
		TxHash:    txHash,
		Status:    domain.TransactionStatusCompleted,
		CreatedAt: now,
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return nil, nil, apperror.ErrStoreUnavailable(fmt.Errorf("update balance: %w", err))
	}

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, nil, apperror.ErrStoreUnavailable(fmt.Errorf("append transaction: %w", err))
	}

	if entry.IdempotencyKey != "" {
		respJSON, err := json.Marshal(txn)
		if err != nil {
			return nil, nil, apperror.InternalError(fmt.Errorf("marshal transaction: %w", err))
		}
		idempLog := &domain.IdempotencyLog{
			Key:           entry.IdempotencyKey,
			TransactionID: txn.ID,
			ResponseJSON:  respJSON,
			CreatedAt:     now,
		}
		if err := s.idempRepo.Create(ctx, dbTx, idempLog); err != nil {
			return nil, nil, apperror.ErrStoreUnavailable(fmt.Errorf("save idempotency log: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		// The write did not land: the caller must re-fetch, never assume success.
		return nil, nil, apperror.ErrStoreUnavailable(fmt.Errorf("commit tx: %w", err))
	}

	wallet.Balance = newBalance
	wallet.UpdatedAt = now

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("wallet_id", wallet.ID.String()).
		Str("type", string(txn.Type)).
		Str("direction", string(txn.Direction)).
		Str("amount", entry.Amount.String()).
		Str("balance", newBalance.String()).
		Msg("ledger mutation committed")

	return wallet, txn, nil
}

// generateTxHash produces the simulated transaction reference. There is no
// chain lookup behind it.
func generateTxHash() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b), nil
}
