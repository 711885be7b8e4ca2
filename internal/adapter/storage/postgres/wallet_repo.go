package postgres

import (
	"context"
	"errors"
	"fmt"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository. Balances travel as text on
// the wire and live as NUMERIC in the table, so no float ever touches them.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet into the database.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, owner_id, address, pin_hash, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.OwnerID, w.Address, w.PinHash, w.Balance.String(),
		w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByOwnerID fetches a wallet by its owner (non-locking read).
func (r *WalletRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, owner_id, address, pin_hash, balance::text, created_at, updated_at
		FROM wallets WHERE owner_id = $1`

	return scanWallet(r.pool.QueryRow(ctx, query, ownerID), "get wallet by owner")
}

// GetByOwnerIDForUpdate fetches a wallet by owner with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByOwnerIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, owner_id, address, pin_hash, balance::text, created_at, updated_at
		FROM wallets WHERE owner_id = $1 FOR UPDATE`

	return scanWallet(tx.QueryRow(ctx, query, ownerID), "get wallet for update")
}

// UpdateBalance sets a wallet's balance within a transaction.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE wallets SET balance = $1::numeric, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance.String(), walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

func scanWallet(row pgx.Row, op string) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	var balance string
	err := row.Scan(&w.ID, &w.OwnerID, &w.Address, &w.PinHash, &balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	w.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("%s: parse balance: %w", op, err)
	}
	return w, nil
}
