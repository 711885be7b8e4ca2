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

// TransactionRepo implements ports.TransactionRepository. The table is
// append-only: no UPDATE or DELETE statement exists here.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create appends a ledger entry within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, wallet_id, type, direction, amount, network, to_address, tx_hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.WalletID, t.Type, t.Direction, t.Amount.String(),
		t.Network, t.ToAddress, t.TxHash, t.Status, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by its UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT id, wallet_id, type, direction, amount::text, network, to_address, tx_hash, status, created_at
		FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// ListByWallet returns the wallet's history in insertion order.
func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error) {
	query := `SELECT id, wallet_id, type, direction, amount::text, network, to_address, tx_hash, status, created_at
		FROM transactions WHERE wallet_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var amount string
	err := row.Scan(&t.ID, &t.WalletID, &t.Type, &t.Direction, &amount,
		&t.Network, &t.ToAddress, &t.TxHash, &t.Status, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	return t, nil
}
