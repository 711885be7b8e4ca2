package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor implements ports.DBTransactor on the shared pool. Ledger
// mutations run inside the transactions it hands out, so the row lock taken
// by GetByOwnerIDForUpdate holds until commit or rollback.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a new Transactor.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin opens a database transaction.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.pool.Begin(ctx)
}
