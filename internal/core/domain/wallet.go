package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is the per-user custodial wallet record. Exactly one wallet exists
// per user; the address is generated once at registration and never changes.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Address   string          `json:"address"`
	PinHash   string          `json:"-"` // Argon2id digest, never expose
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CanDebit reports whether the wallet can cover an outgoing amount.
// The boundary is inclusive: a transfer of the full balance is allowed.
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return amount.LessThanOrEqual(w.Balance)
}
