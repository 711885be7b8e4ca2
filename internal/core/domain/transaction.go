package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of wallet movement.
type TransactionType string

const (
	TransactionTypeBuy      TransactionType = "BUY"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// Direction separates movement direction from magnitude. The legacy record
// format encoded direction in the sign of the amount; here amounts are always
// non-negative and direction is explicit.
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// BuyAddressMarker is the fixed destination marker recorded for card purchases.
const BuyAddressMarker = "CARD_PURCHASE"

// Transaction is an immutable, append-only ledger entry. Entries are never
// updated or deleted after creation; history order is insertion order.
type Transaction struct {
	ID        uuid.UUID         `json:"id"`
	WalletID  uuid.UUID         `json:"wallet_id"`
	Type      TransactionType   `json:"type"`
	Direction Direction         `json:"direction"`
	Amount    decimal.Decimal   `json:"amount"` // always >= 0, see Direction
	Network   NetworkCode       `json:"network"`
	ToAddress string            `json:"to"`
	TxHash    string            `json:"tx_hash"` // simulated reference, no chain lookup
	Status    TransactionStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// SignedAmount reproduces the legacy signed view of the amount: negative for
// outgoing transfers, positive for incoming buys.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Direction == DirectionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}
