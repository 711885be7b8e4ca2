package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog caches the result of a confirmed workflow instance so a
// re-submitted confirm never applies the ledger delta twice.
type IdempotencyLog struct {
	Key           string    `json:"key"` // Format: "owner_id:flow_id"
	TransactionID uuid.UUID `json:"transaction_id"`
	ResponseJSON  []byte    `json:"response_json"` // Cached transaction to return
	CreatedAt     time.Time `json:"created_at"`
}

// BuildConfirmKey constructs the idempotency key for a transfer confirmation.
func BuildConfirmKey(ownerID, flowID uuid.UUID) string {
	return ownerID.String() + ":" + flowID.String()
}
