package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FlowState is the current step of a transfer workflow instance.
type FlowState string

const (
	// FlowStateAwaitingIdentity: collecting requester name and company secret.
	FlowStateAwaitingIdentity FlowState = "awaiting_identity"
	// FlowStateAwaitingDetails: collecting network, destination address, amount.
	FlowStateAwaitingDetails FlowState = "awaiting_details"
	// FlowStateAwaitingConfirmation: details validated, waiting for confirm.
	FlowStateAwaitingConfirmation FlowState = "awaiting_confirmation"
	// FlowStateProcessing: simulated confirmation delay is running.
	FlowStateProcessing FlowState = "processing"
	// FlowStateCompleted: the ledger mutation committed; instance is spent.
	FlowStateCompleted FlowState = "completed"
)

// TransferFlow is one transfer workflow instance. Instances are single-use:
// a completed flow is never reused, and an abandoned flow expires without
// touching the ledger. Partial state lives only in the flow store.
type TransferFlow struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	State         FlowState       `json:"state"`
	FirstName     string          `json:"first_name,omitempty"`
	LastName      string          `json:"last_name,omitempty"`
	Network       NetworkCode     `json:"network,omitempty"`
	ToAddress     string          `json:"to_address,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID *uuid.UUID      `json:"transaction_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewTransferFlow starts a fresh workflow instance at the identity step.
func NewTransferFlow(ownerID uuid.UUID) *TransferFlow {
	now := time.Now().UTC()
	return &TransferFlow{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		State:     FlowStateAwaitingIdentity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Advance moves the flow to the given state and stamps the update time.
func (f *TransferFlow) Advance(state FlowState) {
	f.State = state
	f.UpdatedAt = time.Now().UTC()
}

// IsCompleted returns true once the ledger mutation has committed.
func (f *TransferFlow) IsCompleted() bool {
	return f.State == FlowStateCompleted
}
