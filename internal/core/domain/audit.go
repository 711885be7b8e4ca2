package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegister AuditAction = "REGISTER"
	AuditActionLogin    AuditAction = "LOGIN"
	AuditActionUnlock   AuditAction = "PIN_UNLOCK"
	AuditActionLock     AuditAction = "PIN_LOCK"
	AuditActionTransfer AuditAction = "TRANSFER"
	AuditActionPurchase AuditAction = "PURCHASE"
)

// AuditLog records a single audited wallet action.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	UserID       *uuid.UUID  `json:"user_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
