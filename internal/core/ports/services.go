package ports

import (
	"context"
	"time"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PinHasher handles PIN and password hashing (Argon2id).
type PinHasher interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}

// AuthorizationService digests and verifies pre-shared company secrets
// (HMAC-SHA256, constant-time comparison).
type AuthorizationService interface {
	Digest(secret string) string
	Verify(secret string, storedDigest string) bool
}

// SessionStore tracks per-user PIN gate state: the session unlock flag and
// the consecutive-failure counter. All state is TTL-bound, so a session
// relocks on its own and lockouts expire.
type SessionStore interface {
	MarkUnlocked(ctx context.Context, ownerID uuid.UUID, ttl time.Duration) error
	IsUnlocked(ctx context.Context, ownerID uuid.UUID) (bool, error)
	ClearUnlock(ctx context.Context, ownerID uuid.UUID) error
	// RecordFailure increments the failure counter and returns the new count.
	// The counter expires after window, which doubles as the lockout cool-down.
	RecordFailure(ctx context.Context, ownerID uuid.UUID, window time.Duration) (int64, error)
	FailureCount(ctx context.Context, ownerID uuid.UUID) (int64, error)
	ResetFailures(ctx context.Context, ownerID uuid.UUID) error
}

// FlowStore persists transfer workflow instances between HTTP calls.
// Instances expire after their TTL; an expired flow never touches the ledger.
type FlowStore interface {
	Save(ctx context.Context, flow *domain.TransferFlow, ttl time.Duration) error
	// Get returns nil, nil when the flow does not exist or has expired.
	Get(ctx context.Context, ownerID, flowID uuid.UUID) (*domain.TransferFlow, error)
	Delete(ctx context.Context, ownerID, flowID uuid.UUID) error
}

// WalletLockStore serializes wallet mutations from a single client: only one
// workflow may be in flight per wallet at a time.
type WalletLockStore interface {
	// Acquire returns true if the lock was taken, false if already held.
	Acquire(ctx context.Context, walletID uuid.UUID, ttl time.Duration) (bool, error)
	Release(ctx context.Context, walletID uuid.UUID) error
}

// IdempotencyCache is the Redis-layer confirm idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// EventPublisher emits transaction lifecycle events for downstream consumers.
type EventPublisher interface {
	PublishTransaction(ctx context.Context, ownerID uuid.UUID, txn *domain.Transaction) error
}

// --- Service Ports (Business Logic) ---

// PinGate verifies the wallet PIN before exposing wallet operations.
type PinGate interface {
	// Unlock verifies the candidate PIN and marks the session unlocked.
	// After MaxAttempts consecutive failures the gate refuses further
	// attempts until the cool-down elapses.
	Unlock(ctx context.Context, ownerID uuid.UUID, pin string) error
	Lock(ctx context.Context, ownerID uuid.UUID) error
	IsUnlocked(ctx context.Context, ownerID uuid.UUID) (bool, error)
}

// LedgerEntry describes one balance mutation to apply.
type LedgerEntry struct {
	Type      domain.TransactionType
	Direction domain.Direction
	Amount    decimal.Decimal // magnitude, must be > 0
	Network   domain.NetworkCode
	ToAddress string
	// IdempotencyKey, when set, is persisted in the same database
	// transaction as the mutation.
	IdempotencyKey string
}

// LedgerService owns the balance + append-only history abstraction.
// Apply is serialized per wallet via a row lock; the non-negative balance
// invariant is checked inside the database transaction, before commit.
type LedgerService interface {
	CurrentBalance(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	History(ctx context.Context, ownerID uuid.UUID) ([]domain.Transaction, error)
	Apply(ctx context.Context, ownerID uuid.UUID, entry LedgerEntry) (*domain.Wallet, *domain.Transaction, error)
}

// IdentityConfirmation is the input to the transfer identity step.
type IdentityConfirmation struct {
	FirstName     string
	LastName      string
	CompanySecret string
}

// PaymentDetails is the input to the transfer details step.
type PaymentDetails struct {
	Network   domain.NetworkCode
	ToAddress string
	Amount    decimal.Decimal
}

// TransferService drives the four-step transfer workflow. Each step
// validates independently; no error crosses a step boundary. Only a fully
// confirmed flow commits to the ledger.
type TransferService interface {
	Start(ctx context.Context, ownerID uuid.UUID) (*domain.TransferFlow, error)
	ConfirmIdentity(ctx context.Context, ownerID, flowID uuid.UUID, req IdentityConfirmation) (*domain.TransferFlow, error)
	SubmitDetails(ctx context.Context, ownerID, flowID uuid.UUID, req PaymentDetails) (*domain.TransferFlow, error)
	Confirm(ctx context.Context, ownerID, flowID uuid.UUID) (*domain.Transaction, error)
	Get(ctx context.Context, ownerID, flowID uuid.UUID) (*domain.TransferFlow, error)
	Abandon(ctx context.Context, ownerID, flowID uuid.UUID) error
}

// CardDetails is the simulated card form. Fields are format-validated only;
// the card is never charged.
type CardDetails struct {
	HolderName string
	Number     string
	Expiry     string // MM/YY
	CVV        string
}

// PurchaseRequest is the input to the buy workflow.
type PurchaseRequest struct {
	Amount decimal.Decimal
	Card   CardDetails
}

// PurchaseService drives the single-step buy workflow.
type PurchaseService interface {
	Buy(ctx context.Context, ownerID uuid.UUID, req PurchaseRequest) (*domain.Transaction, error)
	Denominations() []decimal.Decimal
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Username  string
	Password  string
	Pin       string
	FirstName string
	LastName  string
	CompanyID *uuid.UUID
}

// RegisterResponse holds the registration result.
type RegisterResponse struct {
	UserID   uuid.UUID
	WalletID uuid.UUID
	Address  string
}

// AuthService defines authentication business logic. Registration creates
// the user's wallet: address generated once, PIN digested, balance zero.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// AuditService records audited wallet actions.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
