package postgres

import (
	"context"
	"fmt"

	"custodial-wallet/internal/core/domain"
)

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct {
	pool Pool
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(pool Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Create inserts an audit log entry.
func (r *AuditRepo) Create(ctx context.Context, e *domain.AuditLog) error {
	query := `INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id, details, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.UserID, e.Action, e.ResourceType, e.ResourceID, e.Details, e.IPAddress, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
