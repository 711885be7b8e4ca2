package postgres

import (
	"context"
	"errors"
	"fmt"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CompanyRepo implements ports.CompanyRepository.
type CompanyRepo struct {
	pool Pool
}

// NewCompanyRepo creates a new CompanyRepo.
func NewCompanyRepo(pool Pool) *CompanyRepo {
	return &CompanyRepo{pool: pool}
}

// Create inserts a new company.
func (r *CompanyRepo) Create(ctx context.Context, c *domain.Company) error {
	query := `INSERT INTO companies (id, name, auth_digest, created_at) VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.AuthDigest, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID fetches a company by UUID.
func (r *CompanyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	query := `SELECT id, name, auth_digest, created_at FROM companies WHERE id = $1`

	c := &domain.Company{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.AuthDigest, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company by id: %w", err)
	}
	return c, nil
}
