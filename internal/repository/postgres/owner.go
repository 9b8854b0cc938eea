package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/domain"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/database"
	apperrors "github.com/ShinYou-bin/epilogue-Book-platform/pkg/errors"
)

// OwnerRepository implements repository.OwnerRepository against the read-only
// users table. Account management lives in another service.
type OwnerRepository struct {
	pool database.DBTX
}

// NewOwnerRepository creates a new PostgreSQL-backed owner repository.
func NewOwnerRepository(pool database.DBTX) *OwnerRepository {
	return &OwnerRepository{pool: pool}
}

// GetByID retrieves an owner by their ID.
func (r *OwnerRepository) GetByID(ctx context.Context, id string) (*domain.Owner, error) {
	query := `SELECT id, email FROM users WHERE id = $1`

	var o domain.Owner
	err := r.pool.QueryRow(ctx, query, id).Scan(&o.ID, &o.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan owner: %w", err)
	}

	return &o, nil
}
