package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/internal/repo"
	"github.com/fineshyttt/commerce-backend/pkg/db/models"
)

// Repository resolves addresses scoped to their owner.
type Repository struct {
	base repo.Base
}

// NewRepository builds an address repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

// BelongsTo reports whether the address exists and is owned by userID.
// A missing and a foreign address both read as false.
func (r *Repository) BelongsTo(ctx context.Context, addressID, userID uuid.UUID) (bool, error) {
	return r.base.Exists(ctx, &models.Address{}, "id = ? AND user_id = ?", addressID, userID)
}
