package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/internal/repo"
	"github.com/fineshyttt/commerce-backend/pkg/db/models"
)

// Line is one cart row joined with its variant and product at read time.
type Line struct {
	ItemID      uuid.UUID
	VariantID   uuid.UUID
	Quantity    int
	ProductName string
	SKU         string
	Size        *string
	Color       *string
	Price       decimal.Decimal
}

// Snapshot is the materialized content of a cart.
type Snapshot struct {
	CartID uuid.UUID
	UserID uuid.UUID
	Lines  []Line
}

// IsEmpty reports whether the cart has no lines.
func (s Snapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Repository reads carts for checkout and clears them afterwards.
type Repository struct {
	base repo.Base
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

// Snapshot loads the user's cart with prices as of now. Returns (nil, nil) when the user has no cart.
func (r *Repository) Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	var record models.Cart
	err := r.base.DB(ctx).Where("user_id = ?", userID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var lines []Line
	err = r.base.DB(ctx).
		Table("cart_items AS ci").
		Select(`ci.id AS item_id,
			ci.variant_id AS variant_id,
			ci.quantity AS quantity,
			p.name AS product_name,
			v.sku AS sku,
			v.size AS size,
			v.color AS color,
			v.price AS price`).
		Joins("JOIN product_variants v ON v.id = ci.variant_id").
		Joins("JOIN products p ON p.id = v.product_id").
		Where("ci.cart_id = ?", record.ID).
		Order("ci.created_at ASC").
		Order("ci.id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}

	return &Snapshot{CartID: record.ID, UserID: record.UserID, Lines: lines}, nil
}

// Clear removes every line from the cart; the cart row itself is kept.
func (r *Repository) Clear(ctx context.Context, cartID uuid.UUID) error {
	return r.base.DB(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
