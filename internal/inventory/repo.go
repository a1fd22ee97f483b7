package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fineshyttt/commerce-backend/pkg/db/models"
)

var (
	// ErrStockRowMissing reports that no inventory row exists for the variant.
	ErrStockRowMissing = errors.New("inventory row missing")
	// ErrNotEnoughStock reports that a guarded update matched no row.
	ErrNotEnoughStock = errors.New("not enough stock")
)

// Repository issues the guarded stock updates. Every mutation is a single
// conditional UPDATE so concurrent writers never lose an increment.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, variantID uuid.UUID) (*models.Inventory, error)
	Reserve(ctx context.Context, variantID uuid.UUID, amount int) error
	Release(ctx context.Context, variantID uuid.UUID, amount int) (bool, error)
	Deduct(ctx context.Context, variantID uuid.UUID, amount int) error
	Increase(ctx context.Context, variantID uuid.UUID, amount int) error
	SetQuantity(ctx context.Context, variantID uuid.UUID, quantity int) error
	VariantExists(ctx context.Context, variantID uuid.UUID) (bool, error)
}

type repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db, now: time.Now}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx, now: r.now}
}

func (r *repository) Get(ctx context.Context, variantID uuid.UUID) (*models.Inventory, error) {
	var row models.Inventory
	if err := r.db.WithContext(ctx).Where("variant_id = ?", variantID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStockRowMissing
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) Reserve(ctx context.Context, variantID uuid.UUID, amount int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("variant_id = ? AND quantity - reserved_quantity >= ?", variantID, amount).
		Updates(map[string]any{
			"reserved_quantity": gorm.Expr("reserved_quantity + ?", amount),
			"updated_at":        r.now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missOrShort(ctx, variantID)
	}
	return nil
}

// Release clamps at zero and reports whether a stock row was touched.
func (r *repository) Release(ctx context.Context, variantID uuid.UUID, amount int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("variant_id = ?", variantID).
		Updates(map[string]any{
			"reserved_quantity": gorm.Expr("CASE WHEN reserved_quantity > ? THEN reserved_quantity - ? ELSE 0 END", amount, amount),
			"updated_at":        r.now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Deduct(ctx context.Context, variantID uuid.UUID, amount int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("variant_id = ? AND quantity >= ?", variantID, amount).
		Updates(map[string]any{
			"quantity":          gorm.Expr("quantity - ?", amount),
			"reserved_quantity": gorm.Expr("CASE WHEN reserved_quantity > ? THEN reserved_quantity - ? ELSE 0 END", amount, amount),
			"updated_at":        r.now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missOrShort(ctx, variantID)
	}
	return nil
}

// Increase creates the row on first stock.
func (r *repository) Increase(ctx context.Context, variantID uuid.UUID, amount int) error {
	now := r.now().UTC()
	row := models.Inventory{VariantID: variantID, Quantity: amount, UpdatedAt: now}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "variant_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("inventory.quantity + ?", amount),
				"updated_at": now,
			}),
		}).
		Create(&row).Error
}

// SetQuantity overwrites on-hand stock but never below what is already reserved.
func (r *repository) SetQuantity(ctx context.Context, variantID uuid.UUID, quantity int) error {
	updated, err := r.overwriteQuantity(ctx, variantID, quantity)
	if err != nil || updated {
		return err
	}

	err = r.missOrShort(ctx, variantID)
	if !errors.Is(err, ErrStockRowMissing) {
		return err
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Inventory{VariantID: variantID, Quantity: quantity, UpdatedAt: r.now().UTC()})
	if res.Error != nil || res.RowsAffected > 0 {
		return res.Error
	}

	// lost the insert race; the row exists now
	updated, err = r.overwriteQuantity(ctx, variantID, quantity)
	if err != nil || updated {
		return err
	}
	return r.missOrShort(ctx, variantID)
}

func (r *repository) overwriteQuantity(ctx context.Context, variantID uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("variant_id = ? AND reserved_quantity <= ?", variantID, quantity).
		Updates(map[string]any{
			"quantity":   quantity,
			"updated_at": r.now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) VariantExists(ctx context.Context, variantID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) missOrShort(ctx context.Context, variantID uuid.UUID) error {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("variant_id = ?", variantID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrStockRowMissing
	}
	return ErrNotEnoughStock
}
