package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/pkg/db/models"
	pkgerrors "github.com/fineshyttt/commerce-backend/pkg/errors"
)

// Ledger owns per-variant stock counters. Reserve and Deduct fail hard when
// stock is short; Release is clamped at zero and only fails on store errors
// so compensations can always run.
type Ledger struct {
	repo Repository
}

// NewLedger wires a ledger over the provided repository.
func NewLedger(repo Repository) (*Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &Ledger{repo: repo}, nil
}

// WithTx returns a ledger whose updates join the supplied transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{repo: l.repo.WithTx(tx)}
}

// Get returns the stock row for a variant.
func (l *Ledger) Get(ctx context.Context, variantID uuid.UUID) (*models.Inventory, error) {
	row, err := l.repo.Get(ctx, variantID)
	if err != nil {
		return nil, mapStockError(err, variantID, "load inventory")
	}
	return row, nil
}

// Reserve soft-holds amount units of available stock.
func (l *Ledger) Reserve(ctx context.Context, variantID uuid.UUID, amount int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if err := l.repo.Reserve(ctx, variantID, amount); err != nil {
		return mapStockError(err, variantID, "reserve inventory")
	}
	return nil
}

// Release returns up to amount reserved units to available stock.
func (l *Ledger) Release(ctx context.Context, variantID uuid.UUID, amount int) error {
	if amount <= 0 {
		return nil
	}
	if _, err := l.repo.Release(ctx, variantID, amount); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release inventory")
	}
	return nil
}

// Deduct consumes physical stock for a committed sale and clears the matching reservation.
func (l *Ledger) Deduct(ctx context.Context, variantID uuid.UUID, amount int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if err := l.repo.Deduct(ctx, variantID, amount); err != nil {
		return mapStockError(err, variantID, "deduct inventory")
	}
	return nil
}

// Increase restocks a variant, creating its stock row on first receipt.
func (l *Ledger) Increase(ctx context.Context, variantID uuid.UUID, amount int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if err := l.ensureVariant(ctx, variantID); err != nil {
		return err
	}
	if err := l.repo.Increase(ctx, variantID, amount); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increase inventory")
	}
	return nil
}

// SetStock overwrites the on-hand quantity of a variant.
func (l *Ledger) SetStock(ctx context.Context, variantID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if err := l.ensureVariant(ctx, variantID); err != nil {
		return err
	}
	if err := l.repo.SetQuantity(ctx, variantID, quantity); err != nil {
		if errors.Is(err, ErrNotEnoughStock) {
			return pkgerrors.New(pkgerrors.CodeConflict, "quantity cannot be below reserved quantity").
				WithDetails(map[string]any{"variant_id": variantID})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set inventory")
	}
	return nil
}

func (l *Ledger) ensureVariant(ctx context.Context, variantID uuid.UUID) error {
	ok, err := l.repo.VariantExists(ctx, variantID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
	}
	return nil
}

func validateAmount(amount int) error {
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}

func mapStockError(err error, variantID uuid.UUID, action string) error {
	switch {
	case errors.Is(err, ErrStockRowMissing):
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found").
			WithDetails(map[string]any{"variant_id": variantID})
	case errors.Is(err, ErrNotEnoughStock), pkgerrors.IsCheckViolation(err):
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"variant_id": variantID})
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
	}
}
