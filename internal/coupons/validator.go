package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/pkg/db/models"
	"github.com/fineshyttt/commerce-backend/pkg/enums"
	pkgerrors "github.com/fineshyttt/commerce-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Redemption is a consumed coupon use and the discount it granted.
type Redemption struct {
	Coupon   models.Coupon
	Discount decimal.Decimal
}

// Validator checks coupon eligibility and consumes redemptions.
type Validator struct {
	repo Repository
	now  func() time.Time
}

// NewValidator wires a validator; now defaults to time.Now.
func NewValidator(repo Repository, now func() time.Time) (*Validator, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &Validator{repo: repo, now: now}, nil
}

// WithTx returns a validator whose redemption joins the supplied transaction.
func (v *Validator) WithTx(tx *gorm.DB) *Validator {
	return &Validator{repo: v.repo.WithTx(tx), now: v.now}
}

// ValidateAndRedeem is not idempotent: each successful call consumes one use.
func (v *Validator) ValidateAndRedeem(ctx context.Context, code string, orderTotal decimal.Decimal) (*Redemption, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	coupon, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Coupon not found").
				WithDetails(map[string]any{"code": code})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	if err := v.check(*coupon, orderTotal); err != nil {
		return nil, err
	}
	discount := CalculateDiscount(*coupon, orderTotal)

	ok, err := v.repo.IncrementUsage(ctx, coupon.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem coupon")
	}
	if !ok {
		return nil, invalid(code, "Coupon usage limit reached")
	}
	coupon.TimesUsed++

	return &Redemption{Coupon: *coupon, Discount: discount}, nil
}

func (v *Validator) check(coupon models.Coupon, orderTotal decimal.Decimal) error {
	if !coupon.IsActive {
		return invalid(coupon.Code, "Coupon is not active")
	}
	now := v.now()
	if now.Before(coupon.ValidFrom) || !now.Before(coupon.ValidUntil) {
		return invalid(coupon.Code, "Coupon has expired")
	}
	if coupon.MinOrderAmount != nil && orderTotal.LessThan(*coupon.MinOrderAmount) {
		return invalid(coupon.Code, "Minimum order amount not met: "+coupon.MinOrderAmount.StringFixed(2))
	}
	if coupon.UsageLimit != nil && coupon.TimesUsed >= *coupon.UsageLimit {
		return invalid(coupon.Code, "Coupon usage limit reached")
	}
	return nil
}

// CalculateDiscount applies the coupon to orderTotal, honoring the max
// discount cap and never exceeding the total itself.
func CalculateDiscount(coupon models.Coupon, orderTotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		discount = orderTotal.Mul(coupon.DiscountValue).Div(hundred)
	default:
		discount = coupon.DiscountValue
	}
	if coupon.MaxDiscount != nil && discount.GreaterThan(*coupon.MaxDiscount) {
		discount = *coupon.MaxDiscount
	}
	if discount.GreaterThan(orderTotal) {
		discount = orderTotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount.Round(2)
}

func invalid(code, message string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidCoupon, message).
		WithDetails(map[string]any{"code": code})
}
