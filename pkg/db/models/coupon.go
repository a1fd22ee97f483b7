package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/pkg/enums"
)

// Coupon is a redeemable discount with a validity window and optional usage cap.
type Coupon struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code           string             `gorm:"column:code;not null;uniqueIndex:uq_coupons_code"`
	DiscountType   enums.DiscountType `gorm:"column:discount_type;type:varchar(16);not null"`
	DiscountValue  decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinOrderAmount *decimal.Decimal   `gorm:"column:min_order_amount;type:numeric(12,2)"`
	MaxDiscount    *decimal.Decimal   `gorm:"column:max_discount;type:numeric(12,2)"`
	ValidFrom      time.Time          `gorm:"column:valid_from;not null"`
	ValidUntil     time.Time          `gorm:"column:valid_until;not null"`
	UsageLimit     *int               `gorm:"column:usage_limit"`
	TimesUsed      int                `gorm:"column:times_used;not null;check:chk_coupons_usage,usage_limit IS NULL OR times_used <= usage_limit"`
	IsActive       bool               `gorm:"column:is_active;not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
