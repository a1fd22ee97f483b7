package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/pkg/enums"
)

// Order is the immutable record produced by checkout. Only Status and UpdatedAt change afterwards.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID            uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index:idx_orders_user_created,priority:1"`
	Status            enums.OrderStatus `gorm:"column:status;type:varchar(32);not null;index"`
	TotalAmount       decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DiscountAmount    decimal.Decimal   `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	ShippingAddressID uuid.UUID         `gorm:"column:shipping_address_id;type:uuid;not null"`
	BillingAddressID  uuid.UUID         `gorm:"column:billing_address_id;type:uuid;not null"`
	CouponID          *uuid.UUID        `gorm:"column:coupon_id;type:uuid"`
	CouponCode        *string           `gorm:"column:coupon_code"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime;index:idx_orders_user_created,priority:2"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// FinalAmount is the amount payable after the coupon discount.
func (o Order) FinalAmount() decimal.Decimal {
	return o.TotalAmount.Sub(o.DiscountAmount)
}

// OrderItem freezes the variant price and descriptive fields at checkout time.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index;uniqueIndex:uq_order_items_line,priority:1"`
	LineNo          int             `gorm:"column:line_no;not null;uniqueIndex:uq_order_items_line,priority:2"`
	VariantID       uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	ProductName     string          `gorm:"column:product_name;not null"`
	SKU             string          `gorm:"column:sku;not null"`
	Size            *string         `gorm:"column:size"`
	Color           *string         `gorm:"column:color"`
	Quantity        int             `gorm:"column:quantity;not null;check:chk_order_items_quantity,quantity > 0"`
	PriceAtPurchase decimal.Decimal `gorm:"column:price_at_purchase;type:numeric(12,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// Subtotal is the frozen line total.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
