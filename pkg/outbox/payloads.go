package outbox

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fineshyttt/commerce-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once checkout commits an order.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID       `json:"orderId"`
	UserID         uuid.UUID       `json:"userId"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	CouponCode     *string         `json:"couponCode,omitempty"`
	ItemCount      int             `json:"itemCount"`
}

// OrderStatusChangedEvent is emitted for every committed status transition.
type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID         `json:"orderId"`
	OldStatus enums.OrderStatus `json:"oldStatus"`
	NewStatus enums.OrderStatus `json:"newStatus"`
	Notes     *string           `json:"notes,omitempty"`
}

// StockAdjustedEvent is emitted when an operator restocks or overwrites stock.
type StockAdjustedEvent struct {
	VariantID        uuid.UUID `json:"variantId"`
	Quantity         int       `json:"quantity"`
	ReservedQuantity int       `json:"reservedQuantity"`
	Reason           string    `json:"reason"`
}
