package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fineshyttt/commerce-backend/pkg/db/models"
	"github.com/fineshyttt/commerce-backend/pkg/enums"
)

// OrderItemDTO is one frozen order line.
type OrderItemDTO struct {
	ID              uuid.UUID       `json:"id"`
	VariantID       uuid.UUID       `json:"variant_id"`
	ProductName     string          `json:"product_name"`
	VariantSKU      string          `json:"variant_sku"`
	Size            *string         `json:"size,omitempty"`
	Color           *string         `json:"color,omitempty"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

// OrderDTO is the full order representation returned by checkout and status changes.
type OrderDTO struct {
	ID                uuid.UUID         `json:"id"`
	Status            enums.OrderStatus `json:"status"`
	Items             []OrderItemDTO    `json:"items"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	DiscountAmount    decimal.Decimal   `json:"discount_amount"`
	FinalAmount       decimal.Decimal   `json:"final_amount"`
	ShippingAddressID uuid.UUID         `json:"shipping_address_id"`
	BillingAddressID  uuid.UUID         `json:"billing_address_id"`
	CouponCode        *string           `json:"coupon_code,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// OrderSummaryDTO is the list view of an order.
type OrderSummaryDTO struct {
	ID          uuid.UUID         `json:"id"`
	Status      enums.OrderStatus `json:"status"`
	ItemCount   int               `json:"item_count"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrderSummaryList wraps one page of summaries.
type OrderSummaryList struct {
	Orders []OrderSummaryDTO `json:"orders"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// HistoryDTO is one audit trail entry.
type HistoryDTO struct {
	ID        uuid.UUID          `json:"id"`
	OldStatus *enums.OrderStatus `json:"old_status"`
	NewStatus enums.OrderStatus  `json:"new_status"`
	ChangedBy *uuid.UUID         `json:"changed_by,omitempty"`
	Notes     *string            `json:"notes,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewOrderDTO maps a persisted order and its items.
func NewOrderDTO(order models.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:              item.ID,
			VariantID:       item.VariantID,
			ProductName:     item.ProductName,
			VariantSKU:      item.SKU,
			Size:            item.Size,
			Color:           item.Color,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
			Subtotal:        item.Subtotal(),
		})
	}
	return &OrderDTO{
		ID:                order.ID,
		Status:            order.Status,
		Items:             items,
		TotalAmount:       order.TotalAmount,
		DiscountAmount:    order.DiscountAmount,
		FinalAmount:       order.FinalAmount(),
		ShippingAddressID: order.ShippingAddressID,
		BillingAddressID:  order.BillingAddressID,
		CouponCode:        order.CouponCode,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

func newHistoryDTOs(rows []models.OrderStatusHistory) []HistoryDTO {
	out := make([]HistoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, HistoryDTO{
			ID:        row.ID,
			OldStatus: row.OldStatus,
			NewStatus: row.NewStatus,
			ChangedBy: row.ChangedBy,
			Notes:     row.Notes,
			CreatedAt: row.CreatedAt,
		})
	}
	return out
}
