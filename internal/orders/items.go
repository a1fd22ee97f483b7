package orders

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fineshyttt/commerce-backend/pkg/db/models"
)

// LineSnapshot is the catalog state of one cart line captured at checkout.
type LineSnapshot struct {
	LineNo      int
	VariantID   uuid.UUID
	ProductName string
	SKU         string
	Size        *string
	Color       *string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// NewOrderItem freezes a line snapshot into an order item.
func NewOrderItem(line LineSnapshot) (models.OrderItem, error) {
	if line.VariantID == uuid.Nil {
		return models.OrderItem{}, fmt.Errorf("order item requires a variant")
	}
	if line.Quantity <= 0 {
		return models.OrderItem{}, fmt.Errorf("order item quantity must be positive")
	}
	if line.UnitPrice.IsNegative() {
		return models.OrderItem{}, fmt.Errorf("order item price cannot be negative")
	}
	if strings.TrimSpace(line.SKU) == "" {
		return models.OrderItem{}, fmt.Errorf("order item requires a sku")
	}
	return models.OrderItem{
		LineNo:          line.LineNo,
		VariantID:       line.VariantID,
		ProductName:     line.ProductName,
		SKU:             line.SKU,
		Size:            line.Size,
		Color:           line.Color,
		Quantity:        line.Quantity,
		PriceAtPurchase: line.UnitPrice,
	}, nil
}

// TotalOf sums the frozen subtotals of items.
func TotalOf(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
