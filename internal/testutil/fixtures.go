package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/pkg/db/models"
)

// SeedVariant inserts a product, one variant and its stock row.
func SeedVariant(t *testing.T, conn *gorm.DB, name, sku string, price decimal.Decimal, quantity int) models.ProductVariant {
	t.Helper()

	product := models.Product{Name: name}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	size, color := "M", "black"
	variant := models.ProductVariant{
		ProductID: product.ID,
		SKU:       sku,
		Size:      &size,
		Color:     &color,
		Price:     price,
		IsActive:  true,
	}
	if err := conn.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	if err := conn.Create(&models.Inventory{VariantID: variant.ID, Quantity: quantity}).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return variant
}

// SeedAddress inserts an address owned by userID.
func SeedAddress(t *testing.T, conn *gorm.DB, userID uuid.UUID) models.Address {
	t.Helper()

	addr := models.Address{
		UserID:     userID,
		FullName:   "Jordan Lee",
		Line1:      "1 Market St",
		City:       "Springfield",
		State:      "OR",
		PostalCode: "97477",
		Country:    "US",
	}
	if err := conn.Create(&addr).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}
	return addr
}

// CartLine is a (variant, quantity) pair used to seed carts.
type CartLine struct {
	VariantID uuid.UUID
	Quantity  int
}

// SeedCart inserts a cart for userID holding lines.
func SeedCart(t *testing.T, conn *gorm.DB, userID uuid.UUID, lines ...CartLine) models.Cart {
	t.Helper()

	cart := models.Cart{UserID: userID}
	if err := conn.Create(&cart).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	for _, line := range lines {
		item := models.CartItem{CartID: cart.ID, VariantID: line.VariantID, Quantity: line.Quantity}
		if err := conn.Create(&item).Error; err != nil {
			t.Fatalf("seed cart item: %v", err)
		}
	}
	return cart
}

// LoadInventory reads the stock row for variantID.
func LoadInventory(t *testing.T, conn *gorm.DB, variantID uuid.UUID) models.Inventory {
	t.Helper()

	var row models.Inventory
	if err := conn.Where("variant_id = ?", variantID).First(&row).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	return row
}
