package models

import (
	"time"

	"github.com/google/uuid"
)

// Inventory tracks on-hand and reserved stock for one variant.
type Inventory struct {
	VariantID        uuid.UUID `gorm:"column:variant_id;type:uuid;primaryKey"`
	Quantity         int       `gorm:"column:quantity;not null;check:chk_inventory_quantity,quantity >= 0"`
	ReservedQuantity int       `gorm:"column:reserved_quantity;not null;check:chk_inventory_reserved,reserved_quantity >= 0 AND reserved_quantity <= quantity"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Inventory) TableName() string {
	return "inventory"
}

// Available is the stock that can still be reserved.
func (i Inventory) Available() int {
	return i.Quantity - i.ReservedQuantity
}
