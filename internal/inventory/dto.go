package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/fineshyttt/commerce-backend/pkg/db/models"
)

// StockDTO is the API view of a stock row.
type StockDTO struct {
	VariantID        uuid.UUID `json:"variant_id"`
	Quantity         int       `json:"quantity"`
	ReservedQuantity int       `json:"reserved_quantity"`
	Available        int       `json:"available"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func stockFromModel(row models.Inventory) *StockDTO {
	return &StockDTO{
		VariantID:        row.VariantID,
		Quantity:         row.Quantity,
		ReservedQuantity: row.ReservedQuantity,
		Available:        row.Available(),
		UpdatedAt:        row.UpdatedAt,
	}
}
