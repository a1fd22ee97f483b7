package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/pkg/enums"
)

// OrderStatusHistory is an append-only audit row written for every transition.
type OrderStatusHistory struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	OldStatus *enums.OrderStatus `gorm:"column:old_status;type:varchar(32)"`
	NewStatus enums.OrderStatus  `gorm:"column:new_status;type:varchar(32);not null"`
	ChangedBy *uuid.UUID         `gorm:"column:changed_by;type:uuid"`
	Notes     *string            `gorm:"column:notes"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

func (h *OrderStatusHistory) BeforeCreate(*gorm.DB) error {
	ensureID(&h.ID)
	return nil
}
