package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/pkg/auth"
	"github.com/fineshyttt/commerce-backend/pkg/db/models"
	"github.com/fineshyttt/commerce-backend/pkg/enums"
)

// HistoryRecorder appends audit rows. Rows are never updated or deleted.
type HistoryRecorder struct {
	db *gorm.DB
}

// NewHistoryRecorder builds a recorder bound to the provided DB.
func NewHistoryRecorder(db *gorm.DB) *HistoryRecorder {
	return &HistoryRecorder{db: db}
}

// WithTx returns a recorder whose inserts join the supplied transaction.
func (r *HistoryRecorder) WithTx(tx *gorm.DB) *HistoryRecorder {
	if tx == nil {
		return r
	}
	return &HistoryRecorder{db: tx}
}

// NewHistoryEntry builds an audit row; oldStatus is nil for the initial CREATED entry.
func NewHistoryEntry(orderID uuid.UUID, oldStatus *enums.OrderStatus, newStatus enums.OrderStatus, actor auth.Actor, notes string) (models.OrderStatusHistory, error) {
	if orderID == uuid.Nil {
		return models.OrderStatusHistory{}, fmt.Errorf("history entry requires an order")
	}
	if !newStatus.IsValid() {
		return models.OrderStatusHistory{}, fmt.Errorf("history entry has invalid status %q", newStatus)
	}
	entry := models.OrderStatusHistory{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: actor.UserRef(),
	}
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		entry.Notes = &trimmed
	}
	return entry, nil
}

// Record appends one entry.
func (r *HistoryRecorder) Record(ctx context.Context, entry models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(&entry).Error
}

// List returns the audit trail of an order, oldest first.
func (r *HistoryRecorder) List(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var rows []models.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}
