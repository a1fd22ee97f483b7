package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/internal/inventory"
	"github.com/fineshyttt/commerce-backend/pkg/auth"
	"github.com/fineshyttt/commerce-backend/pkg/db/models"
	"github.com/fineshyttt/commerce-backend/pkg/enums"
	pkgerrors "github.com/fineshyttt/commerce-backend/pkg/errors"
	"github.com/fineshyttt/commerce-backend/pkg/logger"
	"github.com/fineshyttt/commerce-backend/pkg/metrics"
	"github.com/fineshyttt/commerce-backend/pkg/outbox"
	"github.com/fineshyttt/commerce-backend/pkg/pagination"
)

const cancelledByUserNote = "Cancelled by user"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines order reads and lifecycle transitions.
type Service interface {
	GetOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*OrderDTO, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, limit, offset int) (*OrderSummaryList, error)
	ListHistory(ctx context.Context, actor auth.Actor, orderID uuid.UUID) ([]HistoryDTO, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, status enums.OrderStatus, notes string) (*OrderDTO, error)
	Cancel(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*OrderDTO, error)
	ListStaleOrderIDs(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

type service struct {
	repo    Repository
	history *HistoryRecorder
	ledger  *inventory.Ledger
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
}

// NewService builds the order service. The lifecycle table is validated here so
// a broken table fails startup instead of a request.
func NewService(repo Repository, history *HistoryRecorder, ledger *inventory.Ledger, tx txRunner, emitter outboxPublisher, m *metrics.OrderMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if history == nil {
		return nil, fmt.Errorf("history recorder required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateTransitionTable(); err != nil {
		return nil, err
	}
	return &service{
		repo:    repo,
		history: history,
		ledger:  ledger,
		tx:      tx,
		outbox:  emitter,
		metrics: m,
		logg:    logg,
	}, nil
}

func (s *service) GetOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, order); err != nil {
		return nil, err
	}
	return NewOrderDTO(*order), nil
}

func (s *service) ListUserOrders(ctx context.Context, userID uuid.UUID, limit, offset int) (*OrderSummaryList, error) {
	if limit <= 0 || limit > pagination.MaxLimit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "limit out of range")
	}
	if offset < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offset cannot be negative")
	}

	rows, total, err := s.repo.ListUserOrders(ctx, userID, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	counts, err := s.repo.CountItems(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count order items")
	}

	list := &OrderSummaryList{
		Orders: make([]OrderSummaryDTO, 0, len(rows)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for _, row := range rows {
		list.Orders = append(list.Orders, OrderSummaryDTO{
			ID:          row.ID,
			Status:      row.Status,
			ItemCount:   counts[row.ID],
			TotalAmount: row.TotalAmount,
			CreatedAt:   row.CreatedAt,
		})
	}
	return list, nil
}

func (s *service) ListHistory(ctx context.Context, actor auth.Actor, orderID uuid.UUID) ([]HistoryDTO, error) {
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, order); err != nil {
		return nil, err
	}
	rows, err := s.history.List(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order history")
	}
	return newHistoryDTOs(rows), nil
}

// UpdateStatus applies an arbitrary legal transition. Restricted to admins and background jobs.
func (s *service) UpdateStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, status enums.OrderStatus, notes string) (*OrderDTO, error) {
	if !actor.IsAdmin() && !actor.IsSystem() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required to change order status")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": status})
	}
	return s.changeStatus(ctx, actor, orderID, status, notes, nil)
}

// Cancel lets the owner cancel their own order while it is still cancellable.
func (s *service) Cancel(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	guard := func(order *models.Order) error {
		if !actor.Owns(order.UserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
		}
		if !order.Status.IsCancellable() {
			return pkgerrors.New(pkgerrors.CodeInvalidStatusTransition,
				fmt.Sprintf("Order cannot be cancelled in current status: %s", order.Status))
		}
		return nil
	}
	return s.changeStatus(ctx, actor, orderID, enums.OrderStatusCancelled, cancelledByUserNote, guard)
}

func (s *service) ListStaleOrderIDs(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	statuses := []enums.OrderStatus{enums.OrderStatusCreated, enums.OrderStatusPaymentPending}
	ids, err := s.repo.FindStaleOrderIDs(ctx, statuses, cutoff, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale orders")
	}
	return ids, nil
}

// changeStatus writes the status, its stock side effect, the audit row and the
// outbox event in one transaction; any failure rolls all of them back.
func (s *service) changeStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, to enums.OrderStatus, notes string, guard func(*models.Order) error) (*OrderDTO, error) {
	var (
		result *models.Order
		from   enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(order); err != nil {
				return err
			}
		}

		from = order.Status
		if !CanTransition(from, to) {
			return invalidTransition(from, to)
		}
		moved, err := repo.UpdateStatus(ctx, orderID, from, to)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeInvalidStatusTransition, "order status changed concurrently").
				WithDetails(map[string]any{"from": from, "to": to})
		}

		if err := applyEffect(ctx, s.ledger.WithTx(tx), effectOf(from, to), order.Items); err != nil {
			return err
		}

		entry, err := NewHistoryEntry(orderID, &from, to, actor, notes)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build history entry")
		}
		if err := s.history.WithTx(tx).Record(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order history")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:   enums.EventOrderStatusChanged,
			AggregateID: orderID,
			Actor:       &outbox.ActorRef{UserID: actor.UserRef(), Role: string(actor.Role)},
			Data: outbox.OrderStatusChangedEvent{
				OrderID:   orderID,
				OldStatus: from,
				NewStatus: to,
				Notes:     entry.Notes,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order status event")
		}

		result, err = s.loadOrder(ctx, repo, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(from.String(), to.String())
	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	logCtx = s.logg.WithActorRole(logCtx, string(actor.Role))
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"from":   from,
		"to":     to,
		"effect": effectOf(from, to).String(),
	})
	s.logg.Info(logCtx, "order status changed")
	return NewOrderDTO(*result), nil
}

func applyEffect(ctx context.Context, ledger *inventory.Ledger, effect inventoryEffect, items []models.OrderItem) error {
	for _, item := range items {
		var err error
		switch effect {
		case effectRelease:
			err = ledger.Release(ctx, item.VariantID, item.Quantity)
		case effectDeduct:
			err = ledger.Deduct(ctx, item.VariantID, item.Quantity)
		default:
			return nil
		}
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "Insufficient stock for "+item.ProductName).
					WithDetails(map[string]any{"variant_id": item.VariantID})
			}
			return err
		}
	}
	return nil
}

func (s *service) loadOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func authorizeRead(actor auth.Actor, order *models.Order) error {
	if actor.IsAdmin() || actor.IsSystem() || actor.Owns(order.UserID) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
}

func invalidTransition(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidStatusTransition,
		fmt.Sprintf("Invalid status transition: %s -> %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to, "allowed": AllowedTransitions(from)})
}
