package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/internal/address"
	"github.com/fineshyttt/commerce-backend/internal/cart"
	"github.com/fineshyttt/commerce-backend/internal/coupons"
	"github.com/fineshyttt/commerce-backend/internal/inventory"
	"github.com/fineshyttt/commerce-backend/internal/orders"
	"github.com/fineshyttt/commerce-backend/pkg/auth"
	"github.com/fineshyttt/commerce-backend/pkg/db/models"
	pkgerrors "github.com/fineshyttt/commerce-backend/pkg/errors"
	"github.com/fineshyttt/commerce-backend/pkg/logger"
	"github.com/fineshyttt/commerce-backend/pkg/metrics"
	"github.com/fineshyttt/commerce-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service converts a user's cart into an order.
type Service interface {
	Execute(ctx context.Context, actor auth.Actor, input CheckoutInput) (*orders.OrderDTO, error)
}

// CheckoutInput carries the caller-selected addresses and optional coupon.
type CheckoutInput struct {
	ShippingAddressID uuid.UUID
	BillingAddressID  uuid.UUID
	CouponCode        *string
}

// ServiceParams bundles the dependencies required to build a checkout service.
type ServiceParams struct {
	Tx        txRunner
	Carts     *cart.Repository
	Addresses *address.Repository
	Ledger    *inventory.Ledger
	Coupons   *coupons.Validator
	Orders    orders.Repository
	History   *orders.HistoryRecorder
	Outbox    outboxPublisher
	Metrics   *metrics.OrderMetrics
	Logger    *logger.Logger
}

type service struct {
	tx        txRunner
	carts     *cart.Repository
	addresses *address.Repository
	ledger    *inventory.Ledger
	coupons   *coupons.Validator
	orders    orders.Repository
	history   *orders.HistoryRecorder
	outbox    outboxPublisher
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("history recorder required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        params.Tx,
		carts:     params.Carts,
		addresses: params.Addresses,
		ledger:    params.Ledger,
		coupons:   params.Coupons,
		orders:    params.Orders,
		history:   params.History,
		outbox:    params.Outbox,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// Execute runs the whole checkout in one transaction. Reservations taken by the
// attempt are released explicitly on any failure before the rollback.
func (s *service) Execute(ctx context.Context, actor auth.Actor, input CheckoutInput) (*orders.OrderDTO, error) {
	if actor.UserID == uuid.Nil || actor.IsSystem() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user required")
	}
	if input.ShippingAddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address id required")
	}
	if input.BillingAddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing address id required")
	}

	start := time.Now()
	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		a := s.newAttempt(tx, actor, input)
		if err := s.run(ctx, a); err != nil {
			s.compensate(ctx, a)
			return err
		}
		placed = a.order
		return nil
	})
	s.metrics.ObserveCheckout(outcomeOf(err), time.Since(start))

	logCtx := s.logg.WithUserID(ctx, actor.UserID.String())
	if err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "checkout rejected")
		return nil, err
	}

	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"order_id":     placed.ID.String(),
		"total_amount": placed.TotalAmount.StringFixed(2),
		"line_count":   len(placed.Items),
	})
	s.logg.Info(logCtx, "checkout completed")
	return orders.NewOrderDTO(*placed), nil
}

func (s *service) run(ctx context.Context, a *attempt) error {
	steps := []func(context.Context, *attempt) error{
		s.loadCart,
		s.resolveAddresses,
		s.reserveLines,
		s.priceLines,
		s.applyCoupon,
		s.persistOrder,
		s.recordCreated,
		s.clearCart,
		s.emitCreated,
	}
	for _, step := range steps {
		if err := step(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// compensate releases every reservation this attempt made. Release is clamped,
// so running it twice against the same line is harmless.
func (s *service) compensate(ctx context.Context, a *attempt) {
	if len(a.reserved) == 0 {
		return
	}
	ledger := s.ledger.WithTx(a.tx)
	released := 0
	for i := len(a.reserved) - 1; i >= 0; i-- {
		line := a.reserved[i]
		if err := ledger.Release(ctx, line.VariantID, line.Quantity); err != nil {
			logCtx := s.logg.WithField(ctx, "variant_id", line.VariantID.String())
			s.logg.Error(logCtx, "compensating release failed", err)
			continue
		}
		released++
	}
	a.reserved = nil
	s.metrics.AddCompensations(released)
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.CheckoutSucceeded
	}
	if typed := pkgerrors.As(err); typed != nil && pkgerrors.MetadataFor(typed.Code()).HTTPStatus < 500 {
		return metrics.CheckoutRejected
	}
	return metrics.CheckoutFailed
}
