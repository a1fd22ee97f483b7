package checkout

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/internal/cart"
	"github.com/fineshyttt/commerce-backend/internal/orders"
	"github.com/fineshyttt/commerce-backend/pkg/auth"
	"github.com/fineshyttt/commerce-backend/pkg/db/models"
	"github.com/fineshyttt/commerce-backend/pkg/enums"
	pkgerrors "github.com/fineshyttt/commerce-backend/pkg/errors"
	"github.com/fineshyttt/commerce-backend/pkg/outbox"
)

type reservedLine struct {
	VariantID uuid.UUID
	Quantity  int
}

// attempt carries state between the checkout sub-steps of one transaction.
type attempt struct {
	tx       *gorm.DB
	actor    auth.Actor
	input    CheckoutInput
	snapshot *cart.Snapshot
	reserved []reservedLine
	items    []models.OrderItem
	total    decimal.Decimal
	discount decimal.Decimal
	coupon   *models.Coupon
	order    *models.Order
}

func (s *service) newAttempt(tx *gorm.DB, actor auth.Actor, input CheckoutInput) *attempt {
	return &attempt{
		tx:       tx,
		actor:    actor,
		input:    input,
		total:    decimal.Zero,
		discount: decimal.Zero,
	}
}

func (s *service) loadCart(ctx context.Context, a *attempt) error {
	snapshot, err := s.carts.WithTx(a.tx).Snapshot(ctx, a.actor.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if snapshot == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found")
	}
	if snapshot.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "Cart is empty")
	}
	a.snapshot = snapshot
	return nil
}

func (s *service) resolveAddresses(ctx context.Context, a *attempt) error {
	repo := s.addresses.WithTx(a.tx)
	for _, check := range []struct {
		id    uuid.UUID
		label string
	}{
		{a.input.ShippingAddressID, "Shipping"},
		{a.input.BillingAddressID, "Billing"},
	} {
		owned, err := repo.BelongsTo(ctx, check.id, a.actor.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+strings.ToLower(check.label)+" address")
		}
		if !owned {
			return pkgerrors.New(pkgerrors.CodeNotFound, check.label+" address not found")
		}
	}
	return nil
}

func (s *service) reserveLines(ctx context.Context, a *attempt) error {
	ledger := s.ledger.WithTx(a.tx)
	for _, line := range a.snapshot.Lines {
		if err := ledger.Reserve(ctx, line.VariantID, line.Quantity); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "Insufficient stock for "+line.ProductName).
					WithDetails(map[string]any{
						"variant_id": line.VariantID,
						"requested":  line.Quantity,
					})
			}
			return err
		}
		a.reserved = append(a.reserved, reservedLine{VariantID: line.VariantID, Quantity: line.Quantity})
	}
	return nil
}

// priceLines freezes the current variant price into each order item.
func (s *service) priceLines(_ context.Context, a *attempt) error {
	items := make([]models.OrderItem, 0, len(a.snapshot.Lines))
	for i, line := range a.snapshot.Lines {
		item, err := orders.NewOrderItem(orders.LineSnapshot{
			LineNo:      i + 1,
			VariantID:   line.VariantID,
			ProductName: line.ProductName,
			SKU:         line.SKU,
			Size:        line.Size,
			Color:       line.Color,
			Quantity:    line.Quantity,
			UnitPrice:   line.Price,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build order item")
		}
		items = append(items, item)
	}
	a.items = items
	a.total = orders.TotalOf(items)
	return nil
}

func (s *service) applyCoupon(ctx context.Context, a *attempt) error {
	if a.input.CouponCode == nil || strings.TrimSpace(*a.input.CouponCode) == "" {
		return nil
	}
	redemption, err := s.coupons.WithTx(a.tx).ValidateAndRedeem(ctx, *a.input.CouponCode, a.total)
	if err != nil {
		return err
	}
	a.coupon = &redemption.Coupon
	a.discount = redemption.Discount
	return nil
}

func (s *service) persistOrder(ctx context.Context, a *attempt) error {
	order := &models.Order{
		UserID:            a.actor.UserID,
		Status:            enums.OrderStatusCreated,
		TotalAmount:       a.total,
		DiscountAmount:    a.discount,
		ShippingAddressID: a.input.ShippingAddressID,
		BillingAddressID:  a.input.BillingAddressID,
	}
	if a.coupon != nil {
		id, code := a.coupon.ID, a.coupon.Code
		order.CouponID = &id
		order.CouponCode = &code
	}
	if err := s.orders.WithTx(a.tx).CreateOrder(ctx, order, a.items); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}
	a.order = order
	return nil
}

func (s *service) recordCreated(ctx context.Context, a *attempt) error {
	entry, err := orders.NewHistoryEntry(a.order.ID, nil, enums.OrderStatusCreated, a.actor, "")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build history entry")
	}
	if err := s.history.WithTx(a.tx).Record(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order history")
	}
	return nil
}

func (s *service) clearCart(ctx context.Context, a *attempt) error {
	if err := s.carts.WithTx(a.tx).Clear(ctx, a.snapshot.CartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) emitCreated(ctx context.Context, a *attempt) error {
	units := 0
	for _, item := range a.items {
		units += item.Quantity
	}
	event := outbox.DomainEvent{
		EventType:   enums.EventOrderCreated,
		AggregateID: a.order.ID,
		Actor:       &outbox.ActorRef{UserID: a.actor.UserRef(), Role: string(a.actor.Role)},
		Data: outbox.OrderCreatedEvent{
			OrderID:        a.order.ID,
			UserID:         a.order.UserID,
			TotalAmount:    a.order.TotalAmount,
			DiscountAmount: a.order.DiscountAmount,
			CouponCode:     a.order.CouponCode,
			ItemCount:      units,
		},
	}
	if err := s.outbox.Emit(ctx, a.tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created event")
	}
	return nil
}
