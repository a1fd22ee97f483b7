package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/pkg/auth"
	"github.com/fineshyttt/commerce-backend/pkg/enums"
	"github.com/fineshyttt/commerce-backend/pkg/logger"
	"github.com/fineshyttt/commerce-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes operator stock management on top of the ledger.
type Service interface {
	GetStock(ctx context.Context, variantID uuid.UUID) (*StockDTO, error)
	SetStock(ctx context.Context, actor auth.Actor, variantID uuid.UUID, quantity int) (*StockDTO, error)
	Restock(ctx context.Context, actor auth.Actor, variantID uuid.UUID, amount int) (*StockDTO, error)
}

type service struct {
	ledger *Ledger
	tx     txRunner
	outbox outboxEmitter
	logg   *logger.Logger
}

// NewService wires the operator stock service.
func NewService(ledger *Ledger, tx txRunner, emitter outboxEmitter, logg *logger.Logger) (Service, error) {
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{ledger: ledger, tx: tx, outbox: emitter, logg: logg}, nil
}

func (s *service) GetStock(ctx context.Context, variantID uuid.UUID) (*StockDTO, error) {
	row, err := s.ledger.Get(ctx, variantID)
	if err != nil {
		return nil, err
	}
	return stockFromModel(*row), nil
}

func (s *service) SetStock(ctx context.Context, actor auth.Actor, variantID uuid.UUID, quantity int) (*StockDTO, error) {
	return s.adjust(ctx, actor, variantID, "set", func(ledger *Ledger) error {
		return ledger.SetStock(ctx, variantID, quantity)
	})
}

func (s *service) Restock(ctx context.Context, actor auth.Actor, variantID uuid.UUID, amount int) (*StockDTO, error) {
	return s.adjust(ctx, actor, variantID, "restock", func(ledger *Ledger) error {
		return ledger.Increase(ctx, variantID, amount)
	})
}

func (s *service) adjust(ctx context.Context, actor auth.Actor, variantID uuid.UUID, reason string, apply func(*Ledger) error) (*StockDTO, error) {
	var result *StockDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)
		if err := apply(ledger); err != nil {
			return err
		}
		row, err := ledger.Get(ctx, variantID)
		if err != nil {
			return err
		}
		result = stockFromModel(*row)

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:   enums.EventStockAdjusted,
			AggregateID: variantID,
			Actor:       &outbox.ActorRef{UserID: actor.UserRef(), Role: string(actor.Role)},
			Data: outbox.StockAdjustedEvent{
				VariantID:        variantID,
				Quantity:         row.Quantity,
				ReservedQuantity: row.ReservedQuantity,
				Reason:           reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"variant_id": variantID.String(),
		"reason":     reason,
		"quantity":   result.Quantity,
	})
	s.logg.Info(logCtx, "inventory adjusted")
	return result, nil
}
