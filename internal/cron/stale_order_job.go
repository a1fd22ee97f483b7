package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/fineshyttt/commerce-backend/internal/orders"
	"github.com/fineshyttt/commerce-backend/pkg/auth"
	"github.com/fineshyttt/commerce-backend/pkg/enums"
	pkgerrors "github.com/fineshyttt/commerce-backend/pkg/errors"
	"github.com/fineshyttt/commerce-backend/pkg/logger"
)

const (
	defaultPendingOrderTTL = 48 * time.Hour
	defaultStaleBatchSize  = 200
	staleOrderNote         = "Expired: payment not received"
)

// staleOrderExpirer is the slice of orders.Service the job drives.
type staleOrderExpirer interface {
	ListStaleOrderIDs(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, status enums.OrderStatus, notes string) (*orders.OrderDTO, error)
}

// StaleOrderJobParams configure the stale order expiry job.
type StaleOrderJobParams struct {
	Logger    *logger.Logger
	Orders    staleOrderExpirer
	TTL       time.Duration
	BatchSize int
}

// NewStaleOrderJob builds the job that cancels unpaid orders older than the TTL.
// Cancelling goes through the order state machine so reservations are released
// and history is written exactly as for a manual cancel.
func NewStaleOrderJob(params StaleOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultStaleBatchSize
	}
	return &staleOrderJob{
		logg:   params.Logger,
		orders: params.Orders,
		ttl:    ttl,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type staleOrderJob struct {
	logg   *logger.Logger
	orders staleOrderExpirer
	ttl    time.Duration
	batch  int
	now    func() time.Time
}

func (j *staleOrderJob) Name() string { return "stale_order_expiry" }

func (j *staleOrderJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	ids, err := j.orders.ListStaleOrderIDs(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list stale orders: %w", err)
	}

	var (
		errs     error
		expired  int
		advanced int
	)
	for _, id := range ids {
		_, err := j.orders.UpdateStatus(ctx, auth.System(), id, enums.OrderStatusCancelled, staleOrderNote)
		switch {
		case err == nil:
			expired++
		case pkgerrors.IsCode(err, pkgerrors.CodeInvalidStatusTransition):
			// paid or otherwise moved on since the scan
			advanced++
		default:
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", id, err))
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":   cutoff,
		"found":    len(ids),
		"expired":  expired,
		"advanced": advanced,
		"failed":   len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "stale order expiry complete")
	return errs
}
