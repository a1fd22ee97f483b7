package inventory_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fineshyttt/commerce-backend/internal/inventory"
	"github.com/fineshyttt/commerce-backend/internal/testutil"
	"github.com/fineshyttt/commerce-backend/pkg/auth"
	"github.com/fineshyttt/commerce-backend/pkg/db/models"
	"github.com/fineshyttt/commerce-backend/pkg/enums"
	pkgerrors "github.com/fineshyttt/commerce-backend/pkg/errors"
	"github.com/fineshyttt/commerce-backend/pkg/logger"
	"github.com/fineshyttt/commerce-backend/pkg/outbox"
)

func TestServiceRestockEmitsEvent(t *testing.T) {
	client := testutil.OpenSQLite(t)
	conn := client.DB()
	ledger, err := inventory.NewLedger(inventory.NewRepository(conn))
	require.NoError(t, err)
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	svc, err := inventory.NewService(ledger, client, outbox.NewService(outbox.NewRepository(conn), logg), logg)
	require.NoError(t, err)

	variant := testutil.SeedVariant(t, conn, "Hoodie", "HOOD-L", decimal.NewFromInt(55), 2)
	actor := auth.NewActor(uuid.New(), enums.UserRoleAdmin)

	stock, err := svc.Restock(context.Background(), actor, variant.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, stock.Quantity)
	assert.Equal(t, 5, stock.Available)

	stock, err = svc.SetStock(context.Background(), actor, variant.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, stock.Quantity)

	var events []models.OutboxEvent
	require.NoError(t, conn.Where("aggregate_id = ?", variant.ID).Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, enums.EventStockAdjusted, events[0].EventType)
}

func TestServiceFailedAdjustmentEmitsNothing(t *testing.T) {
	client := testutil.OpenSQLite(t)
	conn := client.DB()
	ledger, err := inventory.NewLedger(inventory.NewRepository(conn))
	require.NoError(t, err)
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	svc, err := inventory.NewService(ledger, client, outbox.NewService(outbox.NewRepository(conn), logg), logg)
	require.NoError(t, err)

	_, err = svc.Restock(context.Background(), auth.NewActor(uuid.New(), enums.UserRoleAdmin), uuid.New(), 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := inventory.NewService(nil, nil, nil, nil); err == nil {
		t.Fatalf("expected missing ledger error")
	}
}
