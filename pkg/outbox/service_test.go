package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/internal/testutil"
	"github.com/fineshyttt/commerce-backend/pkg/db/models"
	"github.com/fineshyttt/commerce-backend/pkg/enums"
	"github.com/fineshyttt/commerce-backend/pkg/outbox"
)

func TestEmitStoresEnvelope(t *testing.T) {
	client := testutil.OpenSQLite(t)
	repo := outbox.NewRepository(client.DB())
	svc := outbox.NewService(repo, nil)

	orderID := uuid.New()
	userID := uuid.New()
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, outbox.DomainEvent{
			EventType:   enums.EventOrderStatusChanged,
			AggregateID: orderID,
			Actor:       &outbox.ActorRef{UserID: &userID, Role: string(enums.UserRoleAdmin)},
			Data: outbox.OrderStatusChangedEvent{
				OrderID:   orderID,
				OldStatus: enums.OrderStatusCreated,
				NewStatus: enums.OrderStatusPaymentPending,
			},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublished(nil, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventOrderStatusChanged, rows[0].EventType)
	assert.Equal(t, orderID, rows[0].AggregateID)

	assert.Equal(t, enums.AggregateOrder, rows[0].AggregateType)

	envelope, err := outbox.ParseEnvelope(rows[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, enums.EventOrderStatusChanged, envelope.EventType)
	assert.Equal(t, orderID, envelope.AggregateID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, userID, *envelope.Actor.UserID)

	var data outbox.OrderStatusChangedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, enums.OrderStatusPaymentPending, data.NewStatus)
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	client := testutil.OpenSQLite(t)
	repo := outbox.NewRepository(client.DB())
	svc := outbox.NewService(repo, nil)

	boom := errors.New("boom")
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, outbox.DomainEvent{
			EventType:   enums.EventOrderCreated,
			AggregateID: uuid.New(),
			Data:        outbox.OrderCreatedEvent{},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	rows, err := repo.FetchUnpublished(nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := outbox.NewService(outbox.NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, outbox.DomainEvent{EventType: enums.EventOrderCreated})
	require.Error(t, err)
}

func TestEmitValidatesEvent(t *testing.T) {
	client := testutil.OpenSQLite(t)
	svc := outbox.NewService(outbox.NewRepository(client.DB()), nil)

	tests := []struct {
		name  string
		event outbox.DomainEvent
	}{
		{"unknown type", outbox.DomainEvent{EventType: "order_deleted", AggregateID: uuid.New()}},
		{"missing aggregate", outbox.DomainEvent{EventType: enums.EventStockAdjusted}},
		{"unencodable data", outbox.DomainEvent{EventType: enums.EventOrderCreated, AggregateID: uuid.New(), Data: make(chan int)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Emit(context.Background(), client.DB(), tt.event)
			require.Error(t, err)
		})
	}

	rows, err := outbox.NewRepository(client.DB()).FetchUnpublished(nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseEnvelopeRejectsUnpublishablePayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{`},
		{"missing id", `{"version":1,"eventType":"order_created","data":{}}`},
		{"future version", `{"version":9,"eventId":"e1","eventType":"order_created","data":{}}`},
		{"unknown type", `{"version":1,"eventId":"e1","eventType":"order_deleted","data":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := outbox.ParseEnvelope([]byte(tt.payload))
			assert.Error(t, err)
		})
	}

	env, err := outbox.ParseEnvelope([]byte(`{"version":1,"eventId":"e1","eventType":"stock_adjusted","data":{"quantity":3}}`))
	require.NoError(t, err)
	assert.Equal(t, enums.EventStockAdjusted, env.EventType)
	assert.JSONEq(t, `{"quantity":3}`, string(env.Data))
}

func TestMarkFailedStopsFetchingAfterMaxAttempts(t *testing.T) {
	client := testutil.OpenSQLite(t)
	repo := outbox.NewRepository(client.DB())

	row := models.OutboxEvent{
		EventType:   enums.EventOrderCreated,
		AggregateID: uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	require.NoError(t, repo.Insert(client.DB(), row))

	rows, err := repo.FetchUnpublished(nil, 10, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	id := rows[0].ID

	require.NoError(t, repo.MarkFailed(nil, id, errors.New("publish timeout")))
	require.NoError(t, repo.MarkFailed(nil, id, errors.New("publish timeout")))

	rows, err = repo.FetchUnpublished(nil, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, repo.MarkPublished(nil, id))
	rows, err = repo.FetchUnpublished(nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPruneBatchKeepsPendingRows(t *testing.T) {
	client := testutil.OpenSQLite(t)
	conn := client.DB()
	repo := outbox.NewRepository(conn)

	now := time.Now().UTC()
	old := now.Add(-60 * 24 * time.Hour)
	recent := now.Add(-time.Hour)
	lastErr := "publish timeout"

	rows := []models.OutboxEvent{
		{ID: uuid.New(), CreatedAt: old, PublishedAt: &old},
		{ID: uuid.New(), CreatedAt: recent, PublishedAt: &recent},
		{ID: uuid.New(), CreatedAt: old},
		{ID: uuid.New(), CreatedAt: old, AttemptCount: 5, LastError: &lastErr},
	}
	for i := range rows {
		rows[i].EventType = enums.EventOrderCreated
		rows[i].AggregateType = enums.AggregateOrder
		rows[i].AggregateID = uuid.New()
		rows[i].Payload = json.RawMessage(`{}`)
		require.NoError(t, conn.Create(&rows[i]).Error)
	}

	deleted, err := repo.PruneBatch(context.Background(), nil, now.Add(-30*24*time.Hour), 5, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining []models.OutboxEvent
	require.NoError(t, conn.Order("created_at ASC").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	ids := []uuid.UUID{remaining[0].ID, remaining[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{rows[1].ID, rows[2].ID}, ids)
}

func TestPruneBatchHonoursLimit(t *testing.T) {
	client := testutil.OpenSQLite(t)
	conn := client.DB()
	repo := outbox.NewRepository(conn)

	old := time.Now().UTC().Add(-90 * 24 * time.Hour)
	for i := 0; i < 5; i++ {
		published := old.Add(time.Duration(i) * time.Minute)
		require.NoError(t, conn.Create(&models.OutboxEvent{
			ID:            uuid.New(),
			EventType:   enums.EventOrderStatusChanged,
			AggregateID: uuid.New(),
			Payload:       json.RawMessage(`{}`),
			CreatedAt:     published,
			PublishedAt:   &published,
		}).Error)
	}

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	deleted, err := repo.PruneBatch(context.Background(), nil, cutoff, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&remaining).Error)
	assert.Equal(t, int64(3), remaining)
}

func TestMarkTerminalRemovesRowFromQueue(t *testing.T) {
	client := testutil.OpenSQLite(t)
	repo := outbox.NewRepository(client.DB())

	require.NoError(t, repo.Insert(client.DB(), models.OutboxEvent{
		EventType:   enums.EventStockAdjusted,
		AggregateID: uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}))
	rows, err := repo.FetchUnpublished(nil, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, repo.MarkTerminal(nil, rows[0].ID, errors.New("no topic"), 3))

	rows, err = repo.FetchUnpublished(nil, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
