package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func newOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:outbox_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.OutboxEvent{}, &models.OutboxDLQ{}))
	return conn
}

func TestEmitWritesEnvelope(t *testing.T) {
	t.Parallel()
	conn := newOutboxDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, logger.Nop())

	orderID := uuid.New()
	actor := &ActorRef{UserID: uuid.New(), Role: enums.ActorRoleBuyer}
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         actor,
			Data:          map[string]string{"orderId": orderID.String()},
		})
	}))

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.NotEqual(t, uuid.Nil, rows[0].ID)
	require.Equal(t, orderID, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	require.Equal(t, 1, envelope.Version)
	require.NotEmpty(t, envelope.EventID)
	require.Equal(t, enums.ActorRoleBuyer, envelope.Actor.Role)
	require.JSONEq(t, `{"orderId":"`+orderID.String()+`"}`, string(envelope.Data))
}

func TestEmitRequiresTransaction(t *testing.T) {
	t.Parallel()
	svc := NewService(NewRepository(nil), nil)
	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))
}

func TestEmitIfNotExistsQueuesOnce(t *testing.T) {
	t.Parallel()
	conn := newOutboxDB(t)
	svc := NewService(NewRepository(conn), nil)

	orderID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventOrderPaymentStale,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Data:          map[string]string{"orderId": orderID.String()},
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(context.Background(), tx, event)
		}))
	}

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	t.Parallel()
	conn := newOutboxDB(t)
	repo := NewRepository(conn)

	first := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	require.NoError(t, repo.Append(conn, first))
	require.NoError(t, repo.Append(conn, second))

	rows, err := repo.ClaimPending(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.MarkPublished(conn, first.ID))
	require.NoError(t, repo.Park(conn, second.ID, errors.New("bad payload"), 3))

	rows, err = repo.ClaimPending(conn, 10, 3)
	require.NoError(t, err)
	require.Empty(t, rows)

	deleted, err := repo.DeletePublishedBefore(context.Background(), conn, time.Now().UTC().Add(time.Minute), 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)
}

func TestDLQInsertIgnoresDuplicateEvent(t *testing.T) {
	t.Parallel()
	conn := newOutboxDB(t)
	dlq := NewDLQRepository(conn)

	msg := "publish failed"
	entry := models.OutboxDLQ{
		EventID:       uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateCheckout,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
		AttemptCount:  10,
	}
	require.NoError(t, dlq.DeadLetter(conn, entry))
	require.NoError(t, dlq.DeadLetter(conn, entry))

	var count int64
	require.NoError(t, conn.Model(&models.OutboxDLQ{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	found, err := dlq.Lookup(context.Background(), entry.EventID)
	require.NoError(t, err)
	require.NotNil(t, found)

	missing, err := dlq.Lookup(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestClipKeepsValidUTF8(t *testing.T) {
	require.Equal(t, "abc", clip("abc", 10))
	require.Equal(t, "ab", clip("abé", 3))
}

func TestNewMessageCopiesRoutingAttributes(t *testing.T) {
	aggregate := uuid.New()
	created := time.Date(2026, 5, 1, 9, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	row := models.OutboxEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   aggregate,
		Payload:       []byte(`{"version":1}`),
		CreatedAt:     created,
	}

	msg := NewMessage(row, "evt-1")
	require.Equal(t, aggregate.String(), msg.Key)
	require.JSONEq(t, `{"version":1}`, string(msg.Data))
	require.Equal(t, map[string]string{
		"event_id":       "evt-1",
		"event_type":     "order_paid",
		"aggregate_type": "order",
		"aggregate_id":   aggregate.String(),
		"created_at":     "2026-05-01T04:00:00Z",
	}, msg.Attributes)
}

func TestEnvelopeDefaultsVersionAndTime(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	env, err := DomainEvent{Data: map[string]int{"n": 1}}.envelope(now)
	require.NoError(t, err)
	require.Equal(t, 1, env.Version)
	require.Equal(t, now, env.OccurredAt)
	require.JSONEq(t, `{"n":1}`, string(env.Data))
	require.NotEmpty(t, env.EventID)

	_, err = DomainEvent{Data: make(chan int)}.envelope(now)
	require.Error(t, err)
}
