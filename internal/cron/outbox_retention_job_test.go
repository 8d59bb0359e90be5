package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

func TestOutboxRetentionDeletesOnlyOldPublishedRows(t *testing.T) {
	conn := newCronDB(t)
	old := cronNow.Add(-40 * 24 * time.Hour)
	recent := cronNow.Add(-time.Hour)

	rows := []models.OutboxEvent{
		{ID: uuid.New(), EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: []byte(`{}`), PublishedAt: &old, AttemptCount: 1},
		{ID: uuid.New(), EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: []byte(`{}`), PublishedAt: &recent, AttemptCount: 1},
		{ID: uuid.New(), EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: []byte(`{}`)},
	}
	require.NoError(t, conn.Create(&rows).Error)

	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.Nop(),
		DB:         db.NewFromConn(conn),
		Repository: outbox.NewRepository(conn),
	})
	require.NoError(t, err)
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return cronNow }

	require.NoError(t, job.Run(context.Background()))

	var left []models.OutboxEvent
	require.NoError(t, conn.Find(&left).Error)
	require.Len(t, left, 2)
	for _, row := range left {
		require.NotEqual(t, rows[0].ID, row.ID)
	}
}

func TestOutboxRetentionDrainsInBatches(t *testing.T) {
	conn := newCronDB(t)
	old := cronNow.Add(-40 * 24 * time.Hour)
	var rows []models.OutboxEvent
	for range 5 {
		rows = append(rows, models.OutboxEvent{
			ID: uuid.New(), EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder,
			AggregateID: uuid.New(), Payload: []byte(`{}`), PublishedAt: &old, AttemptCount: 1,
		})
	}
	require.NoError(t, conn.Create(&rows).Error)

	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.Nop(),
		DB:         db.NewFromConn(conn),
		Repository: outbox.NewRepository(conn),
		BatchSize:  2,
	})
	require.NoError(t, err)
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return cronNow }

	require.NoError(t, job.Run(context.Background()))

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	require.Zero(t, count)
}
