package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository owns the outbox_events table.
type Repository struct {
	conn *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{conn: conn}
}

// Append stages a row inside the caller's transaction.
func (r *Repository) Append(tx *gorm.DB, row models.OutboxEvent) error {
	if tx == nil {
		return errTxRequired
	}
	return tx.Create(&row).Error
}

// HasEvent reports whether eventType was already staged for the aggregate.
func (r *Repository) HasEvent(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error) {
	if tx == nil {
		return false, errTxRequired
	}
	return db.Exists[models.OutboxEvent](ctx, tx,
		"event_type = ? AND aggregate_type = ? AND aggregate_id = ?", eventType, aggregateType, aggregateID)
}

// ClaimPending returns up to limit unpublished rows in creation order. On
// Postgres the rows stay locked for the transaction and concurrent publishers
// skip them.
func (r *Repository) ClaimPending(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errTxRequired
	}
	q := tx.Where("published_at IS NULL")
	if maxAttempts > 0 {
		q = q.Where("attempt_count < ?", maxAttempts)
	}
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked})
	}
	var pending []models.OutboxEvent
	err := q.Order("created_at, id").Limit(limit).Find(&pending).Error
	return pending, err
}

func (r *Repository) MarkPublished(tx *gorm.DB, id uuid.UUID) error {
	return r.update(tx, id, map[string]any{"published_at": time.Now().UTC()})
}

// RecordFailure bumps the attempt counter and keeps the last error.
func (r *Repository) RecordFailure(tx *gorm.DB, id uuid.UUID, cause error) error {
	return r.update(tx, id, map[string]any{
		"last_error":    cause.Error(),
		"attempt_count": gorm.Expr("attempt_count + 1"),
	})
}

// Park pins attempt_count at the ceiling so ClaimPending never returns the row
// again.
func (r *Repository) Park(tx *gorm.DB, id uuid.UUID, cause error, ceiling int) error {
	return r.update(tx, id, map[string]any{
		"last_error":    cause.Error(),
		"attempt_count": ceiling,
	})
}

func (r *Repository) update(tx *gorm.DB, id uuid.UUID, cols map[string]any) error {
	return db.Pick(tx, r.conn).Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(cols).Error
}

// DeletePublishedBefore removes published rows older than cutoff that were
// attempted at least minAttempts times, oldest first and at most limit of them
// when limit > 0.
func (r *Repository) DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttempts, limit int) (int64, error) {
	conn := db.Pick(tx, r.conn).WithContext(ctx)
	expired := conn.Model(&models.OutboxEvent{}).
		Select("id").
		Where("published_at IS NOT NULL AND published_at < ? AND attempt_count >= ?", cutoff, minAttempts)
	if limit > 0 {
		expired = expired.Order("published_at").Limit(limit)
	}
	res := conn.Where("id IN (?)", expired).Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}
