package outbox

import (
	"context"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// dlqMessageLimit bounds stored error text in bytes.
const dlqMessageLimit = 1024

// DLQRepository stores events the publisher gave up on.
type DLQRepository struct {
	conn *gorm.DB
}

func NewDLQRepository(conn *gorm.DB) *DLQRepository {
	return &DLQRepository{conn: conn}
}

// DeadLetter records entry once per event id; repeats are ignored.
func (r *DLQRepository) DeadLetter(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errTxRequired
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if msg := entry.ErrorMessage; msg != nil {
		clipped := clip(*msg, dlqMessageLimit)
		entry.ErrorMessage = &clipped
	}
	onDup := clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}
	return tx.Clauses(onDup).Create(&entry).Error
}

// Lookup returns nil, nil when the event was never dead-lettered.
func (r *DLQRepository) Lookup(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	entry, err := db.First[models.OutboxDLQ](ctx, r.conn, "event_id = ?", eventID)
	if db.IsNotFound(err) {
		return nil, nil
	}
	return entry, err
}

// clip cuts s to at most limit bytes without splitting a rune.
func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
