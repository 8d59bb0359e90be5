package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// DomainEvent is a state change recorded in the same transaction as the
// write that caused it. Data is marshalled into the envelope as-is.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	// Version defaults to 1.
	Version    int
	OccurredAt time.Time
}

// ActorRef identifies who caused the change. Workers use the system role.
type ActorRef struct {
	UserID  uuid.UUID       `json:"userId"`
	StoreID *uuid.UUID      `json:"storeId,omitempty"`
	Role    enums.ActorRole `json:"role,omitempty"`
}

// PayloadEnvelope is the JSON stored in outbox_events.payload and delivered
// verbatim to subscribers.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// envelope seals e for storage, stamping now when OccurredAt is unset.
func (e DomainEvent) envelope(now time.Time) (PayloadEnvelope, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return PayloadEnvelope{}, err
	}
	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}
	return PayloadEnvelope{
		Version:    max(e.Version, 1),
		EventID:    uuid.NewString(),
		OccurredAt: occurred.UTC(),
		Actor:      e.Actor,
		Data:       data,
	}, nil
}

// Message is what a sink receives for one outbox row. Key orders delivery
// per aggregate.
type Message struct {
	Key        string
	Data       []byte
	Attributes map[string]string
}

// NewMessage maps a stored row to the sink message, copying routing fields
// into attributes so consumers can filter without decoding the payload.
func NewMessage(row models.OutboxEvent, eventID string) Message {
	return Message{
		Key:  row.AggregateID.String(),
		Data: row.Payload,
		Attributes: map[string]string{
			"event_id":       eventID,
			"event_type":     string(row.EventType),
			"aggregate_type": string(row.AggregateType),
			"aggregate_id":   row.AggregateID.String(),
			"created_at":     row.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}
