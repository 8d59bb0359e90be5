// Package registry decides how an outbox row is published: which topic it
// goes to and which payload schema it must decode into.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// ErrNonRetryable marks rows that will never publish, however often they
// are retried. Test with errors.Is.
var ErrNonRetryable = errors.New("non-retryable")

// NonRetryable wraps err with ErrNonRetryable.
func NonRetryable(err error) error {
	return fmt.Errorf("%w: %w", ErrNonRetryable, err)
}

// maxEnvelopeVersion is the newest envelope layout this build understands.
const maxEnvelopeVersion = 1

type schema struct {
	aggregate enums.OutboxAggregateType
	decode    func() any
}

var schemas = map[enums.OutboxEventType]schema{
	enums.EventOrderCreated:       {enums.AggregateCheckout, func() any { return &payloads.OrderCreatedEvent{} }},
	enums.EventOrderCanceled:      {enums.AggregateOrder, func() any { return &payloads.OrderCanceledEvent{} }},
	enums.EventOrderPaid:          {enums.AggregateOrder, func() any { return &payloads.OrderPaidEvent{} }},
	enums.EventPaymentFailed:      {enums.AggregateOrder, func() any { return &payloads.PaymentFailedEvent{} }},
	enums.EventOrderStatusChanged: {enums.AggregateOrder, func() any { return &payloads.OrderStatusChangedEvent{} }},
	enums.EventOrderDelivered:     {enums.AggregateOrder, func() any { return &payloads.OrderDeliveredEvent{} }},
	enums.EventOrderPaymentStale:  {enums.AggregateOrder, func() any { return &payloads.OrderPaymentStaleEvent{} }},
	enums.EventRefundSettled:      {enums.AggregateOrder, func() any { return &payloads.RefundSettledEvent{} }},
}

// ResolvedEvent is a decoded outbox row ready to send.
type ResolvedEvent struct {
	Topic    string
	Envelope outbox.PayloadEnvelope
	Payload  any
}

// EventRegistry routes every order lifecycle event to one topic. The topic
// name is whatever the active sink calls it (Pub/Sub topic id or Kafka
// topic).
type EventRegistry struct {
	topic string
}

func NewEventRegistry(ordersTopic string) (*EventRegistry, error) {
	topic := strings.TrimSpace(ordersTopic)
	if topic == "" {
		return nil, errors.New("orders topic is required")
	}
	return &EventRegistry{topic: topic}, nil
}

// Resolve checks the row against its schema and decodes the payload. Every
// error it returns is non-retryable.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	sc, ok := schemas[event.EventType]
	switch {
	case !ok:
		return nil, NonRetryable(fmt.Errorf("unsupported event type %q", event.EventType))
	case sc.aggregate != event.AggregateType:
		return nil, NonRetryable(fmt.Errorf("%s belongs to %s, row says %s", event.EventType, sc.aggregate, event.AggregateType))
	case event.AggregateID == uuid.Nil:
		return nil, NonRetryable(fmt.Errorf("%s has no aggregate id", event.EventType))
	}

	var env outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &env); err != nil {
		return nil, NonRetryable(fmt.Errorf("decode envelope: %w", err))
	}
	if env.Version > maxEnvelopeVersion {
		return nil, NonRetryable(fmt.Errorf("envelope version %d is newer than %d", env.Version, maxEnvelopeVersion))
	}
	if data := bytes.TrimSpace(env.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, NonRetryable(fmt.Errorf("%s has an empty payload", event.EventType))
	}

	payload := sc.decode()
	if err := json.Unmarshal(env.Data, payload); err != nil {
		return nil, NonRetryable(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}
	return &ResolvedEvent{Topic: r.topic, Envelope: env, Payload: payload}, nil
}
