package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Manager claims event ids per consumer so each delivery is handled once
// within the TTL. Gateway ids (evt_..., razorpay ids) and outbox uuids share
// the same key space under the consumer's scope.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	now   func() time.Time
}

var (
	errConsumerRequired = errors.New("consumer name is required")
	errEventIDRequired  = errors.New("event id is required")
)

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case ttl < 0:
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}, nil
}

// Claim reports true when the caller is the first to see eventID. The claim
// stores the time it was taken, which helps when inspecting keys by hand.
func (m *Manager) Claim(ctx context.Context, consumer, eventID string) (bool, error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	return m.store.SetNX(ctx, key, m.now().UTC().Format(time.RFC3339), m.ttl)
}

// Release drops a claim so a redelivery of the event is processed again.
func (m *Manager) Release(ctx context.Context, consumer, eventID string) error {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(consumer, eventID string) (string, error) {
	if consumer == "" {
		return "", errConsumerRequired
	}
	if eventID = strings.TrimSpace(eventID); eventID == "" {
		return "", errEventIDRequired
	}
	return m.store.IdempotencyKey("evt:"+consumer, eventID), nil
}
