package types

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// StatusHistory maps each status an order has entered to the moment it did.
// Entries are only ever added.
type StatusHistory map[enums.OrderStatus]time.Time

// NewStatusHistory starts a history at status.
func NewStatusHistory(status enums.OrderStatus, at time.Time) StatusHistory {
	return StatusHistory{status: at.UTC()}
}

// Append records status at the given time. An existing entry is kept so the
// first arrival time is never rewritten.
func (h StatusHistory) Append(status enums.OrderStatus, at time.Time) StatusHistory {
	if h == nil {
		h = StatusHistory{}
	}
	if _, ok := h[status]; !ok {
		h[status] = at.UTC()
	}
	return h
}

// Clone returns an independent copy.
func (h StatusHistory) Clone() StatusHistory {
	out := make(StatusHistory, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Value serializes the history to JSON.
func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[enums.OrderStatus]time.Time(h))
}

// Scan decodes JSONB into the history.
func (h *StatusHistory) Scan(value interface{}) error {
	if value == nil {
		*h = StatusHistory{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	decoded := map[enums.OrderStatus]time.Time{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*h = decoded
	return nil
}
