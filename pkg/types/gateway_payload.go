package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// GatewayPayloadSchemaVersion is bumped whenever the envelope shape changes.
const GatewayPayloadSchemaVersion = 1

// GatewayPayload is the tagged envelope stored on an order for the last
// gateway event that touched it. Payload holds the gateway's raw JSON.
type GatewayPayload struct {
	Gateway       enums.PaymentGateway `json:"gateway"`
	SchemaVersion int                  `json:"schemaVersion"`
	Event         string               `json:"event"`
	EventID       string               `json:"eventId,omitempty"`
	Payload       json.RawMessage      `json:"payload"`
}

// NewGatewayPayload wraps raw under the current schema version.
func NewGatewayPayload(gateway enums.PaymentGateway, event, eventID string, raw []byte) *GatewayPayload {
	body := json.RawMessage("null")
	if len(raw) > 0 && json.Valid(raw) {
		body = append(json.RawMessage(nil), raw...)
	}
	return &GatewayPayload{
		Gateway:       gateway,
		SchemaVersion: GatewayPayloadSchemaVersion,
		Event:         event,
		EventID:       eventID,
		Payload:       body,
	}
}

// Validate checks the fields readers rely on.
func (g GatewayPayload) Validate() error {
	if !g.Gateway.IsValid() {
		return errors.New("gateway payload: unknown gateway")
	}
	if g.SchemaVersion <= 0 {
		return errors.New("gateway payload: schema version required")
	}
	if g.Event == "" {
		return errors.New("gateway payload: event required")
	}
	return nil
}

// Value serializes the envelope to JSON.
func (g GatewayPayload) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// Scan decodes JSONB into the envelope.
func (g *GatewayPayload) Scan(value interface{}) error {
	if value == nil {
		*g = GatewayPayload{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, g)
}
