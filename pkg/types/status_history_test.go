package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/stretchr/testify/require"
)

func TestStatusHistoryAppendKeepsFirstArrival(t *testing.T) {
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h := NewStatusHistory(enums.OrderStatusPlaced, first)
	h = h.Append(enums.OrderStatusPacked, first.Add(time.Hour))
	h = h.Append(enums.OrderStatusPlaced, first.Add(2*time.Hour))

	require.Len(t, h, 2)
	require.Equal(t, first, h[enums.OrderStatusPlaced])
	require.Equal(t, first.Add(time.Hour), h[enums.OrderStatusPacked])
}

func TestStatusHistoryScanValue(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	h := NewStatusHistory(enums.OrderStatusPlaced, at)

	raw, err := h.Value()
	require.NoError(t, err)

	var decoded StatusHistory
	require.NoError(t, decoded.Scan(raw))
	require.True(t, decoded[enums.OrderStatusPlaced].Equal(at))

	require.NoError(t, decoded.Scan(nil))
	require.Empty(t, decoded)
}

func TestGatewayPayloadEnvelope(t *testing.T) {
	p := NewGatewayPayload(enums.PaymentGatewayRazorpay, "payment.captured", "evt_1", []byte(`{"amount":250}`))
	require.NoError(t, p.Validate())
	require.Equal(t, GatewayPayloadSchemaVersion, p.SchemaVersion)

	raw, err := p.Value()
	require.NoError(t, err)

	var decoded GatewayPayload
	require.NoError(t, decoded.Scan(raw))
	require.Equal(t, "payment.captured", decoded.Event)
	require.JSONEq(t, `{"amount":250}`, string(decoded.Payload))

	broken := NewGatewayPayload(enums.PaymentGatewayStripe, "x", "", []byte("not json"))
	require.Equal(t, json.RawMessage("null"), broken.Payload)
	require.Error(t, GatewayPayload{}.Validate())
}
