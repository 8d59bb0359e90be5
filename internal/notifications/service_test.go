package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
)

type captureSender struct {
	sent []mailer.Message
}

func (c *captureSender) Send(ctx context.Context, msg mailer.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

func TestSendDeliveryCode(t *testing.T) {
	sender := &captureSender{}
	n, err := NewNotifier(sender, logger.Nop())
	require.NoError(t, err)

	orderID := uuid.New()
	require.NoError(t, n.SendDeliveryCode(context.Background(), DeliveryCode{
		Buyer:     models.User{Email: "ravi@example.com", Name: "Ravi <script>"},
		StoreName: "Green Grocer",
		OrderID:   orderID.String(),
		Code:      "482913",
		ExpiresIn: 5 * time.Minute,
	}))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	require.Equal(t, "ravi@example.com", msg.To)
	require.Contains(t, msg.HTML, "482913")
	require.Contains(t, msg.HTML, "5 minutes")
	require.Contains(t, msg.HTML, "Ravi &lt;script&gt;")
	require.Contains(t, msg.Subject, shortRef(orderID.String()))
}

func TestSendReceipt(t *testing.T) {
	sender := &captureSender{}
	n, err := NewNotifier(sender, nil)
	require.NoError(t, err)

	buyer := models.User{Email: "meera@example.com", Name: "Meera"}
	orders := []models.Order{{
		ID:               uuid.New(),
		Currency:         "inr",
		ShippingFeeCents: 5000,
		TotalCents:       25000,
		Items:            []models.OrderItem{{Name: "Tea", Quantity: 2, PriceCents: 10000}},
	}}
	require.NoError(t, n.SendReceipt(context.Background(), buyer, orders))
	require.Len(t, sender.sent, 1)
	require.Contains(t, sender.sent[0].HTML, "250.00 INR")
	require.Contains(t, sender.sent[0].HTML, "200.00 INR")

	require.NoError(t, n.SendReceipt(context.Background(), buyer, nil))
	require.Len(t, sender.sent, 1)
}

func TestNewNotifierRequiresSender(t *testing.T) {
	_, err := NewNotifier(nil, nil)
	require.Error(t, err)
}
