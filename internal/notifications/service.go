package notifications

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// Notifier renders and sends buyer emails.
type Notifier struct {
	sender mailer.Sender
	logg   *logger.Logger
}

func NewNotifier(sender mailer.Sender, logg *logger.Logger) (*Notifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Notifier{sender: sender, logg: logg}, nil
}

// DeliveryCode is the plaintext code email. Code is never logged.
type DeliveryCode struct {
	Buyer     models.User
	StoreName string
	OrderID   string
	Code      string
	ExpiresIn time.Duration
}

// SendDeliveryCode emails the delivery code to the buyer.
func (n *Notifier) SendDeliveryCode(ctx context.Context, in DeliveryCode) error {
	var body bytes.Buffer
	err := deliveryCodeTemplate.Execute(&body, map[string]any{
		"Name":      displayName(in.Buyer),
		"OrderRef":  shortRef(in.OrderID),
		"Code":      in.Code,
		"ExpiresIn": humanDuration(in.ExpiresIn),
		"StoreName": in.StoreName,
	})
	if err != nil {
		return fmt.Errorf("render delivery code email: %w", err)
	}
	return n.sender.Send(ctx, mailer.Message{
		To:      in.Buyer.Email,
		ToName:  in.Buyer.Name,
		Subject: fmt.Sprintf("Your delivery code for order #%s", shortRef(in.OrderID)),
		HTML:    body.String(),
	})
}

type receiptLine struct {
	Name     string
	Quantity int
	Amount   string
}

type receiptOrder struct {
	Ref      string
	Lines    []receiptLine
	Shipping string
	Discount string
	Total    string
}

// SendReceipt emails a payment receipt covering every order settled together.
func (n *Notifier) SendReceipt(ctx context.Context, buyer models.User, paid []models.Order) error {
	if len(paid) == 0 {
		return nil
	}
	currency := paid[0].Currency
	var grand int64
	orders := make([]receiptOrder, 0, len(paid))
	for _, o := range paid {
		ro := receiptOrder{Ref: shortRef(o.ID.String()), Total: money.Format(o.TotalCents, o.Currency)}
		for _, item := range o.Items {
			ro.Lines = append(ro.Lines, receiptLine{Name: item.Name, Quantity: item.Quantity, Amount: money.Format(item.LineTotal(), o.Currency)})
		}
		if o.ShippingFeeCents > 0 {
			ro.Shipping = money.Format(o.ShippingFeeCents, o.Currency)
		}
		if o.DiscountCents > 0 {
			ro.Discount = money.Format(o.DiscountCents, o.Currency)
		}
		grand += o.TotalCents
		orders = append(orders, ro)
	}

	var body bytes.Buffer
	if err := receiptTemplate.Execute(&body, map[string]any{
		"Name":   displayName(buyer),
		"Total":  money.Format(grand, currency),
		"Orders": orders,
	}); err != nil {
		return fmt.Errorf("render receipt email: %w", err)
	}
	return n.sender.Send(ctx, mailer.Message{
		To:      buyer.Email,
		ToName:  buyer.Name,
		Subject: "Payment received",
		HTML:    body.String(),
	})
}

func displayName(u models.User) string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return "there"
}

func shortRef(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

func humanDuration(d time.Duration) string {
	if d <= 0 {
		return "a few minutes"
	}
	if d%time.Minute == 0 {
		mins := int(d / time.Minute)
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	return d.String()
}
