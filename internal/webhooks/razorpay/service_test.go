package razorpaywebhook

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/settlement"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/razorpay"
)

type settleCall struct {
	paid     bool
	orderIDs []uuid.UUID
	event    settlement.Event
}

type stubSettlement struct {
	calls []settleCall
}

func (s *stubSettlement) MarkPaid(ctx context.Context, ids []uuid.UUID, e settlement.Event) (*settlement.Result, error) {
	s.calls = append(s.calls, settleCall{paid: true, orderIDs: ids, event: e})
	return &settlement.Result{Settled: ids}, nil
}

func (s *stubSettlement) MarkFailed(ctx context.Context, ids []uuid.UUID, e settlement.Event) (*settlement.Result, error) {
	s.calls = append(s.calls, settleCall{paid: false, orderIDs: ids, event: e})
	return &settlement.Result{Settled: ids}, nil
}

type stubLookup struct {
	byRef map[string][]models.Order
}

func (s *stubLookup) FindByGatewayOrderRef(ctx context.Context, ref string) ([]models.Order, error) {
	return s.byRef[ref], nil
}

func newService(t *testing.T, lookup *stubLookup) (*Service, *stubSettlement) {
	t.Helper()
	settle := &stubSettlement{}
	svc, err := NewService(ServiceParams{Settlement: settle, Orders: lookup, AppID: "storefront"})
	require.NoError(t, err)
	return svc, settle
}

func webhookBody(event, orderRef, notes string) []byte {
	return []byte(fmt.Sprintf(`{
		"entity": "event",
		"event": %q,
		"account_id": "acc_1",
		"payload": {"payment": {"entity": {
			"id": "pay_29QQoUBi66xm2f",
			"order_id": %q,
			"amount": 25000,
			"currency": "INR",
			"status": "captured",
			"notes": %s
		}}}
	}`, event, orderRef, notes))
}

func parse(t *testing.T, body []byte) *razorpay.WebhookEvent {
	t.Helper()
	event, err := razorpay.ParseWebhook(body)
	require.NoError(t, err)
	return event
}

func TestCapturedPaymentSettlesByOrderRef(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	svc, settle := newService(t, &stubLookup{byRef: map[string][]models.Order{
		"order_DBJOWzybf0sJbb": {{ID: a}, {ID: b}},
	}})
	body := webhookBody(razorpay.EventPaymentCaptured, "order_DBJOWzybf0sJbb", `{"appId":"storefront"}`)

	require.NoError(t, svc.HandleEvent(context.Background(), "evt_rzp_1", parse(t, body), body))
	require.Len(t, settle.calls, 1)
	call := settle.calls[0]
	assert.True(t, call.paid)
	assert.Equal(t, []uuid.UUID{a, b}, call.orderIDs)
	assert.Equal(t, enums.PaymentGatewayRazorpay, call.event.Gateway)
	assert.Equal(t, "pay_29QQoUBi66xm2f", call.event.PaymentRef)
	assert.Equal(t, "evt_rzp_1", call.event.ID)
}

func TestFailedPaymentRecordsFailure(t *testing.T) {
	id := uuid.New()
	svc, settle := newService(t, &stubLookup{byRef: map[string][]models.Order{"order_X": {{ID: id}}}})
	body := webhookBody(razorpay.EventPaymentFailed, "order_X", `[]`)

	require.NoError(t, svc.HandleEvent(context.Background(), "evt_rzp_2", parse(t, body), body))
	require.Len(t, settle.calls, 1)
	assert.False(t, settle.calls[0].paid)
}

func TestFallsBackToNotedOrderIDs(t *testing.T) {
	id := uuid.New()
	svc, settle := newService(t, &stubLookup{})
	body := webhookBody(razorpay.EventPaymentCaptured, "order_unknown", fmt.Sprintf(`{"appId":"storefront","orderIds":%q}`, id.String()))

	require.NoError(t, svc.HandleEvent(context.Background(), "evt_rzp_3", parse(t, body), body))
	require.Len(t, settle.calls, 1)
	assert.Equal(t, []uuid.UUID{id}, settle.calls[0].orderIDs)
}

func TestIgnoredDeliveries(t *testing.T) {
	id := uuid.New()
	svc, settle := newService(t, &stubLookup{byRef: map[string][]models.Order{"order_X": {{ID: id}}}})
	ctx := context.Background()

	foreign := webhookBody(razorpay.EventPaymentCaptured, "order_X", `{"appId":"another-shop"}`)
	require.NoError(t, svc.HandleEvent(ctx, "evt_a", parse(t, foreign), foreign))

	unknownRef := webhookBody(razorpay.EventPaymentCaptured, "order_Y", `[]`)
	require.NoError(t, svc.HandleEvent(ctx, "evt_b", parse(t, unknownRef), unknownRef))

	refund := []byte(`{"event":"refund.processed","payload":{}}`)
	require.NoError(t, svc.HandleEvent(ctx, "evt_c", parse(t, refund), refund))

	assert.Empty(t, settle.calls)
}
