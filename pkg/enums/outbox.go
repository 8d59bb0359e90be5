package enums

// OutboxAggregateType is the aggregate_type column of outbox_events. It also
// selects the ordering key used when the event is published.
type OutboxAggregateType string

const (
	AggregateOrder    OutboxAggregateType = "order"
	AggregateCheckout OutboxAggregateType = "checkout"
)

var aggregateTypes = []OutboxAggregateType{AggregateOrder, AggregateCheckout}

func (a OutboxAggregateType) IsValid() bool { return member(aggregateTypes, a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse(aggregateTypes, "aggregate type", value)
}

// OutboxEventType is the event_type column of outbox_events.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderCanceled      OutboxEventType = "order_canceled"
	EventOrderPaid          OutboxEventType = "order_paid"
	EventPaymentFailed      OutboxEventType = "payment_failed"
	EventOrderDelivered     OutboxEventType = "order_delivered"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventOrderPaymentStale  OutboxEventType = "order_payment_stale"
	EventRefundSettled      OutboxEventType = "refund_settled"
)

var eventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderCanceled,
	EventOrderPaid,
	EventPaymentFailed,
	EventOrderDelivered,
	EventOrderStatusChanged,
	EventOrderPaymentStale,
	EventRefundSettled,
}

func (e OutboxEventType) IsValid() bool { return member(eventTypes, e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse(eventTypes, "event type", value)
}
