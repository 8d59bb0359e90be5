package enums

import "slices"

// OrderStatus is the fulfilment state of a single store order.
type OrderStatus string

const (
	OrderStatusPlaced            OrderStatus = "ORDER_PLACED"
	OrderStatusPacked            OrderStatus = "PACKED"
	OrderStatusProcessing        OrderStatus = "PROCESSING"
	OrderStatusShipped           OrderStatus = "SHIPPED"
	OrderStatusOutForDelivery    OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDeliveryInitiated OrderStatus = "DELIVERY_INITIATED"
	OrderStatusDelivered         OrderStatus = "DELIVERED"
	OrderStatusCancelled         OrderStatus = "CANCELLED"
)

// validOrderStatuses is ordered by Rank.
var validOrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusPacked,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDeliveryInitiated,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	return s.Rank() >= 0
}

// Rank returns the position of s on the forward path. CANCELLED ranks after
// DELIVERED so it is never a regression from a live state. Unknown values
// return -1.
func (s OrderStatus) Rank() int {
	return slices.Index(validOrderStatuses, s)
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	return parse(validOrderStatuses, "order status", value)
}
