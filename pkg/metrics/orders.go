package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics counts order lifecycle outcomes. A nil *OrderMetrics is a no-op.
type OrderMetrics struct {
	placed      *prometheus.CounterVec
	checkoutErr *prometheus.CounterVec
	settlements *prometheus.CounterVec
	otpChecks   *prometheus.CounterVec
	cancels     prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return nil
	}
	m := &OrderMetrics{
		placed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders created by checkout, per payment method.",
		}, []string{"payment_method"}),
		checkoutErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_failures_total",
			Help:      "Checkouts rejected, per reason.",
		}, []string{"reason"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_settlements_total",
			Help:      "Gateway webhook outcomes.",
		}, []string{"gateway", "outcome"}),
		otpChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_otp_checks_total",
			Help:      "Delivery code verifications, per result.",
		}, []string{"result"}),
		cancels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_cancelled_total",
			Help:      "Orders cancelled.",
		}),
	}
	reg.MustRegister(m.placed, m.checkoutErr, m.settlements, m.otpChecks, m.cancels)
	return m
}

// OrdersPlaced adds n orders for the payment method.
func (m *OrderMetrics) OrdersPlaced(method string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.placed.WithLabelValues(normalizeLabel(method)).Add(float64(n))
}

// CheckoutFailed counts a rejected checkout.
func (m *OrderMetrics) CheckoutFailed(reason string) {
	if m == nil {
		return
	}
	m.checkoutErr.WithLabelValues(normalizeLabel(reason)).Inc()
}

// Settlement counts a webhook outcome such as paid, failed, duplicate, ignored.
func (m *OrderMetrics) Settlement(gateway, outcome string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(gateway), normalizeLabel(outcome)).Inc()
}

// OTPCheck counts a delivery code verification result.
func (m *OrderMetrics) OTPCheck(result string) {
	if m == nil {
		return
	}
	m.otpChecks.WithLabelValues(normalizeLabel(result)).Inc()
}

// OrderCancelled counts one cancellation.
func (m *OrderMetrics) OrderCancelled() {
	if m == nil {
		return
	}
	m.cancels.Inc()
}
