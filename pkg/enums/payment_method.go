package enums

// PaymentMethod describes how a buyer settles an order.
type PaymentMethod string

const (
	PaymentMethodCOD      PaymentMethod = "COD"
	PaymentMethodStripe   PaymentMethod = "STRIPE"
	PaymentMethodRazorpay PaymentMethod = "RAZORPAY"
	// PaymentMethodUPI only appears on historical orders.
	PaymentMethodUPI PaymentMethod = "UPI"
)

var paymentMethods = []PaymentMethod{PaymentMethodCOD, PaymentMethodStripe, PaymentMethodRazorpay, PaymentMethodUPI}

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool { return member(paymentMethods, p) }

// CheckoutAllowed reports whether the method can be chosen at checkout.
func (p PaymentMethod) CheckoutAllowed() bool {
	return p.IsValid() && p != PaymentMethodUPI
}

// Gateway returns the processor that settles p. COD has none.
func (p PaymentMethod) Gateway() (PaymentGateway, bool) {
	switch p {
	case PaymentMethodStripe:
		return PaymentGatewayStripe, true
	case PaymentMethodRazorpay:
		return PaymentGatewayRazorpay, true
	}
	return "", false
}

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parse(paymentMethods, "payment method", value)
}
