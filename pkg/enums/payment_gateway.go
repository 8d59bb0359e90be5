package enums

// PaymentGateway identifies the external processor behind a webhook or payload.
type PaymentGateway string

const (
	PaymentGatewayStripe   PaymentGateway = "stripe"
	PaymentGatewayRazorpay PaymentGateway = "razorpay"
)

var paymentGateways = []PaymentGateway{PaymentGatewayStripe, PaymentGatewayRazorpay}

func (g PaymentGateway) String() string { return string(g) }

func (g PaymentGateway) IsValid() bool { return member(paymentGateways, g) }

func ParsePaymentGateway(value string) (PaymentGateway, error) {
	return parse(paymentGateways, "payment gateway", value)
}
