package enums

import "fmt"

// PaymentMethod selects the payment rail an order is paid through.
type PaymentMethod string

const (
	// PaymentMethodUPI is the intent-link rail: a Razorpay order plus a UPI
	// deep link / QR payload the buyer scans.
	PaymentMethodUPI PaymentMethod = "upi"
	// PaymentMethodCard is the hosted-checkout rail: a Stripe checkout
	// session the buyer is redirected to.
	PaymentMethodCard PaymentMethod = "card"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodUPI,
	PaymentMethodCard,
}

// String implements fmt.Stringer.
func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known PaymentMethod.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
