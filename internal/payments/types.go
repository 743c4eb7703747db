package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdirect/farmdirect-backend/pkg/enums"
)

// VerifyInput is the client-asserted payment proof for the intent-link rail.
type VerifyInput struct {
	OrderID       uuid.UUID
	RemoteOrderID string
	PaymentID     string
	Signature     string
}

// VerifyResult reports a successful verification.
type VerifyResult struct {
	OrderID   uuid.UUID `json:"order_id"`
	PaymentID string    `json:"payment_id"`
	Message   string    `json:"message"`
}

// QRCodeDTO carries everything the client needs to render the UPI payment
// prompt for a pending order.
type QRCodeDTO struct {
	OrderID       uuid.UUID       `json:"order_id"`
	RemoteOrderID string          `json:"razorpay_order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	IntentLink    string          `json:"intent_link"`
}

// StatusDTO is the polling view of an order's payment progress.
type StatusDTO struct {
	OrderID       uuid.UUID           `json:"order_id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
}
