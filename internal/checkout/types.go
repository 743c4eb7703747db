package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	"github.com/farmdirect/farmdirect-backend/pkg/types"
)

// Input carries the validated checkout request.
type Input struct {
	Address       types.DeliveryAddress
	DeliverySlot  string
	DeliveryFee   decimal.Decimal
	PaymentMethod enums.PaymentMethod
}

// UPIPayload is the rail payload returned for intent-link checkouts.
type UPIPayload struct {
	RemoteOrderID string          `json:"razorpay_order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	IntentLink    string          `json:"intent_link"`
}

// HostedPayload is the rail payload returned for hosted-checkout checkouts.
type HostedPayload struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"url"`
}

// Result is the checkout outcome handed back to the controller. Exactly one
// of UPI or Hosted is set, matching PaymentMethod.
type Result struct {
	OrderID       uuid.UUID
	PaymentMethod enums.PaymentMethod
	UPI           *UPIPayload
	Hosted        *HostedPayload
}
