package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdirect/farmdirect-backend/api/responses"
	"github.com/farmdirect/farmdirect-backend/api/validators"
	checkoutsvc "github.com/farmdirect/farmdirect-backend/internal/checkout"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/logger"
	"github.com/farmdirect/farmdirect-backend/pkg/types"
)

type checkoutRequest struct {
	DeliveryAddress types.DeliveryAddress `json:"delivery_address" validate:"required"`
	DeliverySlot    string                `json:"delivery_slot" validate:"required"`
	DeliveryFee     decimal.Decimal       `json:"delivery_fee"`
	PaymentMethod   string                `json:"payment_method" validate:"required,oneof=upi card"`
}

type checkoutUPIResponse struct {
	OrderID       uuid.UUID       `json:"order_id"`
	PaymentMethod string          `json:"payment_method"`
	RemoteOrderID string          `json:"razorpay_order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	IntentLink    string          `json:"intent_link"`
}

type checkoutHostedResponse struct {
	OrderID       uuid.UUID `json:"order_id"`
	PaymentMethod string    `json:"payment_method"`
	SessionID     string    `json:"session_id"`
	URL           string    `json:"url"`
}

// Checkout converts the caller's cart into a pending order on the selected
// payment rail.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.Execute(r.Context(), userID, checkoutsvc.Input{
			Address:       payload.DeliveryAddress,
			DeliverySlot:  payload.DeliverySlot,
			DeliveryFee:   payload.DeliveryFee,
			PaymentMethod: method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutResponse(result))
	}
}

func newCheckoutResponse(result *checkoutsvc.Result) any {
	if result.UPI != nil {
		return checkoutUPIResponse{
			OrderID:       result.OrderID,
			PaymentMethod: string(result.PaymentMethod),
			RemoteOrderID: result.UPI.RemoteOrderID,
			Amount:        result.UPI.Amount,
			Currency:      result.UPI.Currency,
			IntentLink:    result.UPI.IntentLink,
		}
	}
	if result.Hosted != nil {
		return checkoutHostedResponse{
			OrderID:       result.OrderID,
			PaymentMethod: string(result.PaymentMethod),
			SessionID:     result.Hosted.SessionID,
			URL:           result.Hosted.RedirectURL,
		}
	}
	return map[string]any{"order_id": result.OrderID, "payment_method": string(result.PaymentMethod)}
}
