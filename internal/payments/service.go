package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdirect/farmdirect-backend/internal/orders"
	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/logger"
	"github.com/farmdirect/farmdirect-backend/pkg/metrics"
)

const railCurrency = "INR"

type signatureVerifier interface {
	VerifyPaymentSignature(remoteOrderID, paymentID, signature string) bool
	IntentLink(orderID uuid.UUID, amount decimal.Decimal) string
}

// Service is the synchronous trust boundary for the intent-link rail plus
// the read endpoints the payment UI polls.
type Service interface {
	Verify(ctx context.Context, callerID uuid.UUID, input VerifyInput) (*VerifyResult, error)
	QRCode(ctx context.Context, callerID, orderID uuid.UUID) (*QRCodeDTO, error)
	Status(ctx context.Context, callerID, orderID uuid.UUID) (*StatusDTO, error)
}

type service struct {
	ordersRepo orders.Repository
	rail       signatureVerifier
	logger     *logger.Logger
	metrics    *metrics.PaymentMetrics
}

// NewService builds the payment verification service.
func NewService(ordersRepo orders.Repository, rail signatureVerifier, logg *logger.Logger, paymentMetrics *metrics.PaymentMetrics) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if rail == nil {
		return nil, fmt.Errorf("rail client required")
	}
	return &service{
		ordersRepo: ordersRepo,
		rail:       rail,
		logger:     logg,
		metrics:    paymentMetrics,
	}, nil
}

// Verify runs the gate sequence for a client-asserted UPI payment. Every
// gate aborts with no state mutation. The signature check runs before the
// order lookup so a forged request learns nothing about which orders exist.
func (s *service) Verify(ctx context.Context, callerID uuid.UUID, input VerifyInput) (*VerifyResult, error) {
	if callerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}
	if input.OrderID == uuid.Nil || input.RemoteOrderID == "" || input.PaymentID == "" || input.Signature == "" {
		s.metrics.IncVerification("malformed")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id, razorpay order id, payment id and signature are all required")
	}

	if !s.rail.VerifyPaymentSignature(input.RemoteOrderID, input.PaymentID, input.Signature) {
		s.metrics.IncVerification("signature_mismatch")
		s.security(ctx, input, "payment signature mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "payment signature verification failed")
	}

	order, err := s.ordersRepo.FindByID(ctx, input.OrderID)
	if err != nil {
		s.metrics.IncVerification("order_not_found")
		return nil, err
	}
	if order.UserID != callerID {
		s.metrics.IncVerification("ownership_violation")
		s.security(ctx, input, "payment verification for another user's order")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	if order.RazorpayOrderID == nil || *order.RazorpayOrderID != input.RemoteOrderID {
		s.metrics.IncVerification("correlation_mismatch")
		s.security(ctx, input, "payment verification with mismatched razorpay order")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "razorpay order does not match this order")
	}

	won, err := s.ordersRepo.MarkPaymentCompleted(ctx, order.ID, orders.PaymentCompletion{
		RazorpayPaymentID: &input.PaymentID,
		RazorpaySignature: &input.Signature,
	})
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the guarded update: the order already left pending.
		current, err := s.ordersRepo.FindByID(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if current.PaymentStatus == enums.PaymentStatusCompleted {
			s.metrics.IncVerification("already_completed")
			return &VerifyResult{OrderID: order.ID, PaymentID: input.PaymentID, Message: "payment already verified"}, nil
		}
		s.metrics.IncVerification("conflict")
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("payment is %s and cannot be verified", current.PaymentStatus))
	}

	s.metrics.IncVerification("verified")
	if s.logger != nil {
		s.logger.Info(s.logger.WithOrderID(ctx, order.ID.String()), "payment verified")
	}
	return &VerifyResult{OrderID: order.ID, PaymentID: input.PaymentID, Message: "payment verified"}, nil
}

// QRCode returns the UPI intent payload for a pending intent-link order.
func (s *service) QRCode(ctx context.Context, callerID, orderID uuid.UUID) (*QRCodeDTO, error) {
	order, err := s.ownedOrder(ctx, callerID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != enums.PaymentMethodUPI {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is not payable over UPI")
	}
	if order.RazorpayOrderID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment has not been initialized for this order")
	}

	return &QRCodeDTO{
		OrderID:       order.ID,
		RemoteOrderID: *order.RazorpayOrderID,
		Amount:        order.TotalAmount,
		Currency:      railCurrency,
		IntentLink:    s.rail.IntentLink(order.ID, order.TotalAmount),
	}, nil
}

// Status returns the two status axes the payment UI polls on.
func (s *service) Status(ctx context.Context, callerID, orderID uuid.UUID) (*StatusDTO, error) {
	order, err := s.ownedOrder(ctx, callerID, orderID)
	if err != nil {
		return nil, err
	}
	return &StatusDTO{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
	}, nil
}

func (s *service) ownedOrder(ctx context.Context, callerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return order, nil
}

func (s *service) security(ctx context.Context, input VerifyInput, msg string) {
	if s.logger == nil {
		return
	}
	ctx = s.logger.WithFields(ctx, map[string]any{
		"order_id":          input.OrderID.String(),
		"razorpay_order_id": input.RemoteOrderID,
	})
	s.logger.Security(ctx, msg)
}
