package razorpaywebhook

import (
	"context"
	"fmt"

	"github.com/farmdirect/farmdirect-backend/internal/orders"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/logger"
	"github.com/farmdirect/farmdirect-backend/pkg/metrics"
)

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// Event is the decoded Razorpay webhook envelope. The raw payload is only
// decoded after the controller has verified the body signature.
type Event struct {
	Event   string  `json:"event"`
	Payload Payload `json:"payload"`
}

type Payload struct {
	Payment PaymentWrapper `json:"payment"`
}

type PaymentWrapper struct {
	Entity PaymentEntity `json:"entity"`
}

type PaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type ServiceParams struct {
	OrdersRepo orders.Repository
	Logger     *logger.Logger
	Metrics    *metrics.PaymentMetrics
}

// Service reconciles Razorpay payment events onto local orders.
type Service struct {
	ordersRepo orders.Repository
	logger     *logger.Logger
	metrics    *metrics.PaymentMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	return &Service{
		ordersRepo: params.OrdersRepo,
		logger:     params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// HandleEvent applies one verified payment event. Replays and out-of-order
// deliveries for an order that already settled are no-ops.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "razorpay event required")
	}

	switch event.Event {
	case EventPaymentCaptured:
		return s.handleCaptured(ctx, event.Payload.Payment.Entity)
	case EventPaymentFailed:
		return s.handleFailed(ctx, event.Payload.Payment.Entity)
	default:
		s.metrics.IncWebhookEvent("razorpay", "ignored")
		return nil
	}
}

func (s *Service) handleCaptured(ctx context.Context, payment PaymentEntity) error {
	if payment.OrderID == "" || payment.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment entity missing order or payment id")
	}

	order, err := s.ordersRepo.FindByRazorpayOrderID(ctx, payment.OrderID)
	if err != nil {
		s.metrics.IncWebhookEvent("razorpay", "unmatched")
		return err
	}

	won, err := s.ordersRepo.MarkPaymentCompleted(ctx, order.ID, orders.PaymentCompletion{
		RazorpayPaymentID: &payment.ID,
	})
	if err != nil {
		return err
	}
	if !won {
		current, err := s.ordersRepo.FindByID(ctx, order.ID)
		if err != nil {
			return err
		}
		if current.PaymentStatus == enums.PaymentStatusCompleted {
			s.metrics.IncWebhookEvent("razorpay", "duplicate")
			return nil
		}
		s.metrics.IncWebhookEvent("razorpay", "conflict")
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("order payment is %s, cannot complete", current.PaymentStatus))
	}

	s.metrics.IncWebhookEvent("razorpay", "completed")
	if s.logger != nil {
		s.logger.Info(s.logger.WithOrderID(ctx, order.ID.String()), "payment captured via webhook")
	}
	return nil
}

func (s *Service) handleFailed(ctx context.Context, payment PaymentEntity) error {
	if payment.OrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment entity missing order id")
	}

	order, err := s.ordersRepo.FindByRazorpayOrderID(ctx, payment.OrderID)
	if err != nil {
		s.metrics.IncWebhookEvent("razorpay", "unmatched")
		return err
	}

	marked, err := s.ordersRepo.MarkPaymentFailed(ctx, order.ID)
	if err != nil {
		return err
	}
	if marked {
		s.metrics.IncWebhookEvent("razorpay", "failed")
		if s.logger != nil {
			s.logger.Warn(s.logger.WithOrderID(ctx, order.ID.String()), "payment failed via webhook")
		}
	} else {
		// Order already settled; a late failure event must not undo it.
		s.metrics.IncWebhookEvent("razorpay", "duplicate")
	}
	return nil
}
