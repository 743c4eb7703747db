package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/farmdirect/farmdirect-backend/internal/orders"
	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/logger"
	"github.com/farmdirect/farmdirect-backend/pkg/metrics"
	pkgstripe "github.com/farmdirect/farmdirect-backend/pkg/stripe"
)

type ServiceParams struct {
	OrdersRepo orders.Repository
	Logger     *logger.Logger
	Metrics    *metrics.PaymentMetrics
}

// Service reconciles Stripe checkout session events onto local orders.
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

// HandleEvent applies one verified checkout session event. The local order
// is located through session metadata, never through anything the shopper's
// browser supplied.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		return s.handleCompleted(ctx, session)
	case stripe.EventTypeCheckoutSessionExpired:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		return s.handleExpired(ctx, session)
	default:
		s.metrics.IncWebhookEvent("stripe", "ignored")
		return nil
	}
}

func decodeSession(event *stripe.Event) (*stripe.CheckoutSession, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
	}
	return &session, nil
}

func (s *Service) handleCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	order, err := s.resolveOrder(ctx, session)
	if err != nil {
		return err
	}

	won, err := s.ordersRepo.MarkPaymentCompleted(ctx, order.ID, orders.PaymentCompletion{})
	if err != nil {
		return err
	}
	if !won {
		current, err := s.ordersRepo.FindByID(ctx, order.ID)
		if err != nil {
			return err
		}
		if current.PaymentStatus == enums.PaymentStatusCompleted {
			s.metrics.IncWebhookEvent("stripe", "duplicate")
			return nil
		}
		s.metrics.IncWebhookEvent("stripe", "conflict")
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("order payment is %s, cannot complete", current.PaymentStatus))
	}

	s.metrics.IncWebhookEvent("stripe", "completed")
	if s.logger != nil {
		s.logger.Info(s.logger.WithOrderID(ctx, order.ID.String()), "checkout session completed")
	}
	return nil
}

func (s *Service) handleExpired(ctx context.Context, session *stripe.CheckoutSession) error {
	order, err := s.resolveOrder(ctx, session)
	if err != nil {
		return err
	}

	marked, err := s.ordersRepo.MarkPaymentFailed(ctx, order.ID)
	if err != nil {
		return err
	}
	if marked {
		s.metrics.IncWebhookEvent("stripe", "expired")
		if s.logger != nil {
			s.logger.Warn(s.logger.WithOrderID(ctx, order.ID.String()), "checkout session expired")
		}
	} else {
		s.metrics.IncWebhookEvent("stripe", "duplicate")
	}
	return nil
}

// resolveOrder locates the local order through the session's order_id
// metadata and cross-checks the stored session correlation id.
func (s *Service) resolveOrder(ctx context.Context, session *stripe.CheckoutSession) (*models.Order, error) {
	if session == nil || session.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id required")
	}

	raw := session.Metadata[pkgstripe.MetadataOrderID]
	if raw == "" {
		s.metrics.IncWebhookEvent("stripe", "unmatched")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session carries no order id")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		s.metrics.IncWebhookEvent("stripe", "unmatched")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session order id is not a uuid")
	}

	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		s.metrics.IncWebhookEvent("stripe", "unmatched")
		return nil, err
	}
	if order.StripeSessionID == nil || *order.StripeSessionID != session.ID {
		s.metrics.IncWebhookEvent("stripe", "unmatched")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session does not match the order")
	}
	return order, nil
}
