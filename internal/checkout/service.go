package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farmdirect/farmdirect-backend/internal/cart"
	"github.com/farmdirect/farmdirect-backend/internal/orders"
	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/logger"
	"github.com/farmdirect/farmdirect-backend/pkg/metrics"
	"github.com/farmdirect/farmdirect-backend/pkg/razorpay"
	"github.com/farmdirect/farmdirect-backend/pkg/stripe"
)

const checkoutCurrency = "INR"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type snapshotter interface {
	TakeSnapshot(ctx context.Context, userID uuid.UUID) (*cart.Snapshot, error)
}

type cartClearer interface {
	Clear(ctx context.Context, userID uuid.UUID) error
}

type upiRail interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt, description string) (*razorpay.RemoteOrder, error)
	IntentLink(orderID uuid.UUID, amount decimal.Decimal) string
}

type hostedRail interface {
	CreateCheckoutSession(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, description string) (*stripe.CheckoutSession, error)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input Input) (*Result, error)
}

type service struct {
	tx         txRunner
	cartSvc    snapshotter
	cartRepo   cartClearer
	ordersRepo orders.Repository
	upi        upiRail
	hosted     hostedRail
	logger     *logger.Logger
	metrics    *metrics.PaymentMetrics
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartSvc snapshotter,
	cartRepo cartClearer,
	ordersRepo orders.Repository,
	upi upiRail,
	hosted hostedRail,
	logg *logger.Logger,
	paymentMetrics *metrics.PaymentMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if upi == nil {
		return nil, fmt.Errorf("upi rail client required")
	}
	if hosted == nil {
		return nil, fmt.Errorf("hosted rail client required")
	}
	return &service{
		tx:         tx,
		cartSvc:    cartSvc,
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		upi:        upi,
		hosted:     hosted,
		logger:     logg,
		metrics:    paymentMetrics,
	}, nil
}

// Execute runs the checkout state machine: validate locally, snapshot and
// price the cart, persist order plus items in one transaction, then dispatch
// to the selected rail. The rail call happens strictly after commit; a rail
// failure leaves the pending order in place for retry.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input Input) (*Result, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := input.Address.Validate(); err != nil {
		return nil, err
	}
	if input.DeliverySlot == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery slot required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment method %q", input.PaymentMethod))
	}
	if input.DeliveryFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee must not be negative")
	}

	snapshot, err := s.cartSvc.TakeSnapshot(ctx, userID)
	if err != nil {
		s.countOutcome(input.PaymentMethod, "rejected")
		return nil, err
	}
	for _, line := range snapshot.Lines {
		if line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("product %s has a negative price", line.ProductID))
		}
	}

	total := snapshot.Subtotal.Add(input.DeliveryFee).Round(2)
	if !total.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}

	order, err := s.persistOrder(ctx, userID, input, snapshot, total)
	if err != nil {
		s.countOutcome(input.PaymentMethod, "persist_error")
		return nil, err
	}

	ctx = s.withOrderLogger(ctx, order.ID)
	result, err := s.dispatchRail(ctx, order, total)
	if err != nil {
		// The order stays pending so the user can retry payment against it.
		s.countOutcome(input.PaymentMethod, "rail_error")
		return nil, err
	}

	if err := s.cartRepo.Clear(ctx, userID); err != nil && s.logger != nil {
		s.logger.Warn(ctx, fmt.Sprintf("clearing cart after checkout: %v", err))
	}
	s.countOutcome(input.PaymentMethod, "success")
	if s.logger != nil {
		s.logger.Info(ctx, "checkout completed")
	}
	return result, nil
}

// persistOrder inserts the order header and its frozen lines in one
// transaction. If the line set comes up empty the whole transaction rolls
// back, so an order without items is never observable.
func (s *service) persistOrder(ctx context.Context, userID uuid.UUID, input Input, snapshot *cart.Snapshot, total decimal.Decimal) (*models.Order, error) {
	order := &models.Order{
		UserID:          userID,
		TotalAmount:     total,
		DeliveryFee:     input.DeliveryFee.Round(2),
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		DeliveryLine1:   input.Address.Line1,
		DeliveryCity:    input.Address.City,
		DeliveryState:   input.Address.State,
		DeliveryPincode: input.Address.Pincode,
		DeliverySlot:    input.DeliverySlot,
	}
	if input.Address.Line2 != "" {
		line2 := input.Address.Line2
		order.DeliveryLine2 = &line2
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)

		created, err := repo.Create(ctx, order)
		if err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(snapshot.Lines))
		for _, line := range snapshot.Lines {
			items = append(items, models.OrderItem{
				OrderID:      created.ID,
				ProductID:    line.ProductID,
				ProductName:  line.ProductName,
				ProductImage: line.ProductImage,
				Price:        line.UnitPrice,
				Quantity:     line.Quantity,
				WeightKG:     line.WeightKG,
			})
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeInternal, "order resolved to zero items")
		}
		return repo.CreateItems(ctx, items)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) dispatchRail(ctx context.Context, order *models.Order, total decimal.Decimal) (*Result, error) {
	description := fmt.Sprintf("FarmDirect order %s", order.ID)

	switch order.PaymentMethod {
	case enums.PaymentMethodUPI:
		started := time.Now()
		remote, err := s.upi.CreateOrder(ctx, total, order.ID.String(), description)
		s.metrics.ObserveRailLatency("upi", time.Since(started))
		if err != nil {
			return nil, err
		}
		if err := s.ordersRepo.AttachRazorpayOrder(ctx, order.ID, remote.ID); err != nil {
			return nil, err
		}
		return &Result{
			OrderID:       order.ID,
			PaymentMethod: order.PaymentMethod,
			UPI: &UPIPayload{
				RemoteOrderID: remote.ID,
				Amount:        total,
				Currency:      checkoutCurrency,
				IntentLink:    s.upi.IntentLink(order.ID, total),
			},
		}, nil

	case enums.PaymentMethodCard:
		started := time.Now()
		session, err := s.hosted.CreateCheckoutSession(ctx, order.ID, total, description)
		s.metrics.ObserveRailLatency("card", time.Since(started))
		if err != nil {
			return nil, err
		}
		if err := s.ordersRepo.AttachStripeSession(ctx, order.ID, session.ID); err != nil {
			return nil, err
		}
		return &Result{
			OrderID:       order.ID,
			PaymentMethod: order.PaymentMethod,
			Hosted: &HostedPayload{
				SessionID:   session.ID,
				RedirectURL: session.URL,
			},
		}, nil

	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("order %s has unknown payment method %q", order.ID, order.PaymentMethod))
	}
}

func (s *service) countOutcome(method enums.PaymentMethod, outcome string) {
	s.metrics.IncCheckout(string(method), outcome)
}

func (s *service) withOrderLogger(ctx context.Context, orderID uuid.UUID) context.Context {
	if s.logger == nil {
		return ctx
	}
	return s.logger.WithOrderID(ctx, orderID.String())
}
