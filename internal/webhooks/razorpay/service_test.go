package razorpaywebhook

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farmdirect/farmdirect-backend/internal/orders"
	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
)

type stubOrdersRepo struct {
	byRemoteID  map[string]*models.Order
	byID        map[uuid.UUID]*models.Order
	completions int
	failures    int
	completeWon bool
	failMarked  bool
}

func newStubRepo(order *models.Order, remoteID string) *stubOrdersRepo {
	repo := &stubOrdersRepo{
		byRemoteID: map[string]*models.Order{},
		byID:       map[uuid.UUID]*models.Order{},
	}
	if order != nil {
		repo.byRemoteID[remoteID] = order
		repo.byID[order.ID] = order
	}
	return repo
}

func (s *stubOrdersRepo) WithTx(*gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) Create(context.Context, *models.Order) (*models.Order, error) {
	return nil, nil
}

func (s *stubOrdersRepo) CreateItems(context.Context, []models.OrderItem) error { return nil }

func (s *stubOrdersRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.byID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *stubOrdersRepo) FindByRazorpayOrderID(_ context.Context, remoteOrderID string) (*models.Order, error) {
	order, ok := s.byRemoteID[remoteOrderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *stubOrdersRepo) FindByStripeSessionID(context.Context, string) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrdersRepo) ListByUser(context.Context, uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrdersRepo) AttachRazorpayOrder(context.Context, uuid.UUID, string) error { return nil }

func (s *stubOrdersRepo) AttachStripeSession(context.Context, uuid.UUID, string) error { return nil }

func (s *stubOrdersRepo) MarkPaymentCompleted(context.Context, uuid.UUID, orders.PaymentCompletion) (bool, error) {
	s.completions++
	return s.completeWon, nil
}

func (s *stubOrdersRepo) MarkPaymentFailed(context.Context, uuid.UUID) (bool, error) {
	s.failures++
	return s.failMarked, nil
}

func pendingOrder() *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodUPI,
	}
}

func capturedEvent(remoteOrderID, paymentID string) *Event {
	return &Event{
		Event: EventPaymentCaptured,
		Payload: Payload{
			Payment: PaymentWrapper{
				Entity: PaymentEntity{ID: paymentID, OrderID: remoteOrderID, Status: "captured"},
			},
		},
	}
}

func TestHandleCapturedCompletesOrder(t *testing.T) {
	t.Parallel()

	order := pendingOrder()
	repo := newStubRepo(order, "order_remote_1")
	repo.completeWon = true
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	err = svc.HandleEvent(context.Background(), capturedEvent("order_remote_1", "pay_1"))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.completions)
}

func TestHandleCapturedReplayIsNoop(t *testing.T) {
	t.Parallel()

	order := pendingOrder()
	order.PaymentStatus = enums.PaymentStatusCompleted
	repo := newStubRepo(order, "order_remote_1")
	repo.completeWon = false
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	err = svc.HandleEvent(context.Background(), capturedEvent("order_remote_1", "pay_1"))
	require.NoError(t, err, "second delivery must be a no-op, not an error")
	assert.Equal(t, 1, repo.completions)
}

func TestHandleCapturedAfterFailureConflicts(t *testing.T) {
	t.Parallel()

	order := pendingOrder()
	order.PaymentStatus = enums.PaymentStatusFailed
	repo := newStubRepo(order, "order_remote_1")
	repo.completeWon = false
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	err = svc.HandleEvent(context.Background(), capturedEvent("order_remote_1", "pay_1"))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestHandleCapturedUnknownOrder(t *testing.T) {
	t.Parallel()

	repo := newStubRepo(nil, "")
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	err = svc.HandleEvent(context.Background(), capturedEvent("order_remote_missing", "pay_1"))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	assert.Zero(t, repo.completions)
}

func TestHandleCapturedMissingPaymentID(t *testing.T) {
	t.Parallel()

	repo := newStubRepo(pendingOrder(), "order_remote_1")
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	err = svc.HandleEvent(context.Background(), capturedEvent("order_remote_1", ""))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestHandleFailedMarksPendingOrder(t *testing.T) {
	t.Parallel()

	order := pendingOrder()
	repo := newStubRepo(order, "order_remote_1")
	repo.failMarked = true
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	event := &Event{
		Event: EventPaymentFailed,
		Payload: Payload{
			Payment: PaymentWrapper{Entity: PaymentEntity{ID: "pay_1", OrderID: "order_remote_1", Status: "failed"}},
		},
	}
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Equal(t, 1, repo.failures)
}

func TestHandleFailedAfterCompletionIsNoop(t *testing.T) {
	t.Parallel()

	order := pendingOrder()
	order.PaymentStatus = enums.PaymentStatusCompleted
	repo := newStubRepo(order, "order_remote_1")
	repo.failMarked = false
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	event := &Event{
		Event: EventPaymentFailed,
		Payload: Payload{
			Payment: PaymentWrapper{Entity: PaymentEntity{ID: "pay_1", OrderID: "order_remote_1", Status: "failed"}},
		},
	}
	require.NoError(t, svc.HandleEvent(context.Background(), event))
}

func TestHandleUnknownEventTypeIgnored(t *testing.T) {
	t.Parallel()

	repo := newStubRepo(pendingOrder(), "order_remote_1")
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	err = svc.HandleEvent(context.Background(), &Event{Event: "refund.processed"})
	require.NoError(t, err)
	assert.Zero(t, repo.completions)
	assert.Zero(t, repo.failures)
}
