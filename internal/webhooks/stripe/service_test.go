package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/farmdirect/farmdirect-backend/internal/orders"
	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
)

type stubOrdersRepo struct {
	order       *models.Order
	completions int
	failures    int
	completeWon bool
	failMarked  bool
}

func (s *stubOrdersRepo) WithTx(*gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) Create(context.Context, *models.Order) (*models.Order, error) {
	return nil, nil
}

func (s *stubOrdersRepo) CreateItems(context.Context, []models.OrderItem) error { return nil }

func (s *stubOrdersRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.order, nil
}

func (s *stubOrdersRepo) FindByRazorpayOrderID(context.Context, string) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
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

func cardOrder(sessionID string) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodCard,
	}
	if sessionID != "" {
		order.StripeSessionID = &sessionID
	}
	return order
}

func sessionEvent(t *testing.T, eventType stripe.EventType, sessionID string, metadata map[string]string) *stripe.Event {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"id":       sessionID,
		"object":   "checkout.session",
		"metadata": metadata,
	})
	require.NoError(t, err)
	return &stripe.Event{
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleSessionCompleted(t *testing.T) {
	t.Parallel()

	order := cardOrder("cs_test_1")
	repo := &stubOrdersRepo{order: order, completeWon: true}
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_1", map[string]string{
		"order_id": order.ID.String(),
	})
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Equal(t, 1, repo.completions)
}

func TestHandleSessionCompletedReplayIsNoop(t *testing.T) {
	t.Parallel()

	order := cardOrder("cs_test_1")
	order.PaymentStatus = enums.PaymentStatusCompleted
	repo := &stubOrdersRepo{order: order, completeWon: false}
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_1", map[string]string{
		"order_id": order.ID.String(),
	})
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Equal(t, 1, repo.completions)
}

func TestHandleSessionCompletedMismatchedSession(t *testing.T) {
	t.Parallel()

	order := cardOrder("cs_test_other")
	repo := &stubOrdersRepo{order: order, completeWon: true}
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_1", map[string]string{
		"order_id": order.ID.String(),
	})
	err = svc.HandleEvent(context.Background(), event)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, repo.completions, "mismatched session must not settle the order")
}

func TestHandleSessionCompletedMissingMetadata(t *testing.T) {
	t.Parallel()

	repo := &stubOrdersRepo{order: cardOrder("cs_test_1")}
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	tests := []struct {
		name     string
		metadata map[string]string
	}{
		{"no metadata", nil},
		{"order id not a uuid", map[string]string{"order_id": "not-a-uuid"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_1", tc.metadata)
			err := svc.HandleEvent(context.Background(), event)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestHandleSessionCompletedUnknownOrder(t *testing.T) {
	t.Parallel()

	repo := &stubOrdersRepo{}
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_1", map[string]string{
		"order_id": uuid.NewString(),
	})
	err = svc.HandleEvent(context.Background(), event)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestHandleSessionExpired(t *testing.T) {
	t.Parallel()

	order := cardOrder("cs_test_1")
	repo := &stubOrdersRepo{order: order, failMarked: true}
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionExpired, "cs_test_1", map[string]string{
		"order_id": order.ID.String(),
	})
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Equal(t, 1, repo.failures)
}

func TestHandleSessionExpiredAfterCompletionIsNoop(t *testing.T) {
	t.Parallel()

	order := cardOrder("cs_test_1")
	order.PaymentStatus = enums.PaymentStatusCompleted
	repo := &stubOrdersRepo{order: order, failMarked: false}
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionExpired, "cs_test_1", map[string]string{
		"order_id": order.ID.String(),
	})
	require.NoError(t, svc.HandleEvent(context.Background(), event))
}

func TestHandleUnrelatedEventTypeIgnored(t *testing.T) {
	t.Parallel()

	repo := &stubOrdersRepo{}
	svc, err := NewService(ServiceParams{OrdersRepo: repo})
	require.NoError(t, err)

	event := &stripe.Event{
		Type: stripe.EventType("invoice.paid"),
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Zero(t, repo.completions)
	assert.Zero(t, repo.failures)
}

func TestHandleNilEvent(t *testing.T) {
	t.Parallel()

	svc, err := NewService(ServiceParams{OrdersRepo: &stubOrdersRepo{}})
	require.NoError(t, err)

	err = svc.HandleEvent(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), fmt.Sprintf("got %v", err))
}
