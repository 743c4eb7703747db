package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
)

// Repository abstracts order persistence so services can run inside or
// outside a transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByRazorpayOrderID(ctx context.Context, remoteOrderID string) (*models.Order, error)
	FindByStripeSessionID(ctx context.Context, sessionID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	AttachRazorpayOrder(ctx context.Context, orderID uuid.UUID, remoteOrderID string) error
	AttachStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	MarkPaymentCompleted(ctx context.Context, orderID uuid.UUID, completion PaymentCompletion) (bool, error)
	MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) (bool, error)
}
