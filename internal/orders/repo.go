package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
)

// repository is the gorm-backed Repository. Status changes go through the
// guarded update methods so an order can never be confirmed twice.
type repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order header.
func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}
	return order, nil
}

// CreateItems inserts the frozen order lines.
func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order items")
	}
	return nil
}

// FindByID loads an order with its items.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return &order, nil
}

// FindByRazorpayOrderID correlates a provider order id back to the local order.
func (r *repository) FindByRazorpayOrderID(ctx context.Context, remoteOrderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("razorpay_order_id = ?", remoteOrderID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return &order, nil
}

// FindByStripeSessionID correlates a hosted session id back to the local order.
func (r *repository) FindByStripeSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("stripe_session_id = ?", sessionID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first, items included.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var records []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return records, nil
}

// AttachRazorpayOrder stores the provider order id on the local order.
func (r *repository) AttachRazorpayOrder(ctx context.Context, orderID uuid.UUID, remoteOrderID string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("razorpay_order_id", remoteOrderID).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attaching razorpay order")
	}
	return nil
}

// AttachStripeSession stores the hosted session id on the local order.
func (r *repository) AttachStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("stripe_session_id", sessionID).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attaching stripe session")
	}
	return nil
}

// PaymentCompletion carries the rail identifiers recorded when a payment
// lands.
type PaymentCompletion struct {
	RazorpayPaymentID *string
	RazorpaySignature *string
}

// MarkPaymentCompleted flips payment_status to completed and status to
// confirmed in one guarded update. The pending predicate makes the
// transition apply at most once; callers get back whether this call won.
func (r *repository) MarkPaymentCompleted(ctx context.Context, orderID uuid.UUID, completion PaymentCompletion) (bool, error) {
	updates := map[string]any{
		"payment_status": enums.PaymentStatusCompleted,
		"status":         enums.OrderStatusConfirmed,
	}
	if completion.RazorpayPaymentID != nil {
		updates["razorpay_payment_id"] = *completion.RazorpayPaymentID
	}
	if completion.RazorpaySignature != nil {
		updates["razorpay_signature"] = *completion.RazorpaySignature
	}

	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, enums.PaymentStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "completing payment")
	}
	return result.RowsAffected > 0, nil
}

// MarkPaymentFailed records a failed payment attempt. Orders that already
// completed are left untouched.
func (r *repository) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, enums.PaymentStatusPending).
		Update("payment_status", enums.PaymentStatusFailed)
	if result.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "failing payment")
	}
	return result.RowsAffected > 0, nil
}
