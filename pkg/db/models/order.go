package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdirect/farmdirect-backend/pkg/enums"
)

// Order is the immutable record produced from a cart at checkout. The total
// and the delivery fields are frozen at creation; only the two status axes
// and the rail correlation columns change afterwards.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DeliveryFee   decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`

	// Delivery destination, copied by value at checkout.
	DeliveryLine1   string  `gorm:"column:delivery_line1;not null"`
	DeliveryLine2   *string `gorm:"column:delivery_line2"`
	DeliveryCity    string  `gorm:"column:delivery_city;not null"`
	DeliveryState   string  `gorm:"column:delivery_state;not null"`
	DeliveryPincode string  `gorm:"column:delivery_pincode;not null"`
	DeliverySlot    string  `gorm:"column:delivery_slot;not null"`

	// Rail correlation identifiers.
	RazorpayOrderID   *string `gorm:"column:razorpay_order_id;uniqueIndex"`
	RazorpayPaymentID *string `gorm:"column:razorpay_payment_id"`
	RazorpaySignature *string `gorm:"column:razorpay_signature"`
	StripeSessionID   *string `gorm:"column:stripe_session_id;uniqueIndex"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}
