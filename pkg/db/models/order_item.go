package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a frozen snapshot of product facts at purchase time. Later
// product edits or deletion never alter it.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName  string          `gorm:"column:product_name;not null"`
	ProductImage *string         `gorm:"column:product_image"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	WeightKG     decimal.Decimal `gorm:"column:weight_kg;type:numeric(8,3);not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
