package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product carries the authoritative catalog facts. Catalog management is
// owned by the farmer/admin surfaces; checkout reads it and never writes.
type Product struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FarmerID   uuid.UUID       `gorm:"column:farmer_id;type:uuid;not null"`
	Name       string          `gorm:"column:name;not null"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock      int             `gorm:"column:stock;not null;default:0"`
	WeightKG   decimal.Decimal `gorm:"column:weight_kg;type:numeric(8,3);not null;default:0"`
	ImageURL   *string         `gorm:"column:image_url"`
	IsApproved bool            `gorm:"column:is_approved;not null;default:false"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
