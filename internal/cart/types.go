package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineDTO is a cart line joined with the current product facts.
type LineDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  *string         `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartDTO is the full cart view returned to clients.
type CartDTO struct {
	Items    []LineDTO       `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// SnapshotLine is a cart line with its price resolved from the catalog at
// snapshot time. This is the only shape checkout ever prices from.
type SnapshotLine struct {
	ProductID    uuid.UUID
	ProductName  string
	ProductImage *string
	UnitPrice    decimal.Decimal
	Quantity     int
	WeightKG     decimal.Decimal
}

// LineTotal returns unit price times quantity.
func (l SnapshotLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is the priced view of a cart taken at one instant.
type Snapshot struct {
	Lines    []SnapshotLine
	Subtotal decimal.Decimal
}
