package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	"github.com/farmdirect/farmdirect-backend/pkg/types"
)

// ItemDTO is a frozen order line as returned to clients.
type ItemDTO struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage *string         `json:"product_image,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
}

// OrderDTO is the client view of an order.
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	DeliveryFee     decimal.Decimal       `json:"delivery_fee"`
	Status          enums.OrderStatus     `json:"status"`
	PaymentStatus   enums.PaymentStatus   `json:"payment_status"`
	PaymentMethod   enums.PaymentMethod   `json:"payment_method"`
	DeliveryAddress types.DeliveryAddress `json:"delivery_address"`
	DeliverySlot    string                `json:"delivery_slot"`
	Items           []ItemDTO             `json:"items"`
	CreatedAt       time.Time             `json:"created_at"`
}

// ToDTO maps the persistence model to the client view.
func ToDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:            order.ID,
		TotalAmount:   order.TotalAmount,
		DeliveryFee:   order.DeliveryFee,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		PaymentMethod: order.PaymentMethod,
		DeliveryAddress: types.DeliveryAddress{
			Line1:   order.DeliveryLine1,
			City:    order.DeliveryCity,
			State:   order.DeliveryState,
			Pincode: order.DeliveryPincode,
		},
		DeliverySlot: order.DeliverySlot,
		Items:        []ItemDTO{},
		CreatedAt:    order.CreatedAt,
	}
	if order.DeliveryLine2 != nil {
		dto.DeliveryAddress.Line2 = *order.DeliveryLine2
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			Price:        item.Price,
			Quantity:     item.Quantity,
		})
	}
	return dto
}
