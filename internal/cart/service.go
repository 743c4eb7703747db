package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
)

type lineStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	AddQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (int64, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) (int64, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type productCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindApprovedByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Service manages cart lines and produces priced snapshots for checkout.
type Service interface {
	Fetch(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	TakeSnapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error)
}

type service struct {
	repo     lineStore
	products productCatalog
}

// NewService builds the cart service.
func NewService(repo lineStore, products productCatalog) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Fetch(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	lines, resolved, err := s.resolvedLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildCartDTO(lines, resolved), nil
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartDTO, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsApproved {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if product.Stock < quantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested quantity exceeds available stock").
			WithDetails(map[string]any{"available": product.Stock})
	}

	if err := s.repo.AddQuantity(ctx, userID, productID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adding cart line")
	}
	return s.Fetch(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartDTO, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	rows, err := s.repo.SetQuantity(ctx, userID, productID, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart line")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.Fetch(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	rows, err := s.repo.Remove(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart line")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.Fetch(ctx, userID)
}

// TakeSnapshot prices the cart from the live catalog. Lines whose product no
// longer resolves are skipped rather than failing the whole cart; a snapshot
// with no remaining lines is reported as an empty cart.
func (s *service) TakeSnapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	lines, resolved, err := s.resolvedLines(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{Subtotal: decimal.Zero}
	for _, line := range lines {
		product, ok := resolved[line.ProductID]
		if !ok {
			continue
		}
		snapshotLine := SnapshotLine{
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductImage: product.ImageURL,
			UnitPrice:    product.Price,
			Quantity:     line.Quantity,
			WeightKG:     product.WeightKG,
		}
		snapshot.Lines = append(snapshot.Lines, snapshotLine)
		snapshot.Subtotal = snapshot.Subtotal.Add(snapshotLine.LineTotal())
	}

	if len(snapshot.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart has no purchasable items")
	}
	return snapshot, nil
}

func (s *service) resolvedLines(ctx context.Context, userID uuid.UUID) ([]models.CartItem, map[uuid.UUID]models.Product, error) {
	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	resolved, err := s.products.FindApprovedByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return lines, resolved, nil
}

func buildCartDTO(lines []models.CartItem, resolved map[uuid.UUID]models.Product) *CartDTO {
	dto := &CartDTO{Items: []LineDTO{}, Subtotal: decimal.Zero}
	for _, line := range lines {
		product, ok := resolved[line.ProductID]
		if !ok {
			continue
		}
		total := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		dto.Items = append(dto.Items, LineDTO{
			ID:        line.ID,
			ProductID: product.ID,
			Name:      product.Name,
			ImageURL:  product.ImageURL,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
			LineTotal: total,
		})
		dto.Subtotal = dto.Subtotal.Add(total)
	}
	return dto
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return nil
}
