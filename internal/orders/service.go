package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
)

type orderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
}

// Service exposes customer-facing order reads.
type Service interface {
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
}

type service struct {
	repo orderStore
}

// NewService builds the order read service.
func NewService(repo orderStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

// Get loads one order and enforces that the caller owns it.
func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return ToDTO(order), nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]OrderDTO, 0, len(records))
	for i := range records {
		result = append(result, *ToDTO(&records[i]))
	}
	return result, nil
}
