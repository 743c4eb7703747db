package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordersvc "github.com/farmdirect/farmdirect-backend/internal/orders"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
)

type stubOrdersService struct {
	dto  *ordersvc.OrderDTO
	list []ordersvc.OrderDTO
	err  error
}

func (s *stubOrdersService) Get(context.Context, uuid.UUID, uuid.UUID) (*ordersvc.OrderDTO, error) {
	return s.dto, s.err
}

func (s *stubOrdersService) List(context.Context, uuid.UUID) ([]ordersvc.OrderDTO, error) {
	return s.list, s.err
}

func ordersRouter(svc ordersvc.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/orders", OrderList(svc, nil))
	r.Get("/orders/{orderId}", OrderDetail(svc, nil))
	return r
}

func TestOrderListReturnsOrders(t *testing.T) {
	t.Parallel()

	svc := &stubOrdersService{list: []ordersvc.OrderDTO{
		{ID: uuid.New(), TotalAmount: decimal.RequireFromString("258.00")},
	}}
	rec := httptest.NewRecorder()
	ordersRouter(svc).ServeHTTP(rec, authedRequest("GET", "/orders", "", uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), svc.list[0].ID.String())
}

func TestOrderDetailForeignOrder(t *testing.T) {
	t.Parallel()

	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")}
	rec := httptest.NewRecorder()
	ordersRouter(svc).ServeHTTP(rec, authedRequest("GET", "/orders/"+uuid.NewString(), "", uuid.New()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrderDetailRejectsMalformedID(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ordersRouter(&stubOrdersService{}).ServeHTTP(rec, authedRequest("GET", "/orders/not-a-uuid", "", uuid.New()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
