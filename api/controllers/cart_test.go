package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmdirect/farmdirect-backend/api/middleware"
	cartsvc "github.com/farmdirect/farmdirect-backend/internal/cart"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/types"
)

type stubCartService struct {
	dto        *cartsvc.CartDTO
	err        error
	addCalls   int
	lastUserID uuid.UUID
	lastQty    int
}

func (s *stubCartService) Fetch(_ context.Context, userID uuid.UUID) (*cartsvc.CartDTO, error) {
	s.lastUserID = userID
	return s.dto, s.err
}

func (s *stubCartService) AddItem(_ context.Context, userID, _ uuid.UUID, quantity int) (*cartsvc.CartDTO, error) {
	s.addCalls++
	s.lastUserID = userID
	s.lastQty = quantity
	return s.dto, s.err
}

func (s *stubCartService) UpdateItem(_ context.Context, userID, _ uuid.UUID, quantity int) (*cartsvc.CartDTO, error) {
	s.lastUserID = userID
	s.lastQty = quantity
	return s.dto, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, userID, _ uuid.UUID) (*cartsvc.CartDTO, error) {
	s.lastUserID = userID
	return s.dto, s.err
}

func (s *stubCartService) TakeSnapshot(context.Context, uuid.UUID) (*cartsvc.Snapshot, error) {
	return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart has no purchasable items")
}

func cartRouter(svc cartsvc.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/cart", CartFetch(svc, nil))
	r.Post("/cart", CartAdd(svc, nil))
	r.Patch("/cart/{productId}", CartUpdate(svc, nil))
	r.Delete("/cart/{productId}", CartRemove(svc, nil))
	return r
}

func authedRequest(method, target string, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func TestCartFetchReturnsCart(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := &stubCartService{dto: &cartsvc.CartDTO{
		Items:    []cartsvc.LineDTO{{ProductID: uuid.New(), Name: "Alphonso Mango", UnitPrice: decimal.RequireFromString("85.00"), Quantity: 2}},
		Subtotal: decimal.RequireFromString("170.00"),
	}}

	rec := httptest.NewRecorder()
	cartRouter(svc).ServeHTTP(rec, authedRequest("GET", "/cart", "", userID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, svc.lastUserID)
	assert.Contains(t, rec.Body.String(), "Alphonso Mango")
}

func TestCartFetchWithoutUserContext(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	cartRouter(&stubCartService{dto: &cartsvc.CartDTO{}}).ServeHTTP(rec, httptest.NewRequest("GET", "/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartAddValidatesPayload(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{dto: &cartsvc.CartDTO{}}
	handler := cartRouter(svc)

	tests := []struct {
		name string
		body string
	}{
		{"missing product", `{"quantity":1}`},
		{"zero quantity", `{"product_id":"` + uuid.NewString() + `","quantity":0}`},
		{"unknown field", `{"product_id":"` + uuid.NewString() + `","quantity":1,"price":10}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, authedRequest("POST", "/cart", tc.body, uuid.New()))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Zero(t, svc.addCalls, "invalid payloads must not reach the service")
}

func TestCartAddHappyPath(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{dto: &cartsvc.CartDTO{}}
	rec := httptest.NewRecorder()
	body := `{"product_id":"` + uuid.NewString() + `","quantity":3}`
	cartRouter(svc).ServeHTTP(rec, authedRequest("POST", "/cart", body, uuid.New()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.addCalls)
	assert.Equal(t, 3, svc.lastQty)
}

func TestCartUpdateRejectsBadProductID(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	cartRouter(&stubCartService{dto: &cartsvc.CartDTO{}}).
		ServeHTTP(rec, authedRequest("PATCH", "/cart/not-a-uuid", `{"quantity":2}`, uuid.New()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartRemoveMissingLine(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")}
	rec := httptest.NewRecorder()
	cartRouter(svc).ServeHTTP(rec, authedRequest("DELETE", "/cart/"+uuid.NewString(), "", uuid.New()))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var envelope types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}
