package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentsvc "github.com/farmdirect/farmdirect-backend/internal/payments"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/types"
)

type stubPaymentsService struct {
	verifyResult *paymentsvc.VerifyResult
	verifyErr    error
	lastVerify   paymentsvc.VerifyInput
	qr           *paymentsvc.QRCodeDTO
	qrErr        error
	status       *paymentsvc.StatusDTO
	statusErr    error
}

func (s *stubPaymentsService) Verify(_ context.Context, _ uuid.UUID, input paymentsvc.VerifyInput) (*paymentsvc.VerifyResult, error) {
	s.lastVerify = input
	return s.verifyResult, s.verifyErr
}

func (s *stubPaymentsService) QRCode(context.Context, uuid.UUID, uuid.UUID) (*paymentsvc.QRCodeDTO, error) {
	return s.qr, s.qrErr
}

func (s *stubPaymentsService) Status(context.Context, uuid.UUID, uuid.UUID) (*paymentsvc.StatusDTO, error) {
	return s.status, s.statusErr
}

func paymentsRouter(svc paymentsvc.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/payments/verify", PaymentVerify(svc, nil))
	r.Get("/payments/{orderId}/qr-code", PaymentQRCode(svc, nil))
	r.Get("/payments/{orderId}/status", PaymentStatus(svc, nil))
	return r
}

func TestPaymentVerifyMapsRequestFields(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	svc := &stubPaymentsService{verifyResult: &paymentsvc.VerifyResult{
		OrderID:   orderID,
		PaymentID: "pay_1",
		Message:   "payment verified",
	}}

	body := `{
		"order_id": "` + orderID.String() + `",
		"razorpay_order_id": "order_remote_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature": "deadbeef"
	}`
	rec := httptest.NewRecorder()
	paymentsRouter(svc).ServeHTTP(rec, authedRequest("POST", "/payments/verify", body, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, orderID, svc.lastVerify.OrderID)
	assert.Equal(t, "order_remote_1", svc.lastVerify.RemoteOrderID)
	assert.Equal(t, "pay_1", svc.lastVerify.PaymentID)
	assert.Equal(t, "deadbeef", svc.lastVerify.Signature)
}

func TestPaymentVerifyRejectsIncompleteProof(t *testing.T) {
	t.Parallel()

	svc := &stubPaymentsService{}
	body := `{"order_id": "` + uuid.NewString() + `", "razorpay_order_id": "order_remote_1"}`
	rec := httptest.NewRecorder()
	paymentsRouter(svc).ServeHTTP(rec, authedRequest("POST", "/payments/verify", body, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.lastVerify.RemoteOrderID, "incomplete proof must not reach the service")
}

func TestPaymentVerifySignatureMismatchStatus(t *testing.T) {
	t.Parallel()

	svc := &stubPaymentsService{verifyErr: pkgerrors.New(pkgerrors.CodeSignature, "payment signature verification failed")}
	body := `{
		"order_id": "` + uuid.NewString() + `",
		"razorpay_order_id": "order_remote_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature": "forged"
	}`
	rec := httptest.NewRecorder()
	paymentsRouter(svc).ServeHTTP(rec, authedRequest("POST", "/payments/verify", body, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "SIGNATURE_MISMATCH", envelope.Error.Code)
}

func TestPaymentQRCodePayload(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	svc := &stubPaymentsService{qr: &paymentsvc.QRCodeDTO{
		OrderID:       orderID,
		RemoteOrderID: "order_remote_1",
		Amount:        decimal.RequireFromString("258.00"),
		Currency:      "INR",
		IntentLink:    "upi://pay?tr=" + orderID.String(),
	}}

	rec := httptest.NewRecorder()
	paymentsRouter(svc).ServeHTTP(rec, authedRequest("GET", "/payments/"+orderID.String()+"/qr-code", "", uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "upi://pay?")
}

func TestPaymentStatusForeignOrder(t *testing.T) {
	t.Parallel()

	svc := &stubPaymentsService{statusErr: pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")}
	rec := httptest.NewRecorder()
	paymentsRouter(svc).ServeHTTP(rec, authedRequest("GET", "/payments/"+uuid.NewString()+"/status", "", uuid.New()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPaymentStatusReturnsBothAxes(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	svc := &stubPaymentsService{status: &paymentsvc.StatusDTO{
		OrderID:       orderID,
		Status:        enums.OrderStatusConfirmed,
		PaymentStatus: enums.PaymentStatusCompleted,
	}}

	rec := httptest.NewRecorder()
	paymentsRouter(svc).ServeHTTP(rec, authedRequest("GET", "/payments/"+orderID.String()+"/status", "", uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "confirmed", envelope.Data["status"])
	assert.Equal(t, "completed", envelope.Data["payment_status"])
}

type stubKeyProviders struct{}

func (stubKeyProviders) PublishableKey() string { return "pk_test_123" }
func (stubKeyProviders) KeyID() string          { return "rzp_test_123" }

func TestPaymentConfigExposesPublicKeysOnly(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	PaymentConfig(stubKeyProviders{}, stubKeyProviders{}, nil).
		ServeHTTP(rec, httptest.NewRequest("GET", "/payments/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "pk_test_123", envelope.Data["stripe_publishable_key"])
	assert.Equal(t, "rzp_test_123", envelope.Data["razorpay_key_id"])
	assert.Len(t, envelope.Data, 2, "config must never leak secrets")
}
