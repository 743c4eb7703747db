package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdirect/farmdirect-backend/pkg/config"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/logger"
)

const (
	defaultTimeout = 10 * time.Second
	currencyINR    = "INR"
)

var (
	errKeyIDRequired         = errors.New("razorpay key id is required")
	errKeySecretRequired     = errors.New("razorpay key secret is required")
	errWebhookSecretRequired = errors.New("razorpay webhook secret is required")
	errPayeeVPARequired      = errors.New("razorpay payee vpa is required")
)

var minorUnitFactor = decimal.NewFromInt(100)

// RemoteOrder is the provider-side order created for a local checkout.
type RemoteOrder struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

type apiErrorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Client wraps the Razorpay Orders API plus the UPI intent-link and
// signature primitives. All credentials come from configuration; the client
// refuses to construct without them.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
	payeeVPA      string
	payeeName     string
	logger        *logger.Logger
}

// NewClient validates the configured credentials and builds the rail client.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}
	payeeVPA := strings.TrimSpace(cfg.PayeeVPA)
	if payeeVPA == "" {
		return nil, errPayeeVPARequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		payeeVPA:      payeeVPA,
		payeeName:     strings.TrimSpace(cfg.PayeeName),
		logger:        logg,
	}

	if logg != nil {
		logg.Info(ctx, "razorpay client initialized")
	}
	return c, nil
}

// KeyID returns the public key identifier handed to clients.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// WebhookSecret returns the webhook signing secret.
func (c *Client) WebhookSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// MinorUnits converts a decimal rupee amount into paise. The conversion
// rounds to the nearest integer to avoid float drift and rejects any result
// that is not strictly positive: a zero-amount provider order would be a
// security bug, not a degenerate sale.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(minorUnitFactor).Round(0)
	if !minor.IsPositive() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("payment amount must be positive, got %s", amount.String()))
	}
	return minor.IntPart(), nil
}

// CreateOrder creates the provider-side payment order for the given amount.
// Transport errors, timeouts, and non-2xx responses all surface as
// CodeDependency so callers treat the rail as one failure domain.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt, description string) (*RemoteOrder, error) {
	minor, err := MinorUnits(amount)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"amount":   minor,
		"currency": currencyINR,
		"receipt":  receipt,
		"notes":    map[string]string{"description": description},
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode razorpay order request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(encoded))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build razorpay order request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	c.log(ctx, "request", "create_order", map[string]any{"receipt": receipt, "amount_minor": minor})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "razorpay create order failed")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read razorpay response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		description := providerErrorDescription(payload)
		c.log(ctx, "error", "create_order", map[string]any{"status": resp.StatusCode, "provider_error": description})
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("razorpay create order failed: %s", description)).
			WithDetails(map[string]any{"provider_status": resp.StatusCode})
	}

	var remote RemoteOrder
	if err := json.Unmarshal(payload, &remote); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode razorpay order response")
	}
	if remote.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "razorpay order response missing id")
	}

	c.log(ctx, "response", "create_order", map[string]any{"remote_order_id": remote.ID, "status": remote.Status})
	return &remote, nil
}

// IntentLink builds the UPI deep link a wallet app opens to authorize the
// payment. Pure and deterministic: no network call, same inputs same link.
func (c *Client) IntentLink(orderID uuid.UUID, amount decimal.Decimal) string {
	params := url.Values{}
	params.Set("pa", c.payeeVPA)
	params.Set("pn", c.payeeName)
	params.Set("am", amount.StringFixed(2))
	params.Set("cu", currencyINR)
	params.Set("tn", "FarmDirect order "+shortRef(orderID))
	params.Set("tr", orderID.String())
	return "upi://pay?" + params.Encode()
}

// VerifyPaymentSignature checks the client-supplied signature against
// HMAC-SHA256(keySecret, "<remoteOrderID>|<paymentID>"). It never returns an
// error: any malformed input compares as not-verified.
func (c *Client) VerifyPaymentSignature(remoteOrderID, paymentID, signature string) bool {
	if c == nil || remoteOrderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(remoteOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks a webhook delivery's signature against
// HMAC-SHA256(webhookSecret, rawBody). Same contract as the payment variant:
// malformed input compares as not-verified.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if c == nil || len(body) == 0 || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func providerErrorDescription(payload []byte) string {
	var body apiErrorBody
	if err := json.Unmarshal(payload, &body); err == nil && body.Error.Description != "" {
		return body.Error.Description
	}
	return "provider returned an error"
}

func shortRef(id uuid.UUID) string {
	s := id.String()
	if len(s) >= 8 {
		return s[:8]
	}
	return s
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("razorpay %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("razorpay %s", phase))
	}
}
