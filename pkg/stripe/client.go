package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	"github.com/farmdirect/farmdirect-backend/pkg/config"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"

	checkoutCurrency = "inr"
)

// MetadataOrderID is the metadata key carrying the local order id on every
// checkout session, so webhook events can be correlated back to an order.
const MetadataOrderID = "order_id"

var (
	errAPIKeyRequired         = errors.New("stripe api key is required")
	errSecretRequired         = errors.New("stripe webhook secret is required")
	errPublishableKeyRequired = errors.New("stripe publishable key is required")
	errRedirectBaseRequired   = errors.New("stripe redirect base url is required")
	errInvalidStripeEnv       = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

var minorUnitFactor = decimal.NewFromInt(100)

// CheckoutSession is the subset of the hosted session handed back to clients.
type CheckoutSession struct {
	ID  string
	URL string
}

type sessionCreator func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

// Client wraps Stripe's API client plus env-specific metadata.
type Client struct {
	environment    string
	signingSecret  string
	publishableKey string
	redirectBase   string
	createSession  sessionCreator
	logger         *logger.Logger
}

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	signingSecret := strings.TrimSpace(cfg.Secret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}

	publishableKey := strings.TrimSpace(cfg.PublishableKey)
	if publishableKey == "" {
		return nil, errPublishableKeyRequired
	}

	redirectBase := strings.TrimRight(strings.TrimSpace(cfg.RedirectBase), "/")
	if redirectBase == "" {
		return nil, errRedirectBaseRequired
	}

	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{
		environment:    env,
		signingSecret:  signingSecret,
		publishableKey: publishableKey,
		redirectBase:   redirectBase,
		createSession:  session.New,
		logger:         logg,
	}, nil
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// PublishableKey returns the public key handed to browser clients.
func (c *Client) PublishableKey() string {
	if c == nil {
		return ""
	}
	return c.publishableKey
}

// CreateCheckoutSession opens a hosted payment page for the given order.
// The local order id rides along as session metadata so the webhook can find
// the order without trusting anything client-supplied.
func (c *Client) CreateCheckoutSession(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, description string) (*CheckoutSession, error) {
	minor := amount.Mul(minorUnitFactor).Round(0)
	if !minor.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("payment amount must be positive, got %s", amount.String()))
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(checkoutCurrency),
					UnitAmount: stripe.Int64(minor.IntPart()),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			MetadataOrderID: orderID.String(),
		},
		SuccessURL: stripe.String(c.redirectBase + "/payment/success?order_id=" + orderID.String() + "&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(c.redirectBase + "/payment/cancelled?order_id=" + orderID.String()),
	}
	params.Context = ctx

	created, err := c.createSession(params)
	if err != nil {
		if c.logger != nil {
			c.logger.Error(ctx, "stripe create checkout session", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe create checkout session failed")
	}
	if created == nil || created.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe session response missing id")
	}

	return &CheckoutSession{ID: created.ID, URL: created.URL}, nil
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
