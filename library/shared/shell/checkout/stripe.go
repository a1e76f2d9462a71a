package checkout

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
)

const (
	// DefaultStripeBaseURL is the Stripe API endpoint.
	DefaultStripeBaseURL = stripe.APIURL

	// DefaultCurrency is the currency of every checkout line item.
	DefaultCurrency = "usd"

	defaultTimeout = 10 * time.Second
)

var (
	// ErrEmptySecretKey is returned when a StripeClient is created without a secret key.
	ErrEmptySecretKey = errors.New("stripe secret key must not be empty")

	// ErrEmptySessionID is returned by GetSession for an empty session id.
	ErrEmptySessionID = errors.New("session id must not be empty")
)

// StripeClient talks to the Stripe Checkout API through stripe-go.
// Network retries are disabled: callers decide how to treat an unavailable provider.
type StripeClient struct {
	sessions   session.Client
	baseURL    string
	httpClient *http.Client
}

// StripeOption configures a StripeClient.
type StripeOption func(*StripeClient)

// WithBaseURL points the client to another API endpoint, e.g. a test server.
func WithBaseURL(baseURL string) StripeOption {
	return func(c *StripeClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the default HTTP client with its 10 second timeout.
func WithHTTPClient(httpClient *http.Client) StripeOption {
	return func(c *StripeClient) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewStripeClient creates a StripeClient authenticating with secretKey.
func NewStripeClient(secretKey string, options ...StripeOption) (*StripeClient, error) {
	if secretKey == "" {
		return nil, ErrEmptySecretKey
	}

	client := &StripeClient{
		baseURL:    DefaultStripeBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, option := range options {
		option(client)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(client.baseURL),
		HTTPClient:        client.httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})

	client.sessions = session.Client{B: backend, Key: secretKey}

	return client, nil
}

// CreateSession opens a checkout session for one line item paid by card.
func (c *StripeClient) CreateSession(ctx context.Context, params CreateSessionParams) (Session, error) {
	currency := params.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	quantity := params.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(params.UnitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(params.ProductName),
					},
				},
				Quantity: stripe.Int64(quantity),
			},
		},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	sessionParams.Context = ctx

	if !params.ExpiresAt.IsZero() {
		sessionParams.ExpiresAt = stripe.Int64(params.ExpiresAt.Unix())
	}

	if params.IdempotencyKey != "" {
		sessionParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	created, err := c.sessions.New(sessionParams)
	if err != nil {
		return Session{}, errors.Join(core.ErrProviderUnavailable, pkgerrors.Wrap(err, "create checkout session"))
	}

	return toSession(created), nil
}

// GetSession fetches the current state of a checkout session.
func (c *StripeClient) GetSession(ctx context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, ErrEmptySessionID
	}

	sessionParams := &stripe.CheckoutSessionParams{}
	sessionParams.Context = ctx

	found, err := c.sessions.Get(sessionID, sessionParams)
	if err != nil {
		return Session{}, errors.Join(core.ErrProviderUnavailable, pkgerrors.Wrap(err, "retrieve checkout session"))
	}

	return toSession(found), nil
}

func toSession(s *stripe.CheckoutSession) Session {
	result := Session{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		Status:        string(s.Status),
	}

	if s.ExpiresAt > 0 {
		result.ExpiresAt = time.Unix(s.ExpiresAt, 0).UTC()
	}

	return result
}

var _ Provider = (*StripeClient)(nil)
