package stripe

import (
	"context"
	"errors"
	"net/http"
	"time"

	"booking-system/internal/services/payments"
)

// DefaultBaseURL is the live API host. Tests point BaseURL at an httptest
// server instead.
const DefaultBaseURL = "https://api.stripe.com"

type Config struct {
	// SecretKey is the API secret key (sk_...).
	SecretKey string `json:"secretKey" mapstructure:"secret_key"`

	// WebhookSecret signs webhook payloads (whsec_...).
	WebhookSecret string `json:"webhookSecret" mapstructure:"webhook_secret"`

	// BaseURL overrides the API host.
	BaseURL string `json:"baseUrl" mapstructure:"base_url"`

	// Timeout bounds each API call.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

type Client struct {
	// baseURL is the API host, without trailing slash.
	baseURL string

	// secretKey authenticates API calls via bearer auth.
	secretKey string

	// webhookSecret verifies incoming webhook signatures.
	webhookSecret string

	// hc is the http client.
	hc *http.Client
}

var _ payments.Provider = (*Client)(nil)

// New returns a configured client. Unlike token-based providers there is no
// connect handshake; the secret key authenticates every call directly.
func New(_ context.Context, cfg *Config) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:       baseURL,
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		hc: &http.Client{
			Timeout: timeout,
		},
	}, nil
}
