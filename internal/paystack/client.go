// Package paystack provides a client for the Paystack transaction API.
package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kasuwaapp/kasuwa/internal/money"
	"github.com/kasuwaapp/kasuwa/internal/observability"
)

const (
	DefaultBaseURL = "https://api.paystack.co"

	defaultTimeout = 10 * time.Second

	// StatusSuccess is the only transaction status that settles an order.
	StatusSuccess = "success"
)

var (
	// ErrUnavailable marks transport-level failures: timeouts, connection
	// errors, and gateway 5xx responses. Callers may retry.
	ErrUnavailable = errors.New("paystack unavailable")

	// ErrTransactionNotFound means Paystack does not know the reference.
	ErrTransactionNotFound = errors.New("paystack transaction not found")
)

// Transaction is the gateway's authoritative record of a payment.
// Amount is reported in the currency's minor unit. PaidAt is zero when
// the gateway did not report a settlement time.
type Transaction struct {
	ID            int64
	Status        string
	Reference     string
	Amount        money.Cents
	Currency      string
	Channel       string
	CustomerEmail string
	PaidAt        time.Time
}

func (t *Transaction) Succeeded() bool {
	return t != nil && t.Status == StatusSuccess
}

type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func NewClient(secretKey string, opts ...Option) *Client {
	c := &Client{
		secretKey:  secretKey,
		baseURL:    DefaultBaseURL,
		httpClient: observability.NewHTTPClient(defaultTimeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID        int64  `json:"id"`
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
		Channel   string `json:"channel"`
		PaidAt    string `json:"paid_at"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// VerifyTransaction asks Paystack for the authoritative outcome of the
// transaction identified by reference. The client's own claim of
// success is never consulted.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	if reference == "" {
		return nil, fmt.Errorf("transaction reference is required")
	}

	endpoint := fmt.Sprintf("%s/transaction/verify/%s", c.baseURL, url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: gateway returned status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, reference)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("paystack verify returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}
	if !payload.Status {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, payload.Message)
	}

	return &Transaction{
		ID:            payload.Data.ID,
		Status:        payload.Data.Status,
		Reference:     payload.Data.Reference,
		Amount:        money.FromMinorUnits(payload.Data.Amount),
		Currency:      payload.Data.Currency,
		Channel:       payload.Data.Channel,
		CustomerEmail: payload.Data.Customer.Email,
		PaidAt:        parsePaidAt(payload.Data.PaidAt),
	}, nil
}

// parsePaidAt tolerates both timestamp shapes Paystack emits. An
// unparseable or empty value comes back zero and the caller falls back
// to its own clock.
func parsePaidAt(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05Z0700"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
