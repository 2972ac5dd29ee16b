// Package pay is the client for the hosted payment processor. Checkout
// sessions are created server-side; the user completes payment on the
// processor's page and the processor confirms via signed webhook.
package pay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"concert-stream/internal/status"
)

type ClientConfig struct {
	BaseURL    string `json:"baseUrl"`
	MerchantID string `json:"merchantId"`
	APIKey     string `json:"apiKey"`
	HMACKey    string `json:"hmacKey"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

type Client struct {
	// baseURL is the base url of the processor API.
	baseURL string

	// merchantID identifies this deployment to the processor.
	merchantID string

	// apiKey authenticates API calls.
	apiKey string

	// hmacKey signs request bodies.
	hmacKey string

	// successURL and cancelURL are where the hosted page redirects.
	successURL string
	cancelURL  string

	// hc is the http client.
	hc *http.Client
}

// Session statuses reported by the processor.
const (
	SessionPending   = "pending"
	SessionCompleted = "completed"
	SessionExpired   = "expired"
)

// Session is a checkout session at the processor.
type Session struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	CheckoutURL   string `json:"checkout_url"`
	TransactionID string `json:"transaction_id"`
}

// CreateSessionRequest carries what the processor needs to render the
// hosted page. UserID and ConcertID come back in the webhook metadata.
type CreateSessionRequest struct {
	UserID    string
	ConcertID string
	Amount    decimal.Decimal
	Currency  string
	Reference string
}

func New(cfg *ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("pay: base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("pay: invalid base url: %w", err)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		merchantID: cfg.MerchantID,
		apiKey:     cfg.APIKey,
		hmacKey:    cfg.HMACKey,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// CreateSession opens a checkout session for one concert ticket.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	payload := map[string]any{
		"merchant_id": c.merchantID,
		"amount":      req.Amount.StringFixed(2),
		"currency":    req.Currency,
		"reference":   req.Reference,
		"success_url": c.successURL,
		"cancel_url":  c.cancelURL,
		"metadata": map[string]string{
			"user_id":    req.UserID,
			"concert_id": req.ConcertID,
		},
	}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", payload, &session); err != nil {
		return nil, fmt.Errorf("pay: create session: %w", err)
	}
	return &session, nil
}

// VerifySession fetches the current state of a checkout session. The
// caller uses it to reconcile a pending ticket when the webhook was lost.
func (c *Client) VerifySession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil, &session)
	if err != nil {
		return nil, fmt.Errorf("pay: verify session %s: %w", sessionID, err)
	}
	return &session, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("SignedHash", Sign(body, []byte(c.hmacKey)))

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return status.ErrSessionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("processor returned %s: %s", resp.Status, b)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
