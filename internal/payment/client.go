// Package payment is the HTTP client for the external payment-session
// service. The service creates a hosted checkout session for a persisted
// booking and returns the redirect target the customer is handed to.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNoRedirect is returned when the service answers 200 without a
// redirect URL.
var ErrNoRedirect = errors.New("payment: session created without redirect url")

// SessionRequest carries what the service needs to build a checkout page.
type SessionRequest struct {
	BookingID     int64   `json:"booking_id"`
	Reference     string  `json:"reference"`
	CustomerEmail string  `json:"customer_email"`
	CustomerName  string  `json:"customer_name"`
	TotalAmount   float64 `json:"total_amount"`
	Currency      string  `json:"currency"`
}

// Session is the created checkout session.
type Session struct {
	RedirectURL string `json:"redirect_url"`
}

// Client talks to the payment-session endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a payment client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// CreateSession asks the service for a checkout session.
//
// POST {base}/v1/checkout/sessions
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("payment: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("payment: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payment: unexpected status %d", resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("payment: malformed response: %w", err)
	}
	if session.RedirectURL == "" {
		return nil, ErrNoRedirect
	}
	return &session, nil
}
