// Package backend submits the aggregate basket to the legacy ordering system.
//
// The legacy backend is not idempotent by itself, so every submission carries
// an idempotency token; the same token must be reused on retries after an
// unknown outcome so the backend (or the orchestrator's own completion write)
// can de-duplicate.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Line is one flattened item in the external basket. Identical configurations
// from different participants stay separate lines so the per-participant audit
// survives in the shipped order.
type Line struct {
	ParticipantID string   `json:"participant_id"`
	ItemID        string   `json:"item_id"`
	Category      string   `json:"category"`
	Code          string   `json:"code,omitempty"`
	Size          string   `json:"size,omitempty"`
	Components    []string `json:"components,omitempty"`
	Modifiers     []string `json:"modifiers,omitempty"`
	Toppings      []string `json:"toppings,omitempty"`
	Note          string   `json:"note,omitempty"`
	Quantity      int      `json:"quantity"`
}

// DeliveryDetails carries the customer/address information the leader supplies
// at submission time.
type DeliveryDetails struct {
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	Street       string `json:"street"`
	City         string `json:"city"`
	Notes        string `json:"notes,omitempty"`
}

// Basket is the single external order assembled from all participant baskets.
type Basket struct {
	GroupOrderID string          `json:"group_order_id"`
	Delivery     DeliveryDetails `json:"delivery"`
	DeliveryFee  float64         `json:"delivery_fee"`
	Lines        []Line          `json:"lines"`
}

// Receipt is the backend's acknowledgement of an accepted order.
type Receipt struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
}

// Client submits one basket to the external ordering backend.
type Client interface {
	Submit(ctx context.Context, basket Basket, idempotencyToken string) (Receipt, error)
}

// RejectedError is a known rejection: the backend understood the request and
// refused it. Safe to fix and retry.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("backend rejected submission (status %d): %s", e.StatusCode, e.Message)
}

// UnknownOutcomeError covers timeouts, transport failures and backend 5xx:
// the order may or may not have been delivered. Retrying is only safe with
// the same idempotency token.
type UnknownOutcomeError struct {
	Err error
}

func (e *UnknownOutcomeError) Error() string {
	return fmt.Sprintf("backend submission outcome unknown: %v", e.Err)
}

func (e *UnknownOutcomeError) Unwrap() error { return e.Err }

// HTTPClient is the JSON-over-HTTP implementation of Client.
type HTTPClient struct {
	url    string
	client *http.Client
}

// NewHTTPClient creates a client for the given submission URL with a bounded
// request timeout.
func NewHTTPClient(url string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Submit posts the basket exactly once. The idempotency token travels in the
// X-Idempotency-Key header.
func (c *HTTPClient) Submit(ctx context.Context, basket Basket, idempotencyToken string) (Receipt, error) {
	payload, err := json.Marshal(basket)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to encode basket: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", idempotencyToken)

	resp, err := c.client.Do(req)
	if err != nil {
		// Timeout or transport failure: the request may have been delivered.
		return Receipt{}, &UnknownOutcomeError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var receipt Receipt
		if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
			// Accepted but the acknowledgement is unreadable: treat as unknown
			// so the retry reuses the token.
			return Receipt{}, &UnknownOutcomeError{Err: fmt.Errorf("failed to decode receipt: %w", err)}
		}
		return receipt, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Receipt{}, &RejectedError{StatusCode: resp.StatusCode, Message: string(body)}
	default:
		return Receipt{}, &UnknownOutcomeError{Err: fmt.Errorf("backend returned status %d", resp.StatusCode)}
	}
}
