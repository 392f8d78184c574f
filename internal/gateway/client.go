// Package gateway talks to the external payment gateway that collects
// top-up money on our behalf. Only order creation flows outward; settlement
// comes back through the signed webhook.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tundesanni/paylite/internal/domain"
	"github.com/tundesanni/paylite/internal/logging"
)

type Client struct {
	baseURL    string
	keyID      string
	httpClient *http.Client
}

func NewClient(baseURL, keyID string) *Client {
	return &Client{
		baseURL: baseURL,
		keyID:   keyID,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type createOrderPayload struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type createOrderResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers an order with the gateway and returns the gateway's
// order id. Amount is in minor units, as the gateway expects.
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency domain.Currency, receipt string) (string, error) {
	log := logging.FromContext(ctx)

	payload := createOrderPayload{
		Amount:         amountMinor,
		Currency:       string(currency),
		Receipt:        receipt,
		PaymentCapture: 1,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("CreateOrder: marshal: %w", err)
	}

	url := c.baseURL + "/v1/orders"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("CreateOrder: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Key-Id", c.keyID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("CreateOrder: send: %w", err)
	}
	defer resp.Body.Close()

	log.Info("gateway order request",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("CreateOrder: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var out createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("CreateOrder: decode: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("CreateOrder: gateway returned empty order id")
	}

	return out.ID, nil
}
