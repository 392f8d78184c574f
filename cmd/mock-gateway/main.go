// Command mock-gateway imitates the payment gateway in local development.
// It accepts order creation, waits a moment, then fires a signed
// payment.captured webhook at the API as if the customer had paid.
package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/tundesanni/paylite/internal/logging"
)

type gatewayServer struct {
	webhookURL    string
	webhookSecret string
	settleDelay   time.Duration
	client        *http.Client
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderEntity struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func main() {
	logging.Init("mock-gateway", "info", os.Getenv("APP_ENV"))

	srv := &gatewayServer{
		webhookURL:    envOr("WEBHOOK_URL", "http://localhost:8080/api/v1/webhooks/gateway"),
		webhookSecret: envOr("WEBHOOK_SECRET", "whsec_dev"),
		settleDelay:   2 * time.Second,
		client:        &http.Client{Timeout: 10 * time.Second},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/orders", srv.createOrder)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})

	addr := ":" + envOr("PORT", "8081")
	slog.Info("mock gateway started", "addr", addr, "webhook_url", srv.webhookURL)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func (s *gatewayServer) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request"}`, http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, `{"error":"amount must be positive"}`, http.StatusBadRequest)
		return
	}

	order := orderEntity{
		ID:       "order_" + randomHex(12),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}

	slog.Info("order created", "order_id", order.ID, "amount", order.Amount)

	// Simulate the customer completing checkout.
	go s.settleLater(order)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(order); err != nil {
		slog.Error("failed to write order response", "error", err)
	}
}

func (s *gatewayServer) settleLater(order orderEntity) {
	time.Sleep(s.settleDelay)

	event := map[string]any{
		"event": "payment.captured",
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":       "pay_" + randomHex(12),
					"order_id": order.ID,
					"amount":   order.Amount,
				},
			},
		},
	}

	body, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal webhook event", "error", err)
		return
	}

	for attempt := 1; attempt <= 5; attempt++ {
		if err := s.deliver(body); err != nil {
			slog.Warn("webhook delivery failed", "order_id", order.ID, "attempt", attempt, "error", err)
			time.Sleep(time.Duration(attempt) * time.Second)
			continue
		}
		slog.Info("webhook delivered", "order_id", order.ID, "attempt", attempt)
		return
	}
	slog.Error("webhook delivery gave up", "order_id", order.ID)
}

func (s *gatewayServer) deliver(body []byte) error {
	req, err := http.NewRequest(http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Gateway-Signature", sign(body, s.webhookSecret))

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)[:n]
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
