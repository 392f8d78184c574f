package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/tundesanni/paylite/internal/domain"
	"github.com/tundesanni/paylite/internal/logging"
)

type paymentEventService interface {
	HandlePaymentSuccess(ctx context.Context, orderID, paymentID string, amountMinor int64) error
}

type WebhookHandler struct {
	svc    paymentEventService
	secret string
}

func NewWebhookHandler(svc paymentEventService, secret string) *WebhookHandler {
	return &WebhookHandler{svc: svc, secret: secret}
}

// gatewayEvent mirrors the gateway's envelope: the payment entity is
// nested under payload.payment.entity and the amount is in minor units.
type gatewayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Amount  int64  `json:"amount"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (e gatewayEvent) validate() []FieldError {
	var errs []FieldError
	entity := e.Payload.Payment.Entity
	if entity.ID == "" {
		errs = append(errs, FieldError{Field: "payload.payment.entity.id", Message: "required"})
	}
	if entity.OrderID == "" {
		errs = append(errs, FieldError{Field: "payload.payment.entity.order_id", Message: "required"})
	}
	if entity.Amount <= 0 {
		errs = append(errs, FieldError{Field: "payload.payment.entity.amount", Message: "must be greater than zero"})
	}
	return errs
}

var ErrInvalidSignature = &AppError{http.StatusUnauthorized, "INVALID_SIGNATURE", "Webhook signature is invalid"}

// ReceiveGatewayWebhook settles payment confirmations from the gateway.
// The signature covers the raw body, so it is verified before any parse.
// A 2xx tells the gateway to stop retrying; anything else means retry.
func (h *WebhookHandler) ReceiveGatewayWebhook(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		log.Error("failed to read webhook body", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	sig := r.Header.Get("X-Gateway-Signature")
	if !verifyHMAC(body, sig, h.secret) {
		log.Warn("webhook signature verification failed")
		RespondAppError(w, ErrInvalidSignature, nil)
		return
	}

	var event gatewayEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Warn("failed to parse webhook payload", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if event.Event != "payment.captured" {
		log.Info("ignoring webhook event", "event", event.Event)
		RespondSuccess(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if fields := event.validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entity := event.Payload.Payment.Entity
	if err := h.svc.HandlePaymentSuccess(r.Context(), entity.OrderID, entity.ID, entity.Amount); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			// Unknown order: fail the delivery so the gateway retries in
			// case the order row is still in flight.
			RespondAppError(w, ErrOrderNotFound, nil)
			return
		}
		log.Error("failed to process payment event", "order_id", entity.OrderID, "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{"status": "processed"})
}

func verifyHMAC(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
