package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tundesanni/paylite/internal/auth"
	"github.com/tundesanni/paylite/internal/domain"
	"github.com/tundesanni/paylite/internal/service"
)

type paymentService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*service.OrderView, error)
}

type PaymentHandler struct {
	svc paymentService
}

func NewPaymentHandler(svc paymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

type createOrderRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type orderResponse struct {
	OrderID  string                    `json:"order_id"`
	Amount   decimal.Decimal           `json:"amount"`
	Currency domain.Currency           `json:"currency"`
	Receipt  string                    `json:"receipt"`
	Status   domain.PaymentOrderStatus `json:"status"`
	KeyID    string                    `json:"key_id"`
}

// CreateOrder starts a wallet top-up. The wallet is not credited here;
// that happens when the gateway confirms payment over the webhook.
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if !req.Amount.IsPositive() {
		RespondValidationError(w, []FieldError{{Field: "amount", Message: "must be greater than zero"}})
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), userID, req.Amount)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, orderResponse{
		OrderID:  order.OrderID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
		Status:   order.Status,
		KeyID:    order.KeyID,
	})
}
