package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tundesanni/paylite/internal/auth"
	"github.com/tundesanni/paylite/internal/domain"
	"github.com/tundesanni/paylite/internal/service"
)

type transferService interface {
	Transfer(ctx context.Context, req service.TransferRequest) (*service.TransferResult, error)
}

type TransferHandler struct {
	svc transferService
}

func NewTransferHandler(svc transferService) *TransferHandler {
	return &TransferHandler{svc: svc}
}

type transferRequest struct {
	RecipientPhone string          `json:"recipient_phone"`
	Amount         decimal.Decimal `json:"amount"`
	Note           string          `json:"note"`
}

func (r transferRequest) Validate() []FieldError {
	var errs []FieldError
	if r.RecipientPhone == "" {
		errs = append(errs, FieldError{Field: "recipient_phone", Message: "required"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	return errs
}

type transferResponse struct {
	TxnRef         string                   `json:"txn_ref"`
	RecipientName  string                   `json:"recipient_name"`
	RecipientPhone string                   `json:"recipient_phone"`
	Amount         decimal.Decimal          `json:"amount"`
	Status         domain.TransactionStatus `json:"status"`
	Note           string                   `json:"note,omitempty"`
	NewBalance     decimal.Decimal          `json:"new_balance"`
	ProcessedAt    time.Time                `json:"processed_at"`
}

func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	result, err := h.svc.Transfer(r.Context(), service.TransferRequest{
		SenderUserID:   userID,
		RecipientPhone: req.RecipientPhone,
		Amount:         req.Amount,
		Note:           req.Note,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, transferResponse{
		TxnRef:         result.TxnRef,
		RecipientName:  result.RecipientName,
		RecipientPhone: result.RecipientPhone,
		Amount:         result.Amount,
		Status:         result.Status,
		Note:           result.Note,
		NewBalance:     result.NewSenderBalance,
		ProcessedAt:    time.Now().UTC(),
	})
}
