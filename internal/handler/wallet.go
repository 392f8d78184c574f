package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tundesanni/paylite/internal/auth"
	"github.com/tundesanni/paylite/internal/domain"
	"github.com/tundesanni/paylite/internal/service"
)

type walletService interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*service.BalanceView, error)
	LookupByPhone(ctx context.Context, phone string) (*service.UserLookup, error)
}

type WalletHandler struct {
	svc walletService
}

func NewWalletHandler(svc walletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

type balanceResponse struct {
	WalletID uuid.UUID       `json:"wallet_id"`
	Balance  decimal.Decimal `json:"balance"`
	Currency domain.Currency `json:"currency"`
	Name     string          `json:"name"`
}

func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	view, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, balanceResponse{
		WalletID: view.WalletID,
		Balance:  view.Balance,
		Currency: view.Currency,
		Name:     view.UserName,
	})
}

type lookupResponse struct {
	Exists bool   `json:"exists"`
	Name   string `json:"name,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

// Lookup resolves a phone number to a recipient name before a transfer.
// It deliberately returns 200 with exists=false for unknown phones.
func (h *WalletHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		RespondValidationError(w, []FieldError{{Field: "phone", Message: "required"}})
		return
	}

	lookup, err := h.svc.LookupByPhone(r.Context(), phone)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, lookupResponse{
		Exists: lookup.Exists,
		Name:   lookup.Name,
		Phone:  lookup.Phone,
	})
}
