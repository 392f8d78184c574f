package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tundesanni/paylite/internal/auth"
	"github.com/tundesanni/paylite/internal/domain"
	"github.com/tundesanni/paylite/internal/service"
)

type transactionService interface {
	GetHistory(ctx context.Context, userID uuid.UUID, page, pageSize int) (*service.HistoryPage, error)
	GetByRef(ctx context.Context, userID uuid.UUID, txnRef string) (*service.TransactionView, error)
}

type TransactionHandler struct {
	svc transactionService
}

func NewTransactionHandler(svc transactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type transactionDTO struct {
	TxnRef            string                   `json:"txn_ref"`
	Direction         domain.Direction         `json:"direction"`
	Type              domain.TransactionType   `json:"type"`
	Amount            decimal.Decimal          `json:"amount"`
	Status            domain.TransactionStatus `json:"status"`
	Description       string                   `json:"description,omitempty"`
	CounterpartyName  *string                  `json:"counterparty_name,omitempty"`
	CounterpartyPhone *string                  `json:"counterparty_phone,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
}

type historyResponse struct {
	Transactions []transactionDTO `json:"transactions"`
	Page         int              `json:"page"`
	PageSize     int              `json:"page_size"`
	TotalCount   int              `json:"total_count"`
}

func toTransactionDTO(v service.TransactionView) transactionDTO {
	return transactionDTO{
		TxnRef:            v.TxnRef,
		Direction:         v.Direction,
		Type:              v.Type,
		Amount:            v.Amount,
		Status:            v.Status,
		Description:       v.Description,
		CounterpartyName:  v.CounterpartyName,
		CounterpartyPhone: v.CounterpartyPhone,
		CreatedAt:         v.CreatedAt,
	}
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	page, pageSize, fields := parsePagination(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	history, err := h.svc.GetHistory(r.Context(), userID, page, pageSize)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, 0, len(history.Entries))
	for _, entry := range history.Entries {
		dtos = append(dtos, toTransactionDTO(entry))
	}

	RespondSuccess(w, http.StatusOK, historyResponse{
		Transactions: dtos,
		Page:         history.Page,
		PageSize:     history.PageSize,
		TotalCount:   history.TotalCount,
	})
}

func (h *TransactionHandler) GetByRef(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	txnRef := r.PathValue("ref")
	if txnRef == "" {
		RespondValidationError(w, []FieldError{{Field: "ref", Message: "required"}})
		return
	}

	view, err := h.svc.GetByRef(r.Context(), userID, txnRef)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(*view))
}

func parsePagination(r *http.Request) (page, pageSize int, fields []FieldError) {
	page, pageSize = 0, defaultPageSize

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields = append(fields, FieldError{Field: "page", Message: "must be a non-negative integer"})
		} else {
			page = n
		}
	}

	if raw := r.URL.Query().Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			fields = append(fields, FieldError{Field: "page_size", Message: "must be between 1 and 100"})
		} else {
			pageSize = n
		}
	}

	return page, pageSize, fields
}
