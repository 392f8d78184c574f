package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tundesanni/paylite/internal/domain"
)

const testWebhookSecret = "test-secret-key"

type mockPaymentService struct {
	orderID   string
	paymentID string
	amount    int64
	calls     int
	err       error
}

func (m *mockPaymentService) HandlePaymentSuccess(_ context.Context, orderID, paymentID string, amountMinor int64) error {
	m.calls++
	m.orderID = orderID
	m.paymentID = paymentID
	m.amount = amountMinor
	return m.err
}

func signPayload(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func capturedEventBody(event, paymentID, orderID string, amount int64) string {
	b, _ := json.Marshal(map[string]any{
		"event": event,
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":       paymentID,
					"order_id": orderID,
					"amount":   amount,
				},
			},
		},
	})
	return string(b)
}

func TestVerifyHMAC(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		signature string
		secret    string
		want      bool
	}{
		{
			name:      "valid signature",
			body:      `{"event":"payment.captured"}`,
			signature: signPayload(`{"event":"payment.captured"}`, testWebhookSecret),
			secret:    testWebhookSecret,
			want:      true,
		},
		{
			name:      "wrong signature",
			body:      `{"event":"payment.captured"}`,
			signature: "deadbeef",
			secret:    testWebhookSecret,
			want:      false,
		},
		{
			name:      "empty signature",
			body:      `{"event":"payment.captured"}`,
			signature: "",
			secret:    testWebhookSecret,
			want:      false,
		},
		{
			name:      "wrong secret",
			body:      `{"event":"payment.captured"}`,
			signature: signPayload(`{"event":"payment.captured"}`, "other-secret"),
			secret:    testWebhookSecret,
			want:      false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := verifyHMAC([]byte(tc.body), tc.signature, tc.secret)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReceiveGatewayWebhook(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupSig   func(body string) string
		svcErr     error
		wantStatus int
		wantCode   string
		wantCalls  int
	}{
		{
			name:       "valid signed event",
			body:       capturedEventBody("payment.captured", "pay_1", "order_1", 5000),
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "missing signature header",
			body:       capturedEventBody("payment.captured", "pay_1", "order_1", 5000),
			setupSig:   nil,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_SIGNATURE",
		},
		{
			name:       "invalid HMAC signature",
			body:       capturedEventBody("payment.captured", "pay_1", "order_1", 5000),
			setupSig:   func(_ string) string { return "deadbeefdeadbeef" },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_SIGNATURE",
		},
		{
			name:       "invalid JSON body",
			body:       "not-json",
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "non-captured event acknowledged without processing",
			body:       capturedEventBody("payment.failed", "pay_1", "order_1", 5000),
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			wantStatus: http.StatusOK,
			wantCalls:  0,
		},
		{
			name:       "missing entity fields",
			body:       capturedEventBody("payment.captured", "", "", 0),
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "unknown order fails the delivery for retry",
			body:       capturedEventBody("payment.captured", "pay_1", "order_missing", 5000),
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			svcErr:     fmt.Errorf("settle: %w", domain.ErrOrderNotFound),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "ORDER_NOT_FOUND",
			wantCalls:  1,
		},
		{
			name:       "processing error returns 500",
			body:       capturedEventBody("payment.captured", "pay_1", "order_1", 5000),
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			svcErr:     fmt.Errorf("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
			wantCalls:  1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockPaymentService{err: tc.svcErr}
			h := NewWebhookHandler(svc, testWebhookSecret)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/gateway", strings.NewReader(tc.body))
			if tc.setupSig != nil {
				req.Header.Set("X-Gateway-Signature", tc.setupSig(tc.body))
			}
			rr := httptest.NewRecorder()

			h.ReceiveGatewayWebhook(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantCalls, svc.calls)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

			if tc.wantCode == "" {
				assert.True(t, resp.Success)
			} else {
				assert.False(t, resp.Success)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestReceiveGatewayWebhook_PassesEntityThrough(t *testing.T) {
	svc := &mockPaymentService{}
	h := NewWebhookHandler(svc, testWebhookSecret)

	body := capturedEventBody("payment.captured", "pay_abc", "order_xyz", 123456)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/gateway", strings.NewReader(body))
	req.Header.Set("X-Gateway-Signature", signPayload(body, testWebhookSecret))
	rr := httptest.NewRecorder()

	h.ReceiveGatewayWebhook(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "order_xyz", svc.orderID)
	assert.Equal(t, "pay_abc", svc.paymentID)
	assert.Equal(t, int64(123456), svc.amount)
}
