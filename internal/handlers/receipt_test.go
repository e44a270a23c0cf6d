package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markjakearzadon/rentledger-receipts/internal/models"
	"github.com/markjakearzadon/rentledger-receipts/internal/services"
	"github.com/markjakearzadon/rentledger-receipts/internal/store"
)

func newTestRouter(t *testing.T, receipts store.ReceiptStore) (http.Handler, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	m.PutTenant(models.Tenant{ID: "ten-1", FirstName: "Sarah", Email: "sarah@example.com", PropertyID: "prop-1"})
	m.PutPayment(models.Payment{
		ID:            "pay-1",
		UserID:        "user-1",
		TenantID:      "ten-1",
		Amount:        1450.00,
		PaymentMethod: "bank transfer",
		PaymentDate:   "2024-12-10",
	})
	if receipts == nil {
		receipts = m
	}
	svc := services.NewReceiptService(m, receipts, zap.NewNop())
	return NewRouter(NewReceiptHandler(svc, zap.NewNop()), zap.NewNop(), 0), m
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestIssueReceipt_CreatedThenExisting(t *testing.T) {
	h, m := newTestRouter(t, nil)

	rec, body := do(t, h, http.MethodPost, "/api/receipts/issue", `{"paymentId":"pay-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Receipt created successfully", body["message"])
	receipt, ok := body["receipt"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pay-1", receipt["payment_id"])
	assert.Equal(t, "sarah@example.com", receipt["sent_to_email"])
	assert.Equal(t, 1450.0, receipt["amount"])

	rec, body = do(t, h, http.MethodPost, "/api/receipts/issue", `{"paymentId":"pay-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Receipt already exists", body["message"])
	assert.Equal(t, receipt["id"], body["receiptId"])
	assert.Equal(t, 1, m.ReceiptCount())
}

func TestIssueReceipt_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		errMsg string
	}{
		{name: "missing payment id", body: `{}`, status: http.StatusBadRequest, errMsg: "paymentId is required"},
		{name: "blank payment id", body: `{"paymentId":"  "}`, status: http.StatusNotFound, errMsg: "payment not found"},
		{name: "padded payment id", body: `{"paymentId":" pay-1 "}`, status: http.StatusNotFound, errMsg: "payment not found"},
		{name: "malformed json", body: `{"paymentId":`, status: http.StatusBadRequest, errMsg: "invalid request body"},
		{name: "unknown payment", body: `{"paymentId":"nope"}`, status: http.StatusNotFound, errMsg: "payment not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newTestRouter(t, nil)

			rec, body := do(t, h, http.MethodPost, "/api/receipts/issue", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.errMsg, body["error"])
			assert.Zero(t, m.ReceiptCount())
		})
	}
}

type brokenReceipts struct{ *store.Memory }

func (brokenReceipts) InsertIfAbsent(context.Context, *models.Receipt) error {
	return errors.New("disk full")
}

func TestIssueReceipt_PersistenceFailure(t *testing.T) {
	m := store.NewMemory()
	h, seeded := newTestRouter(t, brokenReceipts{Memory: m})

	rec, body := do(t, h, http.MethodPost, "/api/receipts/issue", `{"paymentId":"pay-1"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to create receipt: disk full", body["error"])
	assert.Zero(t, seeded.ReceiptCount())
}

func TestIssueReceipt_Preflight(t *testing.T) {
	tests := []struct {
		name    string
		headers string
	}{
		{name: "content type only", headers: "Content-Type"},
		{name: "dashboard client headers", headers: "authorization, x-client-info, apikey, content-type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter(t, nil)

			req := httptest.NewRequest(http.MethodOptions, "/api/receipts/issue", nil)
			req.Header.Set("Origin", "https://dashboard.example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", tt.headers)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Less(t, rec.Code, 300)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Headers"))
			assert.Empty(t, rec.Body.String())
		})
	}
}

func TestGetReceipt(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec, body := do(t, h, http.MethodGet, "/api/receipts/payment/pay-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "receipt not found", body["error"])

	_, created := do(t, h, http.MethodPost, "/api/receipts/issue", `{"paymentId":"pay-1"}`)
	issued := created["receipt"].(map[string]any)

	rec, body = do(t, h, http.MethodGet, "/api/receipts/payment/pay-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, issued["id"], body["id"])
	assert.Equal(t, issued["receipt_number"], body["receipt_number"])
}

func TestListUserReceipts(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	do(t, h, http.MethodPost, "/api/receipts/issue", `{"paymentId":"pay-1"}`)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/user-1/receipts?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var receipts []models.Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipts))
	require.Len(t, receipts, 1)
	assert.Equal(t, "pay-1", receipts[0].PaymentID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/user-2/receipts", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec, body := do(t, h, http.MethodGet, "/api/users/user-1/receipts?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "limit")
}

func TestRequestID(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
}
