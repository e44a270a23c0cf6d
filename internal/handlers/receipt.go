package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/markjakearzadon/rentledger-receipts/internal/services"
)

type ReceiptHandler struct {
	service *services.ReceiptService
	logger  *zap.Logger
}

func NewReceiptHandler(service *services.ReceiptService, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{service: service, logger: logger}
}

type issueReceiptRequest struct {
	PaymentID string `json:"paymentId"`
}

// IssueReceipt handles POST /api/receipts/issue. A new receipt answers 201 with the full
// record; a payment that already has one answers 200 with the existing receipt id.
func (h *ReceiptHandler) IssueReceipt(w http.ResponseWriter, r *http.Request) {
	var req issueReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.service.IssueReceipt(r.Context(), req.PaymentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if !res.Created {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":   "Receipt already exists",
			"receiptId": res.Receipt.ID,
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Receipt created successfully",
		"receipt": res.Receipt,
	})
}

// GetReceipt handles GET /api/receipts/payment/{paymentID}.
func (h *ReceiptHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.GetReceipt(r.Context(), mux.Vars(r)["paymentID"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListUserReceipts handles GET /api/users/{userID}/receipts?limit=N.
func (h *ReceiptHandler) ListUserReceipts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	receipts, err := h.service.ListReceipts(r.Context(), mux.Vars(r)["userID"], limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (h *ReceiptHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("receipt request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrPaymentNotFound), errors.Is(err, services.ErrReceiptNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
