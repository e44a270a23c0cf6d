package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter wires the receipt routes. CORS wraps the router so preflight requests are
// answered before route matching.
func NewRouter(h *ReceiptHandler, logger *zap.Logger, timeout time.Duration) http.Handler {
	router := mux.NewRouter()
	router.Use(WithRequestID, AccessLog(logger), WithTimeout(timeout))

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "HEAD")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/receipts/issue", h.IssueReceipt).Methods("POST")
	api.HandleFunc("/receipts/payment/{paymentID}", h.GetReceipt).Methods("GET")
	api.HandleFunc("/users/{userID}/receipts", h.ListUserReceipts).Methods("GET")

	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Client-Info", "Apikey", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	})(router)
}
