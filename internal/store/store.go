// Package store holds the payment and receipt persistence used by receipt issuance.
// Every backend enforces one receipt per payment inside InsertIfAbsent.
package store

import (
	"context"
	"errors"

	"github.com/markjakearzadon/rentledger-receipts/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("receipt already exists for payment")
)

// DefaultListLimit caps ListByUser when the caller passes no limit.
const DefaultListLimit = 50

type PaymentStore interface {
	// GetPayment returns the payment joined with its tenant and the tenant's property.
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
}

type ReceiptStore interface {
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Receipt, error)
	// InsertIfAbsent writes rec unless a receipt for rec.PaymentID exists, in which
	// case it returns ErrDuplicate and writes nothing.
	InsertIfAbsent(ctx context.Context, rec *models.Receipt) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Receipt, error)
	EnsureIndexes(ctx context.Context) error
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
