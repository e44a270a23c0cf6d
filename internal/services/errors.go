package services

import (
	"errors"
	"fmt"
)

// Kinds of ReceiptError. Match with errors.Is.
var (
	ErrInvalidRequest  = errors.New("paymentId is required")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPersistence     = errors.New("failed to create receipt")
	ErrReceiptNotFound = errors.New("receipt not found")
)

// ReceiptError is the single error type returned by ReceiptService. Kind is one of the
// sentinels above; Err, when set, is the underlying store failure.
type ReceiptError struct {
	Kind      error
	PaymentID string
	Err       error
}

func (e *ReceiptError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ReceiptError) Is(target error) bool { return e.Kind == target }

func (e *ReceiptError) Unwrap() error { return e.Err }
