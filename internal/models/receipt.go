package models

import "time"

// Receipt acknowledges exactly one Payment. PaymentID is unique across the collection.
type Receipt struct {
	ID            string    `bson:"_id" json:"id"`
	UserID        string    `bson:"user_id" json:"user_id"`
	PaymentID     string    `bson:"payment_id" json:"payment_id"`
	TenantID      string    `bson:"tenant_id" json:"tenant_id"`
	ReceiptNumber string    `bson:"receipt_number" json:"receipt_number"`
	Amount        float64   `bson:"amount" json:"amount"`
	PaymentMethod string    `bson:"payment_method" json:"payment_method"`
	PaymentDate   string    `bson:"payment_date" json:"payment_date"`
	SentToEmail   string    `bson:"sent_to_email,omitempty" json:"sent_to_email,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}
