package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markjakearzadon/rentledger-receipts/internal/models"
)

func TestNewReceiptIssuedMessage(t *testing.T) {
	issuedAt := time.Date(2024, 12, 10, 9, 30, 0, 0, time.UTC)
	rec := &models.Receipt{
		ID:            "01JF0000000000000000000000",
		UserID:        "user-1",
		PaymentID:     "pay-1",
		TenantID:      "ten-1",
		ReceiptNumber: "RCT-2024-123456",
		Amount:        1450,
		SentToEmail:   "sarah@example.com",
		CreatedAt:     issuedAt,
	}

	msg, err := NewReceiptIssuedMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("pay-1"), msg.Key)
	assert.Equal(t, issuedAt, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, EventReceiptIssued, string(msg.Headers[0].Value))

	var event ReceiptIssued
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, EventReceiptIssued, event.Event)
	assert.Equal(t, "RCT-2024-123456", event.ReceiptNumber)
	assert.Equal(t, "sarah@example.com", event.SentToEmail)
	assert.Equal(t, 1450.0, event.Amount)
}
