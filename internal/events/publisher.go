package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/markjakearzadon/rentledger-receipts/internal/models"
)

const EventReceiptIssued = "receipt.issued"

// ReceiptIssued is the payload announced after a new receipt is stored.
type ReceiptIssued struct {
	Event         string    `json:"event"`
	ReceiptID     string    `json:"receipt_id"`
	ReceiptNumber string    `json:"receipt_number"`
	PaymentID     string    `json:"payment_id"`
	UserID        string    `json:"user_id"`
	TenantID      string    `json:"tenant_id"`
	Amount        float64   `json:"amount"`
	SentToEmail   string    `json:"sent_to_email,omitempty"`
	IssuedAt      time.Time `json:"issued_at"`
}

type Publisher interface {
	PublishReceiptIssued(ctx context.Context, rec *models.Receipt) error
	Close() error
}

// NewReceiptIssuedMessage builds the kafka message for rec, keyed by payment id so
// every event for a payment lands on one partition.
func NewReceiptIssuedMessage(rec *models.Receipt) (kafka.Message, error) {
	payload, err := json.Marshal(ReceiptIssued{
		Event:         EventReceiptIssued,
		ReceiptID:     rec.ID,
		ReceiptNumber: rec.ReceiptNumber,
		PaymentID:     rec.PaymentID,
		UserID:        rec.UserID,
		TenantID:      rec.TenantID,
		Amount:        rec.Amount,
		SentToEmail:   rec.SentToEmail,
		IssuedAt:      rec.CreatedAt,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal receipt event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(rec.PaymentID),
		Value: payload,
		Time:  rec.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(EventReceiptIssued)},
		},
	}, nil
}

type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Debug(fmt.Sprintf(msg, args...))
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Warn(fmt.Sprintf(msg, args...))
		}),
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("failed to deliver receipt events", zap.Int("count", len(messages)), zap.Error(err))
			}
		},
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) PublishReceiptIssued(ctx context.Context, rec *models.Receipt) error {
	msg, err := NewReceiptIssuedMessage(rec)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) PublishReceiptIssued(context.Context, *models.Receipt) error { return nil }
func (Nop) Close() error { return nil }
