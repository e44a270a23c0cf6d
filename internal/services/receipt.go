package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/markjakearzadon/rentledger-receipts/internal/events"
	"github.com/markjakearzadon/rentledger-receipts/internal/metrics"
	"github.com/markjakearzadon/rentledger-receipts/internal/models"
	"github.com/markjakearzadon/rentledger-receipts/internal/store"
)

// ReceiptCache is an optional read-through cache of issued receipts keyed by payment id.
// Get returns nil, nil on a miss.
type ReceiptCache interface {
	Get(ctx context.Context, paymentID string) (*models.Receipt, error)
	Set(ctx context.Context, rec *models.Receipt) error
}

// IssueResult carries the receipt for a payment. Created is false when the payment
// already had a receipt and the original one is returned.
type IssueResult struct {
	Receipt *models.Receipt
	Created bool
}

type ReceiptService struct {
	payments  store.PaymentStore
	receipts  store.ReceiptStore
	cache     ReceiptCache
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*ReceiptService)

func WithCache(c ReceiptCache) Option {
	return func(s *ReceiptService) { s.cache = c }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *ReceiptService) { s.publisher = p }
}

// WithClock replaces time.Now for receipt numbers and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *ReceiptService) { s.now = now }
}

func NewReceiptService(payments store.PaymentStore, receipts store.ReceiptStore, logger *zap.Logger, opts ...Option) *ReceiptService {
	s := &ReceiptService{
		payments:  payments,
		receipts:  receipts,
		publisher: events.Nop{},
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueReceipt returns the receipt for paymentID, creating it on first call.
// At most one receipt is ever stored per payment: the store's guarded insert decides
// the winner when callers race, and losers get the winner's receipt back.
func (s *ReceiptService) IssueReceipt(ctx context.Context, paymentID string) (res *IssueResult, err error) {
	start := time.Now()
	defer func() {
		metrics.IssueDuration.Observe(time.Since(start).Seconds())
		metrics.ReceiptsIssued.WithLabelValues(outcome(res, err)).Inc()
	}()

	if paymentID == "" {
		return nil, &ReceiptError{Kind: ErrInvalidRequest}
	}

	payment, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &ReceiptError{Kind: ErrPaymentNotFound, PaymentID: paymentID}
		}
		s.logger.Warn("failed to fetch payment", zap.String("payment_id", paymentID), zap.Error(err))
		return nil, &ReceiptError{Kind: ErrPaymentNotFound, PaymentID: paymentID, Err: err}
	}

	if existing := s.lookup(ctx, paymentID); existing != nil {
		s.logger.Info("receipt already exists",
			zap.String("receipt_id", existing.ID),
			zap.String("payment_id", paymentID),
		)
		return &IssueResult{Receipt: existing}, nil
	}

	now := s.now()
	rec := &models.Receipt{
		ID:            newReceiptID(now),
		UserID:        payment.UserID,
		PaymentID:     payment.ID,
		TenantID:      payment.TenantID,
		ReceiptNumber: ReceiptNumber(now),
		Amount:        payment.Amount,
		PaymentMethod: payment.PaymentMethod,
		PaymentDate:   payment.PaymentDate,
		SentToEmail:   payment.TenantEmail(),
		CreatedAt:     now.UTC(),
	}

	if err := s.receipts.InsertIfAbsent(ctx, rec); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			s.logger.Error("failed to create receipt", zap.String("payment_id", paymentID), zap.Error(err))
			return nil, &ReceiptError{Kind: ErrPersistence, PaymentID: paymentID, Err: err}
		}

		winner, getErr := s.receipts.GetByPaymentID(ctx, paymentID)
		if getErr != nil {
			return nil, &ReceiptError{Kind: ErrPersistence, PaymentID: paymentID, Err: getErr}
		}
		s.logger.Info("receipt created concurrently, returning existing",
			zap.String("receipt_id", winner.ID),
			zap.String("payment_id", paymentID),
		)
		s.remember(ctx, winner)
		return &IssueResult{Receipt: winner}, nil
	}

	s.logger.Info("receipt generated",
		zap.String("receipt_number", rec.ReceiptNumber),
		zap.String("payment_id", paymentID),
	)
	s.remember(ctx, rec)
	s.announce(ctx, rec)
	return &IssueResult{Receipt: rec, Created: true}, nil
}

// GetReceipt returns the receipt issued for paymentID.
func (s *ReceiptService) GetReceipt(ctx context.Context, paymentID string) (*models.Receipt, error) {
	if paymentID == "" {
		return nil, &ReceiptError{Kind: ErrInvalidRequest}
	}

	if rec := s.cached(ctx, paymentID); rec != nil {
		return rec, nil
	}
	rec, err := s.receipts.GetByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &ReceiptError{Kind: ErrReceiptNotFound, PaymentID: paymentID}
		}
		return nil, &ReceiptError{Kind: ErrReceiptNotFound, PaymentID: paymentID, Err: err}
	}
	s.remember(ctx, rec)
	return rec, nil
}

// ListReceipts returns the newest receipts owned by userID.
func (s *ReceiptService) ListReceipts(ctx context.Context, userID string, limit int) ([]models.Receipt, error) {
	if userID == "" {
		return nil, &ReceiptError{Kind: ErrInvalidRequest}
	}
	return s.receipts.ListByUser(ctx, userID, limit)
}

// lookup is the idempotency pre-check. A failed store read is logged and treated as a
// miss; InsertIfAbsent still refuses a second receipt.
func (s *ReceiptService) lookup(ctx context.Context, paymentID string) *models.Receipt {
	if rec := s.cached(ctx, paymentID); rec != nil {
		return rec
	}

	rec, err := s.receipts.GetByPaymentID(ctx, paymentID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("receipt lookup failed", zap.String("payment_id", paymentID), zap.Error(err))
		}
		return nil
	}
	s.remember(ctx, rec)
	return rec
}

func (s *ReceiptService) cached(ctx context.Context, paymentID string) *models.Receipt {
	if s.cache == nil {
		return nil
	}
	rec, err := s.cache.Get(ctx, paymentID)
	switch {
	case err != nil:
		metrics.CacheRequests.WithLabelValues("error").Inc()
		s.logger.Warn("receipt cache get failed", zap.String("payment_id", paymentID), zap.Error(err))
		return nil
	case rec == nil:
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		return nil
	default:
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		return rec
	}
}

func (s *ReceiptService) remember(ctx context.Context, rec *models.Receipt) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("receipt cache set failed", zap.String("payment_id", rec.PaymentID), zap.Error(err))
	}
}

func (s *ReceiptService) announce(ctx context.Context, rec *models.Receipt) {
	if err := s.publisher.PublishReceiptIssued(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("failed to publish receipt event",
			zap.String("receipt_id", rec.ID),
			zap.String("payment_id", rec.PaymentID),
			zap.Error(err),
		)
	}
}

func outcome(res *IssueResult, err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return metrics.OutcomeInvalidRequest
	case errors.Is(err, ErrPaymentNotFound):
		return metrics.OutcomePaymentNotFound
	case err != nil:
		return metrics.OutcomePersistenceError
	case res != nil && res.Created:
		return metrics.OutcomeCreated
	default:
		return metrics.OutcomeExisting
	}
}
