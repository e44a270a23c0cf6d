package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/markjakearzadon/rentledger-receipts/internal/models"
)

// ReceiptCache keeps issued receipts in Redis keyed by payment id so replays skip the store.
type ReceiptCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewReceiptCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ReceiptCache {
	return &ReceiptCache{client: client, ttl: ttl, logger: logger}
}

// Connect dials Redis and pings it. A nil cache with an error means run without caching.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration, logger *zap.Logger) (*ReceiptCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        password,
		DB:              db,
		PoolSize:        20,
		MinIdleConns:    2,
		MaxRetries:      3,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", addr), zap.Int("db", db))
	return NewReceiptCache(client, ttl, logger), nil
}

// PaymentKey formats the cache key for the receipt of a payment.
func PaymentKey(paymentID string) string {
	return fmt.Sprintf("receipt:v1:payment:%s", paymentID)
}

// Get returns nil, nil on a miss.
func (c *ReceiptCache) Get(ctx context.Context, paymentID string) (*models.Receipt, error) {
	data, err := c.client.Get(ctx, PaymentKey(paymentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var rec models.Receipt
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &rec, nil
}

func (c *ReceiptCache) Set(ctx context.Context, rec *models.Receipt) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	return c.client.Set(ctx, PaymentKey(rec.PaymentID), data, c.ttl).Err()
}

func (c *ReceiptCache) Close() error {
	return c.client.Close()
}
