package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/markjakearzadon/rentledger-receipts/internal/cache"
	"github.com/markjakearzadon/rentledger-receipts/internal/config"
	"github.com/markjakearzadon/rentledger-receipts/internal/db"
	"github.com/markjakearzadon/rentledger-receipts/internal/events"
	"github.com/markjakearzadon/rentledger-receipts/internal/handlers"
	"github.com/markjakearzadon/rentledger-receipts/internal/logger"
	"github.com/markjakearzadon/rentledger-receipts/internal/services"
	"github.com/markjakearzadon/rentledger-receipts/internal/store"
)

func main() {
	// Load .env
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Error loading .env: %s", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	lg, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	payments, receipts, closeStore, err := openStores(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to open stores", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeStore()

	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = receipts.EnsureIndexes(indexCtx)
	cancel()
	if err != nil {
		lg.Fatal("failed to ensure receipt indexes", zap.Error(err))
	}

	opts := []services.Option{}

	if cfg.RedisAddr != "" {
		rc, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.CacheTTL, lg)
		if err != nil {
			lg.Warn("redis unavailable, running without receipt cache", zap.Error(err))
		} else {
			defer rc.Close()
			opts = append(opts, services.WithCache(rc))
		}
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, lg)
		lg.Info("publishing receipt events",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}
	defer publisher.Close()
	opts = append(opts, services.WithPublisher(publisher))

	receiptService := services.NewReceiptService(payments, receipts, lg, opts...)
	receiptHandler := handlers.NewReceiptHandler(receiptService, lg)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handlers.NewRouter(receiptHandler, lg, cfg.RequestTimeout),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info("server running", zap.String("addr", cfg.HTTPAddr), zap.String("backend", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg config.AppConfig, lg *zap.Logger) (store.PaymentStore, store.ReceiptStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := db.ConnectPostgres(ctx, cfg.DatabaseURL, cfg.DBMaxConns, lg)
		if err != nil {
			return nil, nil, nil, err
		}
		return store.NewPostgresPaymentStore(pool), store.NewPostgresReceiptStore(pool), pool.Close, nil

	case config.BackendMemory:
		lg.Warn("using in-memory store, receipts are lost on restart")
		m := store.NewMemory()
		if cfg.SeedFile != "" {
			if err := m.LoadFile(cfg.SeedFile); err != nil {
				return nil, nil, nil, err
			}
			lg.Info("seeded memory store", zap.String("file", cfg.SeedFile), zap.Int("payments", m.PaymentCount()))
		} else {
			lg.Warn("no SEED_FILE set, memory store has no payments")
		}
		return m, m, func() {}, nil

	default:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI, lg)
		if err != nil {
			return nil, nil, nil, err
		}
		database := client.Database(cfg.MongoDB)
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				lg.Error("error disconnecting from MongoDB", zap.Error(err))
			}
		}
		return store.NewMongoPaymentStore(database), store.NewMongoReceiptStore(database), closeFn, nil
	}
}
