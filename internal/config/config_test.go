package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_ADDR", "PORT", "REQUEST_TIMEOUT", "STORE_BACKEND",
		"MONGOURI", "MONGO_DB", "DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD",
		"DB_NAME", "DB_MAX_CONNS", "REDIS_ADDR", "REDIS_PASS", "REDIS_DB", "CACHE_TTL",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "SEED_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, "rentledger", cfg.MongoDB)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "receipts.issued", cfg.KafkaTopic)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.SeedFile)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "rent")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CACHE_TTL", "90m")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("SEED_FILE", "testdata/seed.json")

	cfg := Load()

	assert.Equal(t, "0.0.0.0:9000", cfg.HTTPAddr)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "postgres://app:secret@db:5432/rent?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, "testdata/seed.json", cfg.SeedFile)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AppConfig
		wantErr bool
	}{
		{"mongo without uri", AppConfig{StoreBackend: BackendMongo}, true},
		{"mongo with uri", AppConfig{StoreBackend: BackendMongo, MongoURI: "mongodb://localhost"}, false},
		{"postgres without url", AppConfig{StoreBackend: BackendPostgres}, true},
		{"memory", AppConfig{StoreBackend: BackendMemory}, false},
		{"unknown", AppConfig{StoreBackend: "sqlite"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
