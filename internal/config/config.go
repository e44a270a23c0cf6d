package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type AppConfig struct {
	Env            string
	LogLevel       string
	HTTPAddr       string
	RequestTimeout time.Duration

	StoreBackend string
	MongoURI     string
	MongoDB      string
	DatabaseURL  string
	DBMaxConns   int32
	SeedFile     string // JSON fixture loaded into the memory backend

	RedisAddr string
	RedisPass string
	RedisDB   int
	CacheTTL  time.Duration

	KafkaBrokers []string // empty disables event publishing
	KafkaTopic   string
}

func Load() AppConfig {
	return AppConfig{
		Env:            getEnv("APP_ENV", "production"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		HTTPAddr:       httpAddr(),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendMongo)),
		MongoURI:     os.Getenv("MONGOURI"),
		MongoDB:      getEnv("MONGO_DB", "rentledger"),
		DatabaseURL:  databaseURL(),
		DBMaxConns:   int32(getEnvAsInt("DB_MAX_CONNS", 20)),
		SeedFile:     os.Getenv("SEED_FILE"),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisPass: os.Getenv("REDIS_PASS"),
		RedisDB:   getEnvAsInt("REDIS_DB", 0),
		CacheTTL:  getEnvAsDuration("CACHE_TTL", 24*time.Hour),

		KafkaBrokers: parseCSVEnv("KAFKA_BROKERS", ""),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "receipts.issued"),
	}
}

// Validate reports settings the selected backend cannot start without.
func (c AppConfig) Validate() error {
	switch c.StoreBackend {
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGOURI environment variable not set")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL or DB_HOST/DB_NAME environment variables not set")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q, must be mongo, postgres or memory", c.StoreBackend)
	}
	return nil
}

// httpAddr prefers HTTP_ADDR, then a bare PORT as set by most PaaS hosts.
func httpAddr() string {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		return v
	}
	return "0.0.0.0:" + getEnv("PORT", "8080")
}

func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host, name := os.Getenv("DB_HOST"), os.Getenv("DB_NAME")
	if host == "" || name == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		host,
		getEnv("DB_PORT", "5432"),
		name,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseCSVEnv(key, fallback string) []string {
	val := getEnv(key, fallback)
	if strings.TrimSpace(val) == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
