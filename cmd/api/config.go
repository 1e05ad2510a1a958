package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort        string
	APIPrefix       string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	MongoURI            string
	MongoDBName         string
	MongoMaxPoolSize    uint64
	MongoMinPoolSize    uint64
	MongoConnectTimeout time.Duration
	MigrationsPath      string

	RedisAddr       string
	RedisPassword   string
	CacheKeyPrefix  string
	CartCacheTTL    time.Duration
	CartCacheJitter time.Duration

	KafkaBrokers       []string
	OutboxPollInterval time.Duration

	JWTSecret      string
	AllowedOrigins []string

	OTLPEndpoint string
	LogLevel     string
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		APIPrefix:      strings.TrimRight(getEnv("API_PREFIX", ""), "/"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "storefront"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		CacheKeyPrefix: getEnv("CACHE_KEY_PREFIX", "storefront"),
		KafkaBrokers:   splitList(getEnv("KAFKA_BROKERS", "")),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.OutboxPollInterval, err = getDuration("OUTBOX_POLL_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.MongoConnectTimeout, err = getDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CartCacheTTL, err = getDuration("CART_CACHE_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CartCacheJitter, err = getDuration("CART_CACHE_JITTER", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MongoMaxPoolSize, err = getUint("MONGO_MAX_POOL_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.MongoMinPoolSize, err = getUint("MONGO_MIN_POOL_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.MongoMinPoolSize > cfg.MongoMaxPoolSize {
		return nil, fmt.Errorf("MONGO_MIN_POOL_SIZE %d exceeds MONGO_MAX_POOL_SIZE %d", cfg.MongoMinPoolSize, cfg.MongoMaxPoolSize)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}

func getUint(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%s: invalid positive integer %q", key, value)
	}
	return n, nil
}

// splitList parses a comma separated list, dropping empty entries.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
