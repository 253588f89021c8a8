package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting read from the environment.
type Config struct {
	AppEnv       string
	IsStaging    bool
	IsProduction bool

	Port        string
	DBDriver    string
	DatabaseURL string
	JWTSecret   string
	CORSOrigins []string

	// runtime tunables
	RateLimitWindowSeconds int
	RateLimitCapacity      int
	IdempotencyTTLSeconds  int
	IdempotencyMaxItems    int
	SocketSendBuffer       int
	StoreTimeoutSeconds    int

	// RejectClosedSends makes the relay refuse messages into CLOSED conversations.
	RejectClosedSends bool

	// optional integrations, disabled when empty
	RedisURL     string
	AMQPURL      string
	AMQPExchange string
}

var (
	validEnvs     = []string{"development", "staging", "production"}
	validDrivers  = []string{"sqlite", "mysql"}
	defaultOrigin = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
)

// loadDotEnv loads .env outside production. A missing file is fine; the
// process environment is used as is.
func loadDotEnv(appEnv string) {
	if appEnv == "production" {
		return
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] ignoring .env: %v", err)
	}
}

// Load reads the configuration from the environment (and .env when not in production).
func Load() (*Config, error) {
	loadDotEnv(os.Getenv("APP_ENV"))

	cfg := &Config{
		AppEnv:      strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))),
		Port:        os.Getenv("PORT"),
		DBDriver:    strings.ToLower(strings.TrimSpace(os.Getenv("DB_DRIVER"))),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET_KEY"),

		RateLimitWindowSeconds: atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10),
		RateLimitCapacity:      atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 20),
		IdempotencyTTLSeconds:  atoiOr(os.Getenv("IDEMPOTENCY_TTL_SECONDS"), 600),
		IdempotencyMaxItems:    atoiOr(os.Getenv("IDEMPOTENCY_MAX_ITEMS"), 10000),
		SocketSendBuffer:       atoiOr(os.Getenv("SOCKET_SEND_BUFFER"), 64),
		StoreTimeoutSeconds:    atoiOr(os.Getenv("STORE_TIMEOUT_SECONDS"), 5),

		RejectClosedSends: os.Getenv("REJECT_CLOSED_SENDS") == "1",

		RedisURL:     strings.TrimSpace(os.Getenv("REDIS_URL")),
		AMQPURL:      strings.TrimSpace(os.Getenv("AMQP_URL")),
		AMQPExchange: os.Getenv("AMQP_EXCHANGE"),
	}

	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if !slices.Contains(validEnvs, cfg.AppEnv) {
		return nil, fmt.Errorf("APP_ENV must be one of %v, got %q", validEnvs, cfg.AppEnv)
	}
	cfg.IsStaging = cfg.AppEnv == "staging"
	cfg.IsProduction = cfg.AppEnv == "production"

	if cfg.Port == "" {
		cfg.Port = "5000"
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = "sqlite"
	}
	if !slices.Contains(validDrivers, cfg.DBDriver) {
		return nil, fmt.Errorf("DB_DRIVER must be one of %v, got %q", validDrivers, cfg.DBDriver)
	}
	if cfg.DatabaseURL == "" {
		if cfg.DBDriver != "sqlite" {
			return nil, errors.New("DATABASE_URL must be set for DB_DRIVER=" + cfg.DBDriver)
		}
		cfg.DatabaseURL = "app.db"
	}
	if cfg.AMQPExchange == "" {
		cfg.AMQPExchange = "supportchat.events"
	}

	cfg.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = defaultOrigin
	}

	// jika production dan JWT secret kosong -> fatal (safety)
	if cfg.IsProduction && cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET_KEY must be set in production")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret"
	}

	return cfg, nil
}

// LogSummary prints the values that matter when debugging a deployment.
func (c *Config) LogSummary() {
	log.Printf("[config] AppEnv=%s IsStaging=%v IsProduction=%v", c.AppEnv, c.IsStaging, c.IsProduction)
	log.Printf("[config] DB driver=%s redis=%v amqp=%v rejectClosed=%v",
		c.DBDriver, c.RedisURL != "", c.AMQPURL != "", c.RejectClosedSends)
	log.Printf("[config] RateLimit window=%ds capacity=%d idempotencyTTL=%ds idempotencyMax=%d socketBuffer=%d",
		c.RateLimitWindowSeconds, c.RateLimitCapacity, c.IdempotencyTTLSeconds, c.IdempotencyMaxItems, c.SocketSendBuffer)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
