package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Server    Server
	Auth      Auth
	Redis     RedisConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Webhook   WebhookConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Auth configures the wallet flow.
type Auth struct {
	// AuthnURL is the broker's public base URL; the wallet posts to AuthnURL + "/auth".
	AuthnURL    string
	ResolverURL string
	// Development relaxes the Secure cookie attribute for plain-HTTP local runs.
	Development bool
	// MasterKey is the hex-encoded 32-byte AES key protecting service secrets.
	MasterKey  string
	AdminToken string
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig configures PostgreSQL. An empty URL selects the in-memory directory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig configures the webhook queue. No brokers selects the in-memory queue.
type KafkaConfig struct {
	Brokers         []string
	WebhookTopic    string
	DeadLetterTopic string
	ConsumerGroup   string
}

type WebhookConfig struct {
	MaxAttempts int
	AckWait     time.Duration
}

// RateLimitConfig sets per-IP requests per minute on the public flow routes.
type RateLimitConfig struct {
	Disabled          bool
	StartPerMinute    int
	WalletPerMinute   int
	CallbackPerMinute int
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:            getEnv("ADDR", ":8080"),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: Auth{
			AuthnURL:    strings.TrimRight(getEnv("AUTHN_URL", "http://localhost:8080"), "/"),
			ResolverURL: strings.TrimRight(getEnv("RESOLVER_URL", "http://localhost:9050/1.0/identifiers"), "/"),
			Development: getBool("DEVELOPMENT", false),
			MasterKey:   os.Getenv("MASTER_KEY"),
			AdminToken:  os.Getenv("ADMIN_TOKEN"),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_POOL_SIZE", 10),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:         splitList(os.Getenv("KAFKA_BROKERS")),
			WebhookTopic:    getEnv("WEBHOOK_TOPIC", "webhooks"),
			DeadLetterTopic: getEnv("WEBHOOK_DEAD_LETTER_TOPIC", "webhooks.dead"),
			ConsumerGroup:   getEnv("WEBHOOK_GROUP", "didgate-webhooks"),
		},
		Webhook: WebhookConfig{
			MaxAttempts: getInt("WEBHOOK_MAX_ATTEMPTS", 5),
			AckWait:     getDuration("WEBHOOK_ACK_WAIT", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			Disabled:          getBool("RATE_LIMIT_DISABLED", false),
			StartPerMinute:    getInt("RATE_LIMIT_START_PER_MINUTE", 30),
			WalletPerMinute:   getInt("RATE_LIMIT_WALLET_PER_MINUTE", 60),
			CallbackPerMinute: getInt("RATE_LIMIT_CALLBACK_PER_MINUTE", 120),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	return cfg, cfg.Validate()
}

// Validate reports configuration that would make the broker unusable.
func (c Config) Validate() error {
	key, err := hex.DecodeString(c.Auth.MasterKey)
	if err != nil || len(key) != 32 {
		return fmt.Errorf("MASTER_KEY must be 64 hex characters")
	}
	if c.Auth.AuthnURL == "" {
		return fmt.Errorf("AUTHN_URL is required")
	}
	if c.Auth.ResolverURL == "" {
		return fmt.Errorf("RESOLVER_URL is required")
	}
	if c.Webhook.MaxAttempts < 1 {
		return fmt.Errorf("WEBHOOK_MAX_ATTEMPTS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
