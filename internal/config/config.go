package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`
	GRPCPort string `envconfig:"GRPC_PORT" default:"50051"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	StoreDriver   string `envconfig:"STORE_DRIVER" default:"mysql"`
	MySQLDSN      string `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/storefront?parseTime=true&multiStatements=true"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"true"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	KafkaBrokers       []string      `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic         string        `envconfig:"KAFKA_TOPIC" default:"storefront.orders"`
	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"1s"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`

	JWTSecret           string `envconfig:"JWT_SECRET" required:"true"`
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	ClientURL           string `envconfig:"CLIENT_URL" default:"http://localhost:3000"`
	Currency            string `envconfig:"CURRENCY" default:"usd"`

	CartLockTTL     time.Duration `envconfig:"CART_LOCK_TTL" default:"10s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	RateLimitRPS       float64  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst     int      `envconfig:"RATE_LIMIT_BURST" default:"40"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
}

// Load reads an optional .env file, then the process environment.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.StoreDriver != StoreMySQL && c.StoreDriver != StoreMemory {
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMySQL, StoreMemory, c.StoreDriver)
	}
	if c.CartLockTTL <= 0 {
		return errors.New("CART_LOCK_TTL must be positive")
	}
	if c.OutboxBatchSize < 1 {
		return errors.New("OUTBOX_BATCH_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) AllowedOrigins() []string {
	if len(c.CORSAllowedOrigins) > 0 {
		return c.CORSAllowedOrigins
	}
	return []string{c.ClientURL}
}

func (c *Config) SuccessURL() string {
	return c.ClientURL + "/success?session_id={CHECKOUT_SESSION_ID}"
}

func (c *Config) CancelURL() string {
	return c.ClientURL + "/cancel"
}
