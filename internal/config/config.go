package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/ShinYou-bin/epilogue-Book-platform/pkg/config"
)

// Config holds all configuration for the listing service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"LISTING_HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"epilogue"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"epilogue_secret"`
	PostgresDB   string `env:"LISTING_DB_NAME" envDefault:"epilogue"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// JWT
	JWTSecret    string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	AccessExpiry time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"24h"`

	// File storage. Backend is one of: local, s3, memory.
	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"local"`
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT" envDefault:"30s"`
	UploadDir      string        `env:"UPLOAD_DIR" envDefault:"./uploads"`
	BaseURL        string        `env:"LISTING_BASE_URL" envDefault:"http://localhost:8080"`

	// S3-compatible object storage (used when STORAGE_BACKEND=s3).
	S3Endpoint  string `env:"S3_ENDPOINT" envDefault:"localhost:9000"`
	S3AccessKey string `env:"S3_ACCESS_KEY" envDefault:""`
	S3SecretKey string `env:"S3_SECRET_KEY" envDefault:""`
	S3Bucket    string `env:"S3_BUCKET" envDefault:"epilogue-listings"`
	S3UseSSL    bool   `env:"S3_USE_SSL" envDefault:"false"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string  `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
	TracingSample   float64 `env:"TRACING_SAMPLE_RATIO" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load listing config: %w", err)
	}
	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
