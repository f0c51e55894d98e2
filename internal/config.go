package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	Port     uint16

	// PublicURL is the externally reachable base URL; payment redirect
	// targets and webhook callback URLs are built from it.
	PublicURL string

	Mongo    MongoConfig
	Redis    RedisConfig
	Stripe   StripeConfig
	Printful PrintfulConfig
	Sweeper  SweeperConfig
}

type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds the session store connection. An empty Addr falls back
// to the in-memory store, which only suits a single-process deployment.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type PrintfulConfig struct {
	APIKey        string
	WebhookSecret string
}

type SweeperConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	cfg := &Config{
		Env:       getEnv("ENV", "dev"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Port:      getEnvInt("PORT", 3000),
		PublicURL: getEnv("PUBLIC_URL", "http://localhost:3000"),
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "volund"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       int(getEnvInt("REDIS_DB", 0)),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", "sk_test_your_key_here"),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", "whsec_your_webhook_secret_here"),
		},
		Printful: PrintfulConfig{
			APIKey:        getEnv("PRINTFUL_API_KEY", ""),
			WebhookSecret: getEnv("PRINTFUL_WEBHOOK_SECRET", ""),
		},
		Sweeper: SweeperConfig{
			Interval:  getEnvDuration("SWEEP_INTERVAL", 24*time.Hour),
			Retention: getEnvDuration("ORDER_RETENTION", 24*time.Hour),
		},
	}

	if cfg.Env == "prod" && cfg.Printful.APIKey == "" {
		return nil, fmt.Errorf("PRINTFUL_API_KEY is required in production")
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
// Session cookies are marked Secure only in production.
func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
