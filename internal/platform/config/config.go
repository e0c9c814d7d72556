package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port         string
	IsProduction bool
	LogLevel     string

	// Ledger
	AmountPrecision          int32
	MaxAmountDigits          int32 // integer digits an amount may carry
	TransferLimit            decimal.Decimal // 0 disables the limit
	LargeWithdrawalThreshold decimal.Decimal // 0 disables the flag
	MaxTransfersPerMinute    int64           // 0 disables the flag
	NotifyTimeout            time.Duration   // bound on archive and publish after each commit

	// HTTP
	RateLimit          string // ulule/limiter formatted rate, per client IP
	AccountRateLimit   string // ulule/limiter formatted rate, per acting account
	CORSAllowedOrigins []string

	// Transaction archive
	DatabaseURL    string
	EnableDBCheck  bool
	MigrationsPath string

	// Event publishing
	KafkaBrokers []string
	KafkaTopic   string

	// Analytics
	PosthogAPIKey   string
	PosthogEndpoint string
}

// ArchiveEnabled reports whether committed transactions are archived to Postgres.
func (c *Config) ArchiveEnabled() bool {
	return c.DatabaseURL != ""
}

// EventsEnabled reports whether committed transactions are published to Kafka.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AMOUNT_PRECISION", 2)
	v.SetDefault("MAX_AMOUNT_DIGITS", 15)
	v.SetDefault("NOTIFY_TIMEOUT", "5s")
	v.SetDefault("TRANSFER_LIMIT", "1000")
	v.SetDefault("LARGE_WITHDRAWAL_THRESHOLD", "10000")
	v.SetDefault("MAX_TRANSFERS_PER_MINUTE", 5)
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("ACCOUNT_RATE_LIMIT", "10-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "wallet.transaction_committed")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("POSTHOG_ENDPOINT", "https://eu.i.posthog.com")

	// Environment variables override the defaults above, including values loaded from .env.
	v.AutomaticEnv()

	cfg := &Config{
		Port:             v.GetString("PORT"),
		IsProduction:     v.GetBool("IS_PRODUCTION"),
		LogLevel:         strings.ToLower(v.GetString("LOG_LEVEL")),
		RateLimit:        v.GetString("RATE_LIMIT"),
		AccountRateLimit: v.GetString("ACCOUNT_RATE_LIMIT"),
		DatabaseURL:      v.GetString("PGSQL_URL"),
		EnableDBCheck:    v.GetBool("ENABLE_DB_CHECK"),
		MigrationsPath:   v.GetString("MIGRATIONS_PATH"),
		KafkaTopic:       v.GetString("KAFKA_TOPIC"),
		PosthogAPIKey:    v.GetString("POSTHOG_API_KEY"),
		PosthogEndpoint:  v.GetString("POSTHOG_ENDPOINT"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	precision := v.GetInt("AMOUNT_PRECISION")
	if precision < 0 || precision > 18 {
		return nil, fmt.Errorf("AMOUNT_PRECISION must be between 0 and 18, got %d", precision)
	}
	cfg.AmountPrecision = int32(precision)

	maxDigits := v.GetInt("MAX_AMOUNT_DIGITS")
	if maxDigits < 1 || maxDigits > 30 {
		return nil, fmt.Errorf("MAX_AMOUNT_DIGITS must be between 1 and 30, got %d", maxDigits)
	}
	cfg.MaxAmountDigits = int32(maxDigits)

	cfg.NotifyTimeout = v.GetDuration("NOTIFY_TIMEOUT")
	if cfg.NotifyTimeout <= 0 {
		return nil, fmt.Errorf("NOTIFY_TIMEOUT must be a positive duration, got '%s'", v.GetString("NOTIFY_TIMEOUT"))
	}

	var err error
	if cfg.TransferLimit, err = nonNegativeDecimal(v, "TRANSFER_LIMIT"); err != nil {
		return nil, err
	}
	if cfg.LargeWithdrawalThreshold, err = nonNegativeDecimal(v, "LARGE_WITHDRAWAL_THRESHOLD"); err != nil {
		return nil, err
	}

	cfg.MaxTransfersPerMinute = v.GetInt64("MAX_TRANSFERS_PER_MINUTE")
	if cfg.MaxTransfersPerMinute < 0 {
		return nil, fmt.Errorf("MAX_TRANSFERS_PER_MINUTE must not be negative, got %d", cfg.MaxTransfersPerMinute)
	}

	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set. Transaction archive disabled.")
	}

	return cfg, nil
}

func nonNegativeDecimal(v *viper.Viper, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid value for %s ('%s'): %w", key, raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative, got %s", key, raw)
	}
	return d, nil
}

// splitList parses a comma separated list, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
