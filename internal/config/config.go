package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/payoutcore/settlement-service/internal/domain"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Settlement SettlementConfig
	Invoice    InvoiceConfig
	Rails      RailsConfig
	Secrets    SecretsConfig
	Logger     LoggerConfig
}

// ServerConfig holds HTTP/metrics server configuration
type ServerConfig struct {
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// SettlementConfig holds payout aggregation configuration
type SettlementConfig struct {
	// PayoutFeeRate is the transfer fee as a decimal fraction of the charged
	// amount (e.g., "0.02" for 2%)
	PayoutFeeRate decimal.Decimal

	// SweepInterval is how often the aggregation and retry sweeps run
	SweepInterval time.Duration

	// SweepBatchSize bounds how many partners/invoices one sweep pass handles
	SweepBatchSize int32
}

// InvoiceConfig holds funding retry configuration
type InvoiceConfig struct {
	// RetryableTypes is the allow-list of invoice types eligible for
	// automatic funding retry
	RetryableTypes []domain.InvoiceType
}

// RailsConfig holds payout rail provider endpoints
type RailsConfig struct {
	BankBaseURL       string
	StablecoinBaseURL string
	BillingBaseURL    string
	Timeout           time.Duration
}

// SecretsConfig selects and configures the secret manager backend
type SecretsConfig struct {
	// Backend: "aws", "vault", or "env"
	Backend string

	// AWS settings
	AWSRegion   string
	AWSEndpoint string

	// Vault settings
	VaultAddress string
	VaultToken   string

	// Env backend settings
	EnvPrefix string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	feeRate, err := decimal.NewFromString(getEnv("PAYOUT_FEE_RATE", "0.02"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYOUT_FEE_RATE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "settlement_service"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Settlement: SettlementConfig{
			PayoutFeeRate:  feeRate,
			SweepInterval:  getEnvAsDuration("SWEEP_INTERVAL", time.Hour),
			SweepBatchSize: int32(getEnvAsInt("SWEEP_BATCH_SIZE", 500)),
		},
		Invoice: InvoiceConfig{
			RetryableTypes: getEnvAsInvoiceTypes("INVOICE_RETRYABLE_TYPES", []domain.InvoiceType{domain.InvoiceTypePartnerPayout}),
		},
		Rails: RailsConfig{
			BankBaseURL:       getEnv("BANK_RAIL_BASE_URL", "https://api.bankrail.example.com"),
			StablecoinBaseURL: getEnv("STABLECOIN_RAIL_BASE_URL", "https://api.stablerail.example.com"),
			BillingBaseURL:    getEnv("BILLING_BASE_URL", "https://api.billing.example.com"),
			Timeout:           getEnvAsDuration("RAIL_TIMEOUT", 30*time.Second),
		},
		Secrets: SecretsConfig{
			Backend:      getEnv("SECRETS_BACKEND", "env"),
			AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
			AWSEndpoint:  getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress: getEnv("VAULT_ADDR", ""),
			VaultToken:   getEnv("VAULT_TOKEN", ""),
			EnvPrefix:    getEnv("SECRETS_ENV_PREFIX", "SETTLEMENT_"),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Settlement.PayoutFeeRate.IsNegative() {
		return nil, fmt.Errorf("PAYOUT_FEE_RATE must not be negative")
	}
	if cfg.Secrets.Backend == "vault" && cfg.Secrets.VaultAddress == "" {
		return nil, fmt.Errorf("VAULT_ADDR is required for the vault secrets backend")
	}

	return cfg, nil
}

// ConnectionString returns the PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInvoiceTypes(key string, defaultValue []domain.InvoiceType) []domain.InvoiceType {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var types []domain.InvoiceType
	for _, s := range strings.Split(valueStr, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			types = append(types, domain.InvoiceType(s))
		}
	}
	if len(types) == 0 {
		return defaultValue
	}
	return types
}
