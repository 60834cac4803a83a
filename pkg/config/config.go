package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Polymarket API
	PolymarketClobURL  string
	PolymarketGammaURL string
	PolymarketDataURL  string
	PolygonRPCURL      string
	APIKey             string
	Secret             string
	Passphrase         string

	// Wallet
	PrivateKey            string
	SignerAddress         string
	FunderAddress         string
	SignatureTypeOverride string // "" or "proxy-link"

	// Market screening
	MarketLimit  int
	MinOdds      float64
	MaxOdds      float64
	MinLiquidity float64

	// Consensus
	OpinionModels  []string
	OpinionAPIURL  string
	OpinionAPIKey  string
	ConsensusQuorum int
	MinAgreement   int
	OpinionTimeout time.Duration

	// Sizing
	Bankroll       float64 // 0 means resolve from on-chain USDC balance
	MaxBetFraction float64

	// Cycle
	CycleInterval time.Duration
	CycleDeadline time.Duration

	// Reconciliation
	ReconcileInterval time.Duration

	// Storage
	StorageMode  string // "postgres" or "memory"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// DefaultOpinionModels is the 3-model consensus roster: one fast model
// from each of three independent providers.
var DefaultOpinionModels = []string{
	"openai/gpt-4o-mini",
	"google/gemini-2.5-flash",
	"anthropic/claude-haiku-4.5",
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Polymarket API defaults
		PolymarketClobURL:  getEnvOrDefault("POLYMARKET_CLOB_URL", "https://clob.polymarket.com"),
		PolymarketGammaURL: getEnvOrDefault("POLYMARKET_GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		PolymarketDataURL:  getEnvOrDefault("POLYMARKET_DATA_API_URL", "https://data-api.polymarket.com"),
		PolygonRPCURL:      getEnvOrDefault("POLYGON_RPC_URL", "https://polygon-rpc.com"),
		APIKey:             os.Getenv("POLYMARKET_API_KEY"),
		Secret:             os.Getenv("POLYMARKET_SECRET"),
		Passphrase:         os.Getenv("POLYMARKET_PASSPHRASE"),

		// Wallet defaults
		PrivateKey:            os.Getenv("POLYMARKET_PRIVATE_KEY"),
		SignerAddress:         os.Getenv("POLYMARKET_SIGNER_ADDRESS"),
		FunderAddress:         os.Getenv("POLYMARKET_FUNDER_ADDRESS"),
		SignatureTypeOverride: os.Getenv("SIGNATURE_TYPE_OVERRIDE"),

		// Screening defaults
		MarketLimit:  getIntOrDefault("MARKET_LIMIT", 20),
		MinOdds:      getFloat64OrDefault("MIN_ODDS", 0.05),
		MaxOdds:      getFloat64OrDefault("MAX_ODDS", 0.95),
		MinLiquidity: getFloat64OrDefault("MIN_LIQUIDITY", 1000.0),

		// Consensus defaults
		OpinionModels:   getListOrDefault("OPINION_MODELS", DefaultOpinionModels),
		OpinionAPIURL:   getEnvOrDefault("OPINION_API_URL", "https://api.blockrun.ai/v1"),
		OpinionAPIKey:   os.Getenv("OPINION_API_KEY"),
		ConsensusQuorum: getIntOrDefault("CONSENSUS_QUORUM", 2),
		MinAgreement:    getIntOrDefault("MIN_AGREEMENT", 2),
		OpinionTimeout:  getDurationOrDefault("OPINION_TIMEOUT", 30*time.Second),

		// Sizing defaults
		Bankroll:       getFloat64OrDefault("BANKROLL", 0),
		MaxBetFraction: getFloat64OrDefault("MAX_BET_FRACTION", 0.05),

		// Cycle defaults
		CycleInterval: getDurationOrDefault("CYCLE_INTERVAL", 6*time.Hour),
		CycleDeadline: getDurationOrDefault("CYCLE_DEADLINE", 5*time.Minute),

		// Reconciliation defaults
		ReconcileInterval: getDurationOrDefault("RECONCILE_INTERVAL", time.Minute),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "memory"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "polymarket"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "polymarket123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "polymarket_agent"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.PolymarketClobURL == "" {
		return fmt.Errorf("POLYMARKET_CLOB_URL cannot be empty")
	}

	if c.PolymarketGammaURL == "" {
		return fmt.Errorf("POLYMARKET_GAMMA_API_URL cannot be empty")
	}

	if c.MinOdds <= 0 || c.MinOdds >= 1.0 {
		return fmt.Errorf("MIN_ODDS must be between 0 and 1.0, got %f", c.MinOdds)
	}

	if c.MaxOdds <= 0 || c.MaxOdds >= 1.0 {
		return fmt.Errorf("MAX_ODDS must be between 0 and 1.0, got %f", c.MaxOdds)
	}

	if c.MinOdds >= c.MaxOdds {
		return fmt.Errorf("MIN_ODDS (%f) must be less than MAX_ODDS (%f)", c.MinOdds, c.MaxOdds)
	}

	if c.MinLiquidity < 0 {
		return fmt.Errorf("MIN_LIQUIDITY cannot be negative, got %f", c.MinLiquidity)
	}

	if c.MaxBetFraction <= 0 || c.MaxBetFraction > 1.0 {
		return fmt.Errorf("MAX_BET_FRACTION must be between 0 and 1.0, got %f", c.MaxBetFraction)
	}

	if len(c.OpinionModels) == 0 {
		return fmt.Errorf("OPINION_MODELS cannot be empty")
	}

	if c.ConsensusQuorum <= 0 || c.ConsensusQuorum > len(c.OpinionModels) {
		return fmt.Errorf("CONSENSUS_QUORUM must be between 1 and %d, got %d",
			len(c.OpinionModels), c.ConsensusQuorum)
	}

	if c.SignatureTypeOverride != "" && c.SignatureTypeOverride != "proxy-link" {
		return fmt.Errorf("SIGNATURE_TYPE_OVERRIDE must be empty or 'proxy-link', got %q", c.SignatureTypeOverride)
	}

	if c.StorageMode != "memory" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'memory' or 'postgres', got %q", c.StorageMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		return defaultValue
	}

	return out
}
