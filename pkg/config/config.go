// Package config loads engine configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cosmossdk.io/math"

	"github.com/paw-chain/swaprouter/pkg/lifecycle"
	"github.com/paw-chain/swaprouter/pkg/router"
)

// Config holds all engine configuration
type Config struct {
	// Server configuration
	Environment string
	MetricsPort string
	LogLevel    string

	// Chain configuration
	NodeRPC      string
	ChainID      string
	ChainTimeout time.Duration

	// Registry configuration
	RefreshInterval time.Duration

	// Routing configuration
	MaxHops           int
	MaxCandidatePaths int
	MinLiquidity      int64

	// Quote configuration
	SlippageCeilingBps uint32
	DeadlineWindow     time.Duration
	QuoteCacheTTL      time.Duration

	// Execution configuration
	FeeDenom            string
	GasMultiplier       float64
	ConfirmationTimeout time.Duration
	MEVProtection       bool
	MaxPriceImpactBps   int64
	QueueCapacity       int
	QueueRate           float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		NodeRPC:      getEnv("NODE_RPC", "http://localhost:1317"),
		ChainID:      getEnv("CHAIN_ID", "paw-testnet-1"),
		ChainTimeout: getEnvAsDuration("CHAIN_TIMEOUT", 10*time.Second),

		RefreshInterval: getEnvAsDuration("REFRESH_INTERVAL", 15*time.Second),

		MaxHops:           getEnvAsInt("MAX_HOPS", 3),
		MaxCandidatePaths: getEnvAsInt("MAX_CANDIDATE_PATHS", 32),
		MinLiquidity:      getEnvAsInt64("MIN_LIQUIDITY", 1000),

		SlippageCeilingBps: uint32(getEnvAsInt("SLIPPAGE_CEILING_BPS", 5000)),
		DeadlineWindow:     getEnvAsDuration("DEADLINE_WINDOW", 20*time.Minute),
		QuoteCacheTTL:      getEnvAsDuration("QUOTE_CACHE_TTL", 3*time.Second),

		FeeDenom:            getEnv("FEE_DENOM", "upaw"),
		GasMultiplier:       getEnvAsFloat("GAS_MULTIPLIER", 1.2),
		ConfirmationTimeout: getEnvAsDuration("CONFIRMATION_TIMEOUT", 10*time.Minute),
		MEVProtection:       getEnvAsBool("MEV_PROTECTION", false),
		MaxPriceImpactBps:   getEnvAsInt64("MAX_PRICE_IMPACT_BPS", 500),
		QueueCapacity:       getEnvAsInt("QUEUE_CAPACITY", 256),
		QueueRate:           getEnvAsFloat("QUEUE_RATE", 4),
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.NodeRPC == "" {
		return errors.New("NODE_RPC is required")
	}

	if c.ChainID == "" {
		return errors.New("CHAIN_ID is required")
	}

	if c.MaxHops <= 0 {
		return errors.New("MAX_HOPS must be positive")
	}

	if c.SlippageCeilingBps == 0 || c.SlippageCeilingBps > 10000 {
		return errors.New("SLIPPAGE_CEILING_BPS must be in (0, 10000]")
	}

	if c.GasMultiplier <= 1.0 {
		return errors.New("GAS_MULTIPLIER must be greater than 1")
	}

	if c.RefreshInterval <= 0 {
		return errors.New("REFRESH_INTERVAL must be positive")
	}

	if c.QueueCapacity <= 0 {
		return errors.New("QUEUE_CAPACITY must be positive")
	}

	return nil
}

// RouterParams maps the routing knobs onto router parameters, keeping the
// default penalties and thresholds.
func (c *Config) RouterParams() router.Params {
	p := router.DefaultParams()
	p.MaxHops = c.MaxHops
	p.MaxCandidatePaths = c.MaxCandidatePaths
	p.MinLiquidity = math.NewInt(c.MinLiquidity)
	return p
}

// LifecycleParams maps the execution knobs onto lifecycle parameters.
func (c *Config) LifecycleParams() lifecycle.Params {
	p := lifecycle.DefaultParams()
	p.FeeAsset = c.FeeDenom
	p.GasMultiplier = math.LegacyMustNewDecFromStr(fmt.Sprintf("%.4f", c.GasMultiplier))
	p.ConfirmationTimeout = c.ConfirmationTimeout
	p.MEVProtection = c.MEVProtection
	p.MaxPriceImpactBps = c.MaxPriceImpactBps
	p.QueueCapacity = c.QueueCapacity
	p.QueueRate = c.QueueRate
	return p
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 gets an environment variable as an int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as a float64 or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as a bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if valueStr == "" {
		return defaultValue
	}

	switch valueStr {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}
