// Package config provides configuration loading and management for the application.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// HTTP server port
	Port string

	// Ethereum JSON-RPC endpoint for both upstream reads
	RPCEndpoint string

	// Address of the reference feed pricing the underlying asset
	ReferenceFeedAddress string

	// Address of the wrapped token exposing the exchange rate
	WrappedTokenAddress string

	// Decimal precision the derived feed reports at
	FeedDecimals uint8

	// Human-readable pair description, e.g. "wstETH / ETH"
	FeedDescription string

	// Path to the collateral asset configuration file (optional)
	AssetConfigPath string

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// Whether to sign served responses
	EnableSigning bool

	// Request timeout for upstream reads
	RequestTimeout time.Duration

	// Rate limiting for the EA endpoint
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load creates a new Config from environment variables.
func Load() Config {
	return Config{
		Port:                 GetEnvOrDefault("PORT", "8080"),
		RPCEndpoint:          GetEnvOrDefault("RPC_ENDPOINT", "https://mainnet.infura.io/v3/"),
		ReferenceFeedAddress: GetEnvOrDefault("REFERENCE_FEED_ADDRESS", ""),
		WrappedTokenAddress:  GetEnvOrDefault("WRAPPED_TOKEN_ADDRESS", ""),
		FeedDecimals:         uint8(GetEnvAsInt("FEED_DECIMALS", 18)),
		FeedDescription:      GetEnvOrDefault("FEED_DESCRIPTION", "wstETH / ETH"),
		AssetConfigPath:      GetEnvOrDefault("ASSET_CONFIG_PATH", ""),
		OtelEndpoint:         GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		EnableSigning:        GetEnvAsBool("ENABLE_SIGNING", false),
		RequestTimeout:       GetEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		RateLimitRPS:         GetEnvAsFloat("RATE_LIMIT_RPS", 10.0),
		RateLimitBurst:       GetEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// GetEnv retrieves an environment variable and whether it exists.
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set.
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value.
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value.
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a boolean with a default value.
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value.
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
