package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome              = "SCRIP_HOME"
	EnvNetwork           = "SCRIP_NETWORK"
	EnvGatewayURL        = "SCRIP_GATEWAY_URL"
	EnvFaucetURL         = "SCRIP_FAUCET_URL"
	EnvDerivationScheme  = "SCRIP_DERIVATION_SCHEME"
	EnvOutputFormat      = "SCRIP_OUTPUT_FORMAT"
	EnvVerbose           = "SCRIP_VERBOSE"
	EnvLogLevel          = "SCRIP_LOG_LEVEL"
	EnvNoColor           = "NO_COLOR"
	EnvSettlementSeconds = "SCRIP_SETTLEMENT_SECONDS"
	EnvSessionTTL        = "SCRIP_SESSION_TTL"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvNetwork); v != "" {
		cfg.Network = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvGatewayURL); v != "" {
		cfg.Gateway.URL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvFaucetURL); v != "" {
		cfg.Faucet.URL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvDerivationScheme); v != "" {
		cfg.Wallet.Scheme = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}

	// SCRIP_SETTLEMENT_SECONDS overrides the post-funding wait
	if v := os.Getenv(EnvSettlementSeconds); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Funding.SettlementSeconds = secs
		}
	}

	// SCRIP_SESSION_TTL sets the unlock session timeout in minutes
	if v := os.Getenv(EnvSessionTTL); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil && ttl > 0 {
			cfg.Security.SessionTTLMinutes = ttl
		}
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL cleans a URL string by removing invalid characters and trimming whitespace.
// This is useful for cleaning user-provided endpoint URLs that may contain copy-paste artifacts.
func SanitizeURL(url string) string {
	return sanitize.URL(strings.TrimSpace(url))
}
