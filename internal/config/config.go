// Package config provides configuration management for scrip.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Home     string         `yaml:"home" json:"home"`
	Network  string         `yaml:"network" json:"network"`
	Gateway  GatewayConfig  `yaml:"gateway" json:"gateway"`
	Faucet   FaucetConfig   `yaml:"faucet" json:"faucet"`
	Wallet   WalletConfig   `yaml:"wallet" json:"wallet"`
	Funding  FundingConfig  `yaml:"funding" json:"funding"`
	Security SecurityConfig `yaml:"security" json:"security"`
	Output   OutputConfig   `yaml:"output" json:"output"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// GatewayConfig defines ledger gateway settings. An empty URL selects
// the built-in endpoint for the configured network.
type GatewayConfig struct {
	URL            string `yaml:"url" json:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// FaucetConfig defines faucet service settings. An empty URL selects
// the built-in endpoint for the configured network.
type FaucetConfig struct {
	URL string `yaml:"url" json:"url"`
}

// WalletConfig defines derivation and address resolution settings.
type WalletConfig struct {
	Scheme                string `yaml:"scheme" json:"scheme"`
	ResolveTimeoutSeconds int    `yaml:"resolve_timeout_seconds" json:"resolve_timeout_seconds"`
	MaxPollAttempts       int    `yaml:"max_poll_attempts" json:"max_poll_attempts"`
	PollIntervalMs        int    `yaml:"poll_interval_ms" json:"poll_interval_ms"`
	AddressCache          bool   `yaml:"address_cache" json:"address_cache"`
}

// FundingConfig defines auto-funding amounts. Amounts are decimal
// strings in whole native tokens.
type FundingConfig struct {
	MinimumBalance    string `yaml:"minimum_balance" json:"minimum_balance"`
	TargetBalance     string `yaml:"target_balance" json:"target_balance"`
	HighWaterMark     string `yaml:"high_water_mark" json:"high_water_mark"`
	SettlementSeconds int    `yaml:"settlement_seconds" json:"settlement_seconds"`
}

// SecurityConfig defines security settings.
type SecurityConfig struct {
	MemoryLock        bool `yaml:"memory_lock" json:"memory_lock"`
	SessionEnabled    bool `yaml:"session_enabled" json:"session_enabled"`
	SessionTTLMinutes int  `yaml:"session_ttl_minutes" json:"session_ttl_minutes"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
	Color         string `yaml:"color" json:"color"`
	Verbose       bool   `yaml:"verbose" json:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome returns the scrip home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// GetNetwork returns the configured network name.
func (c *Config) GetNetwork() string {
	return c.Network
}

// GatewayTimeout returns the gateway request timeout.
func (c *Config) GatewayTimeout() time.Duration {
	if c.Gateway.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

// ResolveTimeout returns the background address resolution timeout.
func (c *Config) ResolveTimeout() time.Duration {
	if c.Wallet.ResolveTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Wallet.ResolveTimeoutSeconds) * time.Second
}

// PollInterval returns the address resolution poll interval.
func (c *Config) PollInterval() time.Duration {
	if c.Wallet.PollIntervalMs <= 0 {
		return 0
	}
	return time.Duration(c.Wallet.PollIntervalMs) * time.Millisecond
}

// SettlementDelay returns the post-funding settlement wait.
func (c *Config) SettlementDelay() time.Duration {
	if c.Funding.SettlementSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Funding.SettlementSeconds) * time.Second
}

// SessionTTL returns the unlock session duration. Zero means the
// session manager's default.
func (c *Config) SessionTTL() time.Duration {
	if c.Security.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(c.Security.SessionTTLMinutes) * time.Minute
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// GetSecurity returns the security configuration.
func (c *Config) GetSecurity() SecurityConfig {
	return c.Security
}

// DefaultHome returns the default scrip home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scrip"
	}
	return filepath.Join(home, ".scrip")
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[2:]), nil
}
