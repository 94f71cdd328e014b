package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scriplabs/scrip/internal/config"
	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/wallet"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

//nolint:gochecknoglobals // cobra CLI pattern requires package-level flag variables
var configForce bool

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify scrip configuration settings.`,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file under the scrip home.

An existing file is never overwritten unless --force is given.

Example:
  scrip config init
  scrip config init --force`,
	RunE: runConfigInit,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration, after file, environment,
and flag overrides.

Example:
  scrip config show
  scrip config show -o json`,
	RunE: runConfigShow,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get one configuration value by its dot-notation key.

Examples:
  scrip config get network
  scrip config get gateway.url
  scrip config get funding.minimum_balance`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set one configuration value by its dot-notation key and write
the file immediately. Values are validated before writing.

Examples:
  scrip config set network stokenet
  scrip config set gateway.url https://gateway.example.com
  scrip config set funding.minimum_balance 250
  scrip config set security.session_enabled false`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoinits // cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	home, err := config.ExpandPath(cfg.GetHome())
	if err != nil {
		home = cfg.GetHome()
	}
	configPath := config.Path(home)

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return scriperr.WithSuggestion(
			scriperr.WithDetails(scriperr.ErrGeneral, map[string]string{"path": configPath}),
			"configuration already exists; use --force to overwrite",
		)
	}

	defaults := config.Defaults()
	defaults.Home = cfg.Home
	if err := config.Save(defaults, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Commonly adjusted keys:")
	outln(w, "  - network: mainnet or stokenet")
	outln(w, "  - gateway.url: custom gateway endpoint")
	outln(w, "  - funding.minimum_balance: auto-funding floor in XRD")
	outln(w, "  - logging.level: off, error, or debug")
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if formatter.IsJSON() {
		return formatter.Print(cfg)
	}

	w := cmd.OutOrStdout()
	outln(w, "Configuration:")
	outln(w)
	out(w, "  home:    %s\n", cfg.Home)
	out(w, "  network: %s\n", cfg.Network)
	outln(w)
	outln(w, "  gateway:")
	out(w, "    url:             %s\n", orUnset(cfg.Gateway.URL))
	out(w, "    timeout_seconds: %d\n", cfg.Gateway.TimeoutSeconds)
	outln(w)
	outln(w, "  faucet:")
	out(w, "    url: %s\n", orUnset(cfg.Faucet.URL))
	outln(w)
	outln(w, "  wallet:")
	out(w, "    scheme:                  %s\n", cfg.Wallet.Scheme)
	out(w, "    resolve_timeout_seconds: %d\n", cfg.Wallet.ResolveTimeoutSeconds)
	out(w, "    max_poll_attempts:       %d\n", cfg.Wallet.MaxPollAttempts)
	out(w, "    poll_interval_ms:        %d\n", cfg.Wallet.PollIntervalMs)
	out(w, "    address_cache:           %t\n", cfg.Wallet.AddressCache)
	outln(w)
	outln(w, "  funding:")
	out(w, "    minimum_balance:    %s\n", cfg.Funding.MinimumBalance)
	out(w, "    target_balance:     %s\n", cfg.Funding.TargetBalance)
	out(w, "    high_water_mark:    %s\n", cfg.Funding.HighWaterMark)
	out(w, "    settlement_seconds: %d\n", cfg.Funding.SettlementSeconds)
	outln(w)
	outln(w, "  security:")
	out(w, "    memory_lock:         %t\n", cfg.Security.MemoryLock)
	out(w, "    session_enabled:     %t\n", cfg.Security.SessionEnabled)
	out(w, "    session_ttl_minutes: %d\n", cfg.Security.SessionTTLMinutes)
	outln(w)
	outln(w, "  output:")
	out(w, "    default_format: %s\n", cfg.Output.DefaultFormat)
	out(w, "    color:          %s\n", cfg.Output.Color)
	out(w, "    verbose:        %t\n", cfg.Output.Verbose)
	outln(w)
	outln(w, "  logging:")
	out(w, "    level: %s\n", cfg.Logging.Level)
	out(w, "    file:  %s\n", orUnset(cfg.Logging.File))
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not configured)"
	}
	return s
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, err := getConfigValue(cfg, args[0])
	if err != nil {
		return err
	}
	outln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	home, err := config.ExpandPath(cfg.GetHome())
	if err != nil {
		home = cfg.GetHome()
	}
	configPath := config.Path(home)

	// Start from the stored file so unrelated in-memory overrides
	// (flags, environment) are not written back.
	stored, err := config.Load(configPath)
	if err != nil {
		stored = config.Defaults()
		stored.Home = cfg.Home
	}

	if err := setConfigValue(stored, key, value); err != nil {
		return err
	}
	if err := config.Save(stored, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	// Apply to the running config too, so chained commands see it.
	_ = setConfigValue(cfg, key, value)

	out(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

func unknownKey(details map[string]string) error {
	return scriperr.WithDetails(scriperr.ErrUnknownConfigKey, details)
}

// getConfigValue reads one value by dot-notation key.
func getConfigValue(c *config.Config, key string) (string, error) {
	parts := strings.SplitN(key, ".", 2)

	if len(parts) == 1 {
		switch parts[0] {
		case "home":
			return c.Home, nil
		case "network":
			return c.Network, nil
		case "version":
			return strconv.Itoa(c.Version), nil
		default:
			return "", unknownKey(map[string]string{"key": key})
		}
	}

	section, field := parts[0], parts[1]
	switch section {
	case "gateway":
		return getGatewayValue(c, field)
	case "faucet":
		return getFaucetValue(c, field)
	case "wallet":
		return getWalletValue(c, field)
	case "funding":
		return getFundingValue(c, field)
	case "security":
		return getSecurityValue(c, field)
	case "output":
		return getOutputValue(c, field)
	case "logging":
		return getLoggingValue(c, field)
	default:
		return "", unknownKey(map[string]string{"section": section})
	}
}

func getGatewayValue(c *config.Config, key string) (string, error) {
	switch key {
	case "url":
		return c.Gateway.URL, nil
	case "timeout_seconds":
		return strconv.Itoa(c.Gateway.TimeoutSeconds), nil
	default:
		return "", unknownKey(map[string]string{"section": "gateway", "key": key})
	}
}

func getFaucetValue(c *config.Config, key string) (string, error) {
	if key == "url" {
		return c.Faucet.URL, nil
	}
	return "", unknownKey(map[string]string{"section": "faucet", "key": key})
}

func getWalletValue(c *config.Config, key string) (string, error) {
	switch key {
	case "scheme":
		return c.Wallet.Scheme, nil
	case "resolve_timeout_seconds":
		return strconv.Itoa(c.Wallet.ResolveTimeoutSeconds), nil
	case "max_poll_attempts":
		return strconv.Itoa(c.Wallet.MaxPollAttempts), nil
	case "poll_interval_ms":
		return strconv.Itoa(c.Wallet.PollIntervalMs), nil
	case "address_cache":
		return strconv.FormatBool(c.Wallet.AddressCache), nil
	default:
		return "", unknownKey(map[string]string{"section": "wallet", "key": key})
	}
}

func getFundingValue(c *config.Config, key string) (string, error) {
	switch key {
	case "minimum_balance":
		return c.Funding.MinimumBalance, nil
	case "target_balance":
		return c.Funding.TargetBalance, nil
	case "high_water_mark":
		return c.Funding.HighWaterMark, nil
	case "settlement_seconds":
		return strconv.Itoa(c.Funding.SettlementSeconds), nil
	default:
		return "", unknownKey(map[string]string{"section": "funding", "key": key})
	}
}

func getSecurityValue(c *config.Config, key string) (string, error) {
	switch key {
	case "memory_lock":
		return strconv.FormatBool(c.Security.MemoryLock), nil
	case "session_enabled":
		return strconv.FormatBool(c.Security.SessionEnabled), nil
	case "session_ttl_minutes":
		return strconv.Itoa(c.Security.SessionTTLMinutes), nil
	default:
		return "", unknownKey(map[string]string{"section": "security", "key": key})
	}
}

func getOutputValue(c *config.Config, key string) (string, error) {
	switch key {
	case "default_format":
		return c.Output.DefaultFormat, nil
	case "color":
		return c.Output.Color, nil
	case "verbose":
		return strconv.FormatBool(c.Output.Verbose), nil
	default:
		return "", unknownKey(map[string]string{"section": "output", "key": key})
	}
}

func getLoggingValue(c *config.Config, key string) (string, error) {
	switch key {
	case "level":
		return c.Logging.Level, nil
	case "file":
		return c.Logging.File, nil
	default:
		return "", unknownKey(map[string]string{"section": "logging", "key": key})
	}
}

// setConfigValue writes one value by dot-notation key, validating it.
func setConfigValue(c *config.Config, key, value string) error {
	parts := strings.SplitN(key, ".", 2)

	if len(parts) == 1 {
		switch parts[0] {
		case "home":
			c.Home = value
			return nil
		case "network":
			network, ok := ledger.ParseNetwork(value)
			if !ok {
				return invalidValue(key, value, "mainnet or stokenet")
			}
			c.Network = network.String()
			return nil
		default:
			return unknownKey(map[string]string{"key": key})
		}
	}

	section, field := parts[0], parts[1]
	switch section {
	case "gateway":
		return setGatewayValue(c, field, value)
	case "faucet":
		return setFaucetValue(c, field, value)
	case "wallet":
		return setWalletValue(c, field, value)
	case "funding":
		return setFundingValue(c, field, value)
	case "security":
		return setSecurityValue(c, field, value)
	case "output":
		return setOutputValue(c, field, value)
	case "logging":
		return setLoggingValue(c, field, value)
	default:
		return unknownKey(map[string]string{"section": section})
	}
}

func invalidValue(key, value, want string) error {
	return scriperr.WithDetails(scriperr.ErrInvalidInput,
		map[string]string{"key": key, "value": value, "want": want})
}

func parseIntValue(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, invalidValue(key, value, "a non-negative integer")
	}
	return n, nil
}

func parseBoolValue(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, invalidValue(key, value, "true or false")
	}
	return b, nil
}

func parseAmountValue(key, value string) (string, error) {
	if _, err := ledger.ParseAmount(value); err != nil {
		return "", invalidValue(key, value, "a decimal XRD amount")
	}
	return value, nil
}

func setGatewayValue(c *config.Config, key, value string) error {
	switch key {
	case "url":
		c.Gateway.URL = value
		return nil
	case "timeout_seconds":
		n, err := parseIntValue("gateway.timeout_seconds", value)
		if err != nil {
			return err
		}
		c.Gateway.TimeoutSeconds = n
		return nil
	default:
		return unknownKey(map[string]string{"section": "gateway", "key": key})
	}
}

func setFaucetValue(c *config.Config, key, value string) error {
	if key == "url" {
		c.Faucet.URL = value
		return nil
	}
	return unknownKey(map[string]string{"section": "faucet", "key": key})
}

func setWalletValue(c *config.Config, key, value string) error {
	switch key {
	case "scheme":
		scheme, err := wallet.ParseScheme(value)
		if err != nil {
			return invalidValue("wallet.scheme", value, "hash or bip44")
		}
		c.Wallet.Scheme = string(scheme)
		return nil
	case "resolve_timeout_seconds":
		n, err := parseIntValue("wallet.resolve_timeout_seconds", value)
		if err != nil {
			return err
		}
		c.Wallet.ResolveTimeoutSeconds = n
		return nil
	case "max_poll_attempts":
		n, err := parseIntValue("wallet.max_poll_attempts", value)
		if err != nil {
			return err
		}
		c.Wallet.MaxPollAttempts = n
		return nil
	case "poll_interval_ms":
		n, err := parseIntValue("wallet.poll_interval_ms", value)
		if err != nil {
			return err
		}
		c.Wallet.PollIntervalMs = n
		return nil
	case "address_cache":
		b, err := parseBoolValue("wallet.address_cache", value)
		if err != nil {
			return err
		}
		c.Wallet.AddressCache = b
		return nil
	default:
		return unknownKey(map[string]string{"section": "wallet", "key": key})
	}
}

func setFundingValue(c *config.Config, key, value string) error {
	switch key {
	case "minimum_balance":
		amount, err := parseAmountValue("funding.minimum_balance", value)
		if err != nil {
			return err
		}
		c.Funding.MinimumBalance = amount
		return nil
	case "target_balance":
		amount, err := parseAmountValue("funding.target_balance", value)
		if err != nil {
			return err
		}
		c.Funding.TargetBalance = amount
		return nil
	case "high_water_mark":
		amount, err := parseAmountValue("funding.high_water_mark", value)
		if err != nil {
			return err
		}
		c.Funding.HighWaterMark = amount
		return nil
	case "settlement_seconds":
		n, err := parseIntValue("funding.settlement_seconds", value)
		if err != nil {
			return err
		}
		c.Funding.SettlementSeconds = n
		return nil
	default:
		return unknownKey(map[string]string{"section": "funding", "key": key})
	}
}

func setSecurityValue(c *config.Config, key, value string) error {
	switch key {
	case "memory_lock":
		b, err := parseBoolValue("security.memory_lock", value)
		if err != nil {
			return err
		}
		c.Security.MemoryLock = b
		return nil
	case "session_enabled":
		b, err := parseBoolValue("security.session_enabled", value)
		if err != nil {
			return err
		}
		c.Security.SessionEnabled = b
		return nil
	case "session_ttl_minutes":
		n, err := parseIntValue("security.session_ttl_minutes", value)
		if err != nil {
			return err
		}
		c.Security.SessionTTLMinutes = n
		return nil
	default:
		return unknownKey(map[string]string{"section": "security", "key": key})
	}
}

func setOutputValue(c *config.Config, key, value string) error {
	switch key {
	case "default_format":
		if value != "text" && value != "json" && value != "auto" {
			return invalidValue("output.default_format", value, "text, json, or auto")
		}
		c.Output.DefaultFormat = value
		return nil
	case "color":
		if value != "auto" && value != "always" && value != "never" {
			return invalidValue("output.color", value, "auto, always, or never")
		}
		c.Output.Color = value
		return nil
	case "verbose":
		b, err := parseBoolValue("output.verbose", value)
		if err != nil {
			return err
		}
		c.Output.Verbose = b
		return nil
	default:
		return unknownKey(map[string]string{"section": "output", "key": key})
	}
}

func setLoggingValue(c *config.Config, key, value string) error {
	switch key {
	case "level":
		level := strings.ToLower(strings.TrimSpace(value))
		if level != config.LogLevelOff && !validLogLevel(level) {
			return invalidValue("logging.level", value, "off or a logrus level (error, warn, info, debug)")
		}
		c.Logging.Level = level
		return nil
	case "file":
		c.Logging.File = value
		return nil
	default:
		return unknownKey(map[string]string{"section": "logging", "key": key})
	}
}

func validLogLevel(level string) bool {
	switch level {
	case "panic", "fatal", "error", "warn", "warning", "info", "debug", "trace":
		return true
	default:
		return false
	}
}
