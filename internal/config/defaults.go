package config

// DefaultNetwork is the network used when none is configured. New
// wallets land on the test network; mainnet is always an explicit
// choice.
const DefaultNetwork = "stokenet"

// DefaultGatewayTimeoutSeconds bounds individual gateway requests.
const DefaultGatewayTimeoutSeconds = 30

// DefaultSessionTTLMinutes is how long an unlocked wallet stays
// cached before the password is required again.
const DefaultSessionTTLMinutes = 15

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.scrip",
		Network: DefaultNetwork,
		Gateway: GatewayConfig{
			URL:            "",
			TimeoutSeconds: DefaultGatewayTimeoutSeconds,
		},
		Faucet: FaucetConfig{
			URL: "",
		},
		Wallet: WalletConfig{
			Scheme:                "hash",
			ResolveTimeoutSeconds: 30,
			MaxPollAttempts:       10,
			PollIntervalMs:        500,
			AddressCache:          true,
		},
		Funding: FundingConfig{
			MinimumBalance:    "100",
			TargetBalance:     "1000",
			HighWaterMark:     "10000",
			SettlementSeconds: 5,
		},
		Security: SecurityConfig{
			MemoryLock:        true,
			SessionEnabled:    true,
			SessionTTLMinutes: DefaultSessionTTLMinutes,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.scrip/scrip.log",
		},
	}
}
