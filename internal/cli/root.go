// Package cli implements the scrip command-line interface.
//
// The package keeps CLI state in package-level variables, the usual shape
// for cobra applications: globals are initialized in PersistentPreRunE and
// released in PersistentPostRun.
//
//nolint:gochecknoglobals // cobra CLI pattern requires package-level state
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scriplabs/scrip/internal/config"
	"github.com/scriplabs/scrip/internal/output"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

var (
	// Global flags.
	homeDir      string
	networkFlag  string
	outputFormat string
	verbose      bool

	// Global state initialized in PersistentPreRunE.
	cfg       *config.Config
	formatter *output.Formatter
	logCloser io.Closer
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "scrip",
	Short: "Account identity and funding for the scrip ledger",
	Long: `Scrip derives deterministic account identities from BIP39 mnemonics,
resolves their ledger addresses through the gateway, and keeps test-network
accounts funded through the faucet.

Example:
  scrip wallet new main --save
  scrip address --wallet main --wait
  scrip balance --wallet main
  scrip fund --wallet main --min 100 --target 1000`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initGlobals()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	walkCommands(rootCmd, enrichParentLong)

	err := rootCmd.Execute()
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(os.Stderr, err, format)
		return err
	}
	return nil
}

// ExitCode returns the appropriate process exit code for an error.
func ExitCode(err error) int {
	return scriperr.ExitCode(err)
}

// initGlobals loads configuration and sets up logging and output.
func initGlobals() error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	if err != nil {
		// Missing or unreadable config falls back to defaults.
		cfg = config.Defaults()
	}
	cfg.Home = home

	config.ApplyEnvironment(cfg)

	// Command-line flags override file and environment.
	if homeDir != "" {
		cfg.Home = homeDir
	}
	if networkFlag != "" {
		cfg.Network = networkFlag
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}

	logCloser, err = config.SetupLogging(cfg.Logging)
	if err != nil {
		// A broken log file must not block the command.
		logCloser = nil
	}

	explicit := output.ParseFormat(cfg.GetOutputFormat())
	formatter = output.NewFormatter(output.DetectFormat(os.Stdout, explicit), os.Stdout)

	return nil
}

// cleanup releases resources held by the globals.
func cleanup() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}

// Config returns the global configuration.
func Config() *config.Config {
	return cfg
}

// Formatter returns the global output formatter.
func Formatter() *output.Formatter {
	return formatter
}

//nolint:gochecknoinits // cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "scrip data directory (default: ~/.scrip)")
	rootCmd.PersistentFlags().StringVar(&networkFlag, "network", "", "ledger network: mainnet, stokenet")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
