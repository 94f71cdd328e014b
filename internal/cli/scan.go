package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/scriplabs/scrip/internal/discovery"
	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/output"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

//nolint:gochecknoglobals // cobra CLI pattern requires package-level flag variables
var (
	// scanMnemonic supplies the phrase non-interactively.
	scanMnemonic string
	// scanPassphrase scans under this BIP39 passphrase instead of none.
	scanPassphrase string
	// scanScheme restricts the scan to a single derivation scheme.
	scanScheme string
	// scanGapLimit overrides how many consecutive empty accounts end the scan.
	scanGapLimit int
)

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var walletScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for funded accounts",
	Long: `Scan the ledger for funded accounts derived from a mnemonic.

Each derivation scheme is walked index by index until a run of empty
accounts as long as the gap limit is seen. Use this after restoring a
mnemonic on a new machine, when the set of previously used accounts is
unknown.

Nothing is stored; once the right scheme is known, import the wallet
with 'wallet restore --save'.

Example:
  scrip wallet scan
  scrip wallet scan --scheme bip44
  scrip wallet scan --gap-limit 50 --passphrase "hidden vault"`,
	RunE: runWalletScan,
}

//nolint:gochecknoinits // cobra CLI pattern requires init for command registration
func init() {
	walletCmd.AddCommand(walletScanCmd)

	walletScanCmd.Flags().StringVar(&scanMnemonic, "mnemonic", "", "mnemonic phrase (omit for hidden prompt)")
	walletScanCmd.Flags().StringVar(&scanPassphrase, "passphrase", "", "BIP39 passphrase the accounts were derived with")
	walletScanCmd.Flags().StringVar(&scanScheme, "scheme", "", "scan only this derivation scheme: hash, bip44")
	walletScanCmd.Flags().IntVar(&scanGapLimit, "gap-limit", 0, "consecutive empty accounts that end the scan (0 = default)")
}

func runWalletScan(cmd *cobra.Command, _ []string) error {
	network, err := resolvedNetwork()
	if err != nil {
		return err
	}

	mnemonic, err := obtainMnemonic(cmd, scanMnemonic)
	if err != nil {
		return err
	}

	opts := discovery.DefaultOptions()
	if scanGapLimit > 0 {
		opts.GapLimit = scanGapLimit
		opts.ExtendedGapLimit = scanGapLimit
	}
	if scanPassphrase != "" {
		opts.Passphrases = []string{scanPassphrase}
	}
	if scanScheme != "" {
		profile := discovery.ProfileByName(scanScheme)
		if profile == nil {
			return scriperr.WithSuggestion(
				scriperr.WithDetails(scriperr.ErrInvalidInput,
					map[string]string{"scheme": scanScheme}),
				"known schemes: hash, bip44",
			)
		}
		opts.Profiles = []discovery.Profile{*profile}
	}
	if !formatter.IsJSON() {
		opts.Progress = scanProgressPrinter(cmd.ErrOrStderr())
	}

	ctx, cancel := contextWithTimeout(cmd, discovery.DefaultTimeout)
	defer cancel()

	scanner := discovery.NewParallelScanner(scanGateway(network), network, opts, 0)
	result, err := scanner.ScanParallel(ctx, mnemonic)
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(result)
	}
	return printScanResult(cmd, network, result)
}

// scanProgressPrinter serializes progress lines from concurrent scan
// workers onto one stream. Per-index gateway errors are suppressed;
// profile-level failures surface in the result.
func scanProgressPrinter(w io.Writer) discovery.ProgressFunc {
	var mu sync.Mutex
	return func(p discovery.Progress) {
		if p.Message == "" || p.Phase == "error" {
			return
		}
		mu.Lock()
		outln(w, p.Message)
		mu.Unlock()
	}
}

func printScanResult(cmd *cobra.Command, network ledger.Network, result *discovery.Result) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	for _, msg := range result.Errors {
		out(stderr, "Warning: %s\n", msg)
	}

	out(stdout, "Scanned %d accounts (%s) on %s in %s.\n",
		result.AccountsScanned,
		strings.Join(result.ProfilesScanned, ", "),
		network,
		result.Duration.Round(time.Millisecond))

	if !result.HasFunds() {
		outln(stdout, "No funded accounts discovered.")
		outln(stdout, "A larger --gap-limit reaches deeper account indexes.")
		return nil
	}

	outln(stdout)
	table := output.NewTable("INDEX", "SCHEME", "ADDRESS", "BALANCE")
	for _, account := range result.AllAccounts() {
		table.AddRow(
			fmt.Sprintf("%d", account.Index),
			string(account.Scheme),
			account.Address,
			ledger.FormatAmount(account.Balance)+" XRD",
		)
	}
	if err := table.Render(stdout); err != nil {
		return err
	}

	out(stdout, "\nTotal: %s XRD\n", ledger.FormatAmount(result.TotalBalance))
	if result.PassphraseUsed {
		outln(stdout, "Accounts were found under the supplied passphrase.")
	}
	outln(stdout, "Import with 'scrip wallet restore --save' using the matching --scheme.")
	return nil
}
