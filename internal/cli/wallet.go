package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scriplabs/scrip/internal/keystore"
	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/output"
	"github.com/scriplabs/scrip/internal/secure"
	"github.com/scriplabs/scrip/internal/shamir"
	"github.com/scriplabs/scrip/internal/wallet"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

//nolint:gochecknoglobals // cobra CLI pattern requires package-level flag variables
var (
	// newScheme overrides the configured derivation scheme.
	newScheme string
	// newSave persists the new wallet to the keystore.
	newSave bool
	// newSplitShares splits the mnemonic into this many shares when > 0.
	newSplitShares int
	// newSplitThreshold is how many shares reconstruct the mnemonic.
	newSplitThreshold int
	// restoreMnemonic supplies the phrase non-interactively.
	restoreMnemonic string
	// restoreShares supplies mnemonic shares instead of the phrase.
	restoreShares []string
	// restoreScheme overrides the configured derivation scheme.
	restoreScheme string
	// restoreSave persists the restored wallet to the keystore.
	restoreSave bool
	// deleteYes skips the confirmation prompt.
	deleteYes bool
)

// walletCmd is the parent command for wallet operations.
//
//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallet identities",
	Long:  `Create, restore, list, and manage deterministic wallet identities.`,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var walletNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Generate a new wallet",
	Long: `Generate a fresh 24-word mnemonic and derive account 0.

The mnemonic is displayed exactly once - write it down and store it
securely. With --save the wallet is encrypted with a password and stored
under the scrip home directory, which requires a name.

With --split-shares the mnemonic is additionally split into Shamir
shares. Any --split-threshold of them reconstruct the phrase via
'wallet restore --share'.

Example:
  scrip wallet new
  scrip wallet new main --save
  scrip wallet new hw --save --scheme bip44
  scrip wallet new main --save --split-shares 5 --split-threshold 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWalletNew,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var walletRestoreCmd = &cobra.Command{
	Use:   "restore [name]",
	Short: "Restore a wallet from a mnemonic",
	Long: `Restore a wallet from an existing BIP39 mnemonic phrase.

Without --mnemonic the phrase is read interactively with hidden input.
A wallet created with --split-shares can instead be restored from its
shares, passing --share once per share.

Example:
  scrip wallet restore
  scrip wallet restore main --save
  scrip wallet restore main --save --mnemonic "legal winner thank ..."
  scrip wallet restore main --save --share scrip-v1-... --share scrip-v1-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWalletRestore,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var walletListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List stored wallets",
	Long:    `List the wallets stored in the scrip home directory.`,
	Aliases: []string{"ls"},
	RunE:    runWalletList,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var walletShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show stored wallet details",
	Long: `Show metadata for a stored wallet.

Metadata never includes key material, so no password is required.`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletShow,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var walletDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Short:   "Delete a stored wallet",
	Long:    `Delete a stored wallet record. The mnemonic inside it is lost.`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE:    runWalletDelete,
}

//nolint:gochecknoinits // cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletNewCmd)
	walletCmd.AddCommand(walletRestoreCmd)
	walletCmd.AddCommand(walletListCmd)
	walletCmd.AddCommand(walletShowCmd)
	walletCmd.AddCommand(walletDeleteCmd)

	walletNewCmd.Flags().StringVar(&newScheme, "scheme", "", "derivation scheme: hash, bip44")
	walletNewCmd.Flags().BoolVar(&newSave, "save", false, "encrypt and store the wallet")
	walletNewCmd.Flags().IntVar(&newSplitShares, "split-shares", 0, "split the mnemonic into this many shares")
	walletNewCmd.Flags().IntVar(&newSplitThreshold, "split-threshold", 2, "shares required to reconstruct the mnemonic")

	walletRestoreCmd.Flags().StringVar(&restoreMnemonic, "mnemonic", "", "mnemonic phrase (omit for hidden prompt)")
	walletRestoreCmd.Flags().StringArrayVar(&restoreShares, "share", nil, "mnemonic share (repeat for each share)")
	walletRestoreCmd.Flags().StringVar(&restoreScheme, "scheme", "", "derivation scheme: hash, bip44")
	walletRestoreCmd.Flags().BoolVar(&restoreSave, "save", false, "encrypt and store the wallet")

	walletDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip confirmation")
}

// walletResponse is the JSON shape for wallet new/restore.
type walletResponse struct {
	Name     string   `json:"name,omitempty"`
	Network  string   `json:"network"`
	Scheme   string   `json:"scheme"`
	Address  string   `json:"address"`
	Resolved bool     `json:"resolved"`
	Mnemonic string   `json:"mnemonic,omitempty"`
	Shares   []string `json:"shares,omitempty"`
	Saved    bool     `json:"saved"`
}

func runWalletNew(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	if err := checkSaveName(newSave, name); err != nil {
		return err
	}
	if err := checkSplitFlags(newSplitShares, newSplitThreshold); err != nil {
		return err
	}

	network, err := resolvedNetwork()
	if err != nil {
		return err
	}
	opts, err := walletOptions(network, newScheme)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, cfg.ResolveTimeout()+cfg.GatewayTimeout())
	defer cancel()

	w, mnemonic, err := wallet.Generate(ctx, walletDeriver(network), opts)
	if err != nil {
		return err
	}
	defer w.Close()

	if waitErr := w.WaitForProperAddress(ctx); waitErr != nil {
		outln(cmd.ErrOrStderr(), "Warning: address not resolved yet; the wallet still works with a placeholder.")
	}

	var shares []string
	if newSplitShares > 0 {
		if shares, err = splitMnemonic(mnemonic, newSplitShares, newSplitThreshold); err != nil {
			return err
		}
	}

	saved := false
	if newSave {
		if err := saveWallet(name, network, opts.Scheme, mnemonic, w.AddressState()); err != nil {
			return err
		}
		saved = true
	}

	state := w.AddressState()
	if formatter.IsJSON() {
		return formatter.Print(walletResponse{
			Name:     name,
			Network:  network.String(),
			Scheme:   string(opts.Scheme),
			Address:  state.String(),
			Resolved: state.Resolved(),
			Mnemonic: mnemonic,
			Shares:   shares,
			Saved:    saved,
		})
	}

	displayMnemonic(cmd, mnemonic)
	if len(shares) > 0 {
		displayShares(cmd, shares, newSplitThreshold)
	}
	displayIdentity(cmd, network.String(), string(opts.Scheme), state)
	if saved {
		outln(cmd.OutOrStdout())
		out(cmd.OutOrStdout(), "Wallet '%s' saved under %s\n", name, keystorePath())
	}
	return nil
}

func runWalletRestore(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	if err := checkSaveName(restoreSave, name); err != nil {
		return err
	}

	mnemonic, err := restoreSeedPhrase(cmd)
	if err != nil {
		return err
	}

	network, err := resolvedNetwork()
	if err != nil {
		return err
	}
	opts, err := walletOptions(network, restoreScheme)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, cfg.ResolveTimeout()+cfg.GatewayTimeout())
	defer cancel()

	w, err := wallet.New(ctx, mnemonic, walletDeriver(network), opts)
	if err != nil {
		return err
	}
	defer w.Close()

	if waitErr := w.WaitForProperAddress(ctx); waitErr != nil {
		outln(cmd.ErrOrStderr(), "Warning: address not resolved yet; the wallet still works with a placeholder.")
	}

	saved := false
	if restoreSave {
		if err := saveWallet(name, network, opts.Scheme, mnemonic, w.AddressState()); err != nil {
			return err
		}
		saved = true
	}

	state := w.AddressState()
	if formatter.IsJSON() {
		return formatter.Print(walletResponse{
			Name:     name,
			Network:  network.String(),
			Scheme:   string(opts.Scheme),
			Address:  state.String(),
			Resolved: state.Resolved(),
			Saved:    saved,
		})
	}

	displayIdentity(cmd, network.String(), string(opts.Scheme), state)
	if saved {
		outln(cmd.OutOrStdout())
		out(cmd.OutOrStdout(), "Wallet '%s' saved under %s\n", name, keystorePath())
	}
	return nil
}

func runWalletList(cmd *cobra.Command, _ []string) error {
	store := openStore()
	names, err := store.List()
	if err != nil {
		return err
	}

	records := make([]*keystore.Record, 0, len(names))
	for _, name := range names {
		rec, err := store.LoadMetadata(name)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	if formatter.IsJSON() {
		return formatter.Print(records)
	}

	if len(records) == 0 {
		outln(cmd.OutOrStdout(), "No wallets found.")
		outln(cmd.OutOrStdout(), "Create one with: scrip wallet new <name> --save")
		return nil
	}

	table := output.NewTable("NAME", "NETWORK", "SCHEME", "ADDRESS")
	for _, rec := range records {
		table.AddRow(rec.Name, rec.Network.String(), string(rec.Scheme), displayAddress(rec.Address))
	}
	return table.Render(cmd.OutOrStdout())
}

func runWalletShow(cmd *cobra.Command, args []string) error {
	rec, err := openStore().LoadMetadata(args[0])
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(rec)
	}

	w := cmd.OutOrStdout()
	out(w, "Name:     %s\n", rec.Name)
	out(w, "Network:  %s\n", rec.Network)
	out(w, "Scheme:   %s\n", rec.Scheme)
	out(w, "Address:  %s\n", displayAddress(rec.Address))
	out(w, "Created:  %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if rec.Address == "" {
		outln(w)
		out(w, "Resolve the address with: scrip address --wallet %s --wait\n", rec.Name)
	}
	return nil
}

func runWalletDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	if !deleteYes {
		question := fmt.Sprintf("Delete wallet '%s'? Its mnemonic cannot be recovered afterwards.", name)
		if !promptConfirmFn(question) {
			outln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	if err := openStore().Delete(name); err != nil {
		return err
	}

	return output.FormatSuccess(cmd.OutOrStdout(),
		fmt.Sprintf("Wallet '%s' deleted.", name), formatter.Format())
}

// checkSaveName rejects --save without a wallet name.
func checkSaveName(save bool, name string) error {
	if save && name == "" {
		return scriperr.WithSuggestion(scriperr.ErrInvalidInput,
			"--save requires a wallet name, e.g. scrip wallet new main --save")
	}
	return nil
}

// obtainMnemonic takes the phrase from the flag or the hidden prompt and
// validates it, printing typo suggestions for near-miss words.
func obtainMnemonic(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue == "" {
		return promptMnemonicFn()
	}

	mnemonic := wallet.NormalizeMnemonicInput(flagValue)
	if err := wallet.ValidateMnemonic(mnemonic); err != nil {
		if typos := wallet.DetectTypos(mnemonic); len(typos) > 0 {
			outln(cmd.ErrOrStderr(), wallet.FormatTypoSuggestions(typos))
		}
		return "", err
	}
	return mnemonic, nil
}

// restoreSeedPhrase picks the phrase source: shares, the --mnemonic
// flag, or the hidden prompt.
func restoreSeedPhrase(cmd *cobra.Command) (string, error) {
	if len(restoreShares) > 0 {
		if restoreMnemonic != "" {
			return "", scriperr.WithSuggestion(scriperr.ErrInvalidInput,
				"use either --mnemonic or --share, not both")
		}
		return combineShares(restoreShares)
	}
	return obtainMnemonic(cmd, restoreMnemonic)
}

// checkSplitFlags validates share split parameters before any key
// material exists.
func checkSplitFlags(shares, threshold int) error {
	if shares == 0 {
		return nil
	}
	if threshold < 2 {
		return scriperr.WithSuggestion(scriperr.ErrInvalidInput,
			"--split-threshold must be at least 2")
	}
	if shares < threshold {
		return scriperr.WithSuggestion(scriperr.ErrInvalidInput,
			"--split-shares must be at least the threshold")
	}
	if shares > shamir.MaxShares {
		return scriperr.WithSuggestion(scriperr.ErrInvalidInput,
			fmt.Sprintf("--split-shares cannot exceed %d", shamir.MaxShares))
	}
	return nil
}

// splitMnemonic issues threshold shares of the mnemonic's entropy.
func splitMnemonic(mnemonic string, n, threshold int) ([]string, error) {
	entropy, err := wallet.MnemonicEntropy(mnemonic)
	if err != nil {
		return nil, err
	}
	defer secure.Zero(entropy)

	return shamir.Split(entropy, n, threshold)
}

// combineShares rebuilds the mnemonic from its entropy shares.
func combineShares(shares []string) (string, error) {
	entropy, err := shamir.Combine(shares)
	if err != nil {
		return "", scriperr.WithSuggestion(
			scriperr.WithDetails(scriperr.ErrInvalidInput, map[string]string{"reason": err.Error()}),
			"check that the shares are complete and come from the same split")
	}
	defer secure.Zero(entropy)

	return wallet.MnemonicFromEntropy(entropy)
}

// saveWallet encrypts the mnemonic under a freshly prompted password and
// records the resolved address when there is one.
func saveWallet(name string, network ledger.Network, scheme wallet.Scheme, mnemonic string, state wallet.AddressState) error {
	rec, err := keystore.NewRecord(name, network, scheme)
	if err != nil {
		return err
	}
	if state.Resolved() {
		rec.Address = state.String()
	}

	password, err := promptNewPasswordFn()
	if err != nil {
		return err
	}
	defer secure.Zero(password)

	return openStore().Save(rec, mnemonic, password)
}

// displayMnemonic prints the phrase once, numbered in rows of four words.
func displayMnemonic(cmd *cobra.Command, mnemonic string) {
	w := cmd.OutOrStdout()
	outln(w, "Generated a new 24-word mnemonic. Write it down and store it offline.")
	outln(w, "Anyone holding these words controls the wallet.")
	outln(w)

	words := strings.Fields(mnemonic)
	for i := 0; i < len(words); i += 4 {
		row := make([]string, 0, 4)
		for j := i; j < i+4 && j < len(words); j++ {
			row = append(row, fmt.Sprintf("%2d. %-12s", j+1, words[j]))
		}
		outln(w, "  "+strings.Join(row, " "))
	}
	outln(w)
}

// displayShares prints issued shares with the reconstruction threshold.
func displayShares(cmd *cobra.Command, shares []string, threshold int) {
	w := cmd.OutOrStdout()
	out(w, "The mnemonic is split into %d shares; any %d of them recover it.\n", len(shares), threshold)
	outln(w, "Store each share in a separate, secure location.")
	outln(w)
	for i, share := range shares {
		out(w, "  Share %d: %s\n", i+1, share)
	}
	outln(w)
}

// displayIdentity prints the derived identity summary.
func displayIdentity(cmd *cobra.Command, network, scheme string, state wallet.AddressState) {
	w := cmd.OutOrStdout()
	out(w, "Network:  %s\n", network)
	out(w, "Scheme:   %s\n", scheme)
	if state.Resolved() {
		out(w, "Address:  %s\n", state.String())
	} else {
		out(w, "Address:  %s (pending resolution)\n", state.String())
	}
}

// displayAddress substitutes a marker for addresses not yet resolved.
func displayAddress(address string) string {
	if address == "" {
		return "(unresolved)"
	}
	return address
}
