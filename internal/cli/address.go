package cli

import (
	"github.com/spf13/cobra"

	"github.com/scriplabs/scrip/internal/output"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

//nolint:gochecknoglobals // cobra CLI pattern requires package-level flag variables
var (
	// addressWallet names the stored wallet to use.
	addressWallet string
	// addressIndex selects the account index.
	addressIndex uint32
	// addressWait blocks until the address is resolved.
	addressWait bool
	// addressQR renders the address as a terminal QR code.
	addressQR bool
)

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Show an account address",
	Long: `Show the ledger address for an account of a stored wallet.

Freshly derived accounts carry a placeholder until the gateway resolves
the real address. Use --wait to block until resolution finishes.

Example:
  scrip address --wallet main
  scrip address --wallet main --wait
  scrip address --wallet main --index 2 --wait
  scrip address --wallet main --qr`,
	RunE: runAddress,
}

//nolint:gochecknoinits // cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(addressCmd)

	addressCmd.Flags().StringVar(&addressWallet, "wallet", "", "stored wallet name (required)")
	addressCmd.Flags().Uint32Var(&addressIndex, "index", 0, "account index")
	addressCmd.Flags().BoolVar(&addressWait, "wait", false, "wait for address resolution")
	addressCmd.Flags().BoolVar(&addressQR, "qr", false, "render the address as a QR code")

	_ = addressCmd.MarkFlagRequired("wallet")
}

// addressResponse is the JSON shape for the address command.
type addressResponse struct {
	Wallet    string `json:"wallet"`
	Index     uint32 `json:"index"`
	Path      string `json:"path"`
	Scheme    string `json:"scheme"`
	PublicKey string `json:"public_key"`
	Address   string `json:"address"`
	Resolved  bool   `json:"resolved"`
}

func runAddress(cmd *cobra.Command, _ []string) error {
	ctx, cancel := contextWithTimeout(cmd, cfg.ResolveTimeout()+cfg.GatewayTimeout())
	defer cancel()

	w, rec, err := openWallet(ctx, cmd, addressWallet)
	if err != nil {
		return err
	}
	defer w.Close()

	account, err := w.SwitchAccount(ctx, addressIndex)
	if err != nil {
		return err
	}

	if addressWait {
		if err := w.WaitForProperAddress(ctx); err != nil {
			return scriperr.Wrap(err, "waiting for address resolution")
		}
	}

	state := account.Address()

	// Keep the stored record current once account 0 has a real address.
	if addressIndex == 0 && state.Resolved() && rec.Address != state.String() {
		if err := openStore().UpdateAddress(rec.Name, state.String()); err != nil {
			outln(cmd.ErrOrStderr(), "Warning: could not update the stored record:", err)
		}
	}

	if formatter.IsJSON() {
		return formatter.Print(addressResponse{
			Wallet:    rec.Name,
			Index:     account.Index(),
			Path:      account.Path(),
			Scheme:    string(account.Scheme()),
			PublicKey: w.PublicKeyHex(),
			Address:   state.String(),
			Resolved:  state.Resolved(),
		})
	}

	stdout := cmd.OutOrStdout()
	if state.Resolved() {
		outln(stdout, state.String())
		if addressQR {
			if err := output.RenderQR(stdout, state.String()); err != nil {
				return err
			}
		}
		return nil
	}

	out(stdout, "%s (pending resolution)\n", state.String())
	out(cmd.ErrOrStderr(), "Run again with --wait to block until the gateway resolves it.\n")
	return nil
}
