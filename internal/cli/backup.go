package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/scriplabs/scrip/internal/backup"
	"github.com/scriplabs/scrip/internal/keystore"
	"github.com/scriplabs/scrip/internal/secure"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

//nolint:gochecknoglobals // cobra CLI pattern requires package-level flag variables
var (
	// backupRestoreName renames the wallet on restore.
	backupRestoreName string
	// backupVerifyDeep additionally tests decryption during verify.
	backupVerifyDeep bool
)

// backupCmd is the parent command for backup operations.
//
//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage wallet backups",
	Long: `Create, verify, and restore encrypted wallet backups.

A backup bundles the wallet record and its mnemonic into a single
portable file, encrypted with the wallet password and protected by a
checksum. Backups live under the scrip home directory but can be
copied anywhere.`,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var backupCreateCmd = &cobra.Command{
	Use:   "create <wallet>",
	Short: "Create a wallet backup",
	Long: `Create an encrypted backup of a stored wallet.

The backup file is written to the backups directory under the scrip
home with a timestamped name. Restoring it requires the wallet
password used here.

Example:
  scrip backup create main`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupCreate,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var backupVerifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Verify a backup file",
	Long: `Verify the structure and checksum of a backup file.

With --deep the wallet password is asked for and decryption is tested
as well, proving the backup can actually be restored.

Example:
  scrip backup verify ~/.scrip/backups/main-2026-01-15-110500.scripbak
  scrip backup verify backup.scripbak --deep`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupVerify,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var backupRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore a wallet from a backup",
	Long: `Restore a wallet from an encrypted backup file.

The wallet is stored again under its original name, or under --name
when given. Restoring never overwrites an existing wallet.

Example:
  scrip backup restore ~/.scrip/backups/main-2026-01-15-110500.scripbak
  scrip backup restore backup.scripbak --name recovered`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupRestore,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var backupListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List backup files",
	Long:    `List the backup files in the backups directory.`,
	Aliases: []string{"ls"},
	RunE:    runBackupList,
}

//nolint:gochecknoinits // cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupVerifyCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupListCmd)

	backupVerifyCmd.Flags().BoolVar(&backupVerifyDeep, "deep", false, "also test decryption with the wallet password")
	backupRestoreCmd.Flags().StringVar(&backupRestoreName, "name", "", "store the restored wallet under this name")
}

// backupService wires the backup service to the configured home.
func backupService(store *keystore.Store) *backup.Service {
	return backup.NewService(backupsPath(), store)
}

// backupCreateResponse is the JSON shape for backup create.
type backupCreateResponse struct {
	File     string `json:"file"`
	Wallet   string `json:"wallet"`
	Network  string `json:"network"`
	Address  string `json:"address,omitempty"`
	Checksum string `json:"checksum"`
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	store := openStore()
	svc := backupService(store)

	if _, err := store.LoadMetadata(name); err != nil {
		return err
	}

	password, err := promptPasswordFn("Enter wallet password: ")
	if err != nil {
		return err
	}
	defer secure.Zero(password)

	bak, path, err := svc.Create(name, password)
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(backupCreateResponse{
			File:     path,
			Wallet:   bak.Manifest.WalletName,
			Network:  bak.Manifest.Network,
			Address:  bak.Manifest.Address,
			Checksum: bak.Checksum,
		})
	}

	w := cmd.OutOrStdout()
	outln(w, "Backup created.")
	outln(w)
	out(w, "  File:     %s\n", path)
	out(w, "  Wallet:   %s\n", bak.Manifest.WalletName)
	out(w, "  Network:  %s\n", bak.Manifest.Network)
	out(w, "  Checksum: %s\n", bak.Checksum[:16]+"...")
	outln(w)
	outln(w, "Store the file securely; restoring it requires the wallet password.")
	return nil
}

// backupVerifyResponse is the JSON shape for backup verify.
type backupVerifyResponse struct {
	File      string `json:"file"`
	Valid     bool   `json:"valid"`
	Decrypted bool   `json:"decrypted,omitempty"`
	Wallet    string `json:"wallet"`
	Network   string `json:"network"`
	CreatedAt string `json:"created_at"`
}

func runBackupVerify(cmd *cobra.Command, args []string) error {
	path := args[0]
	svc := backupService(openStore())

	manifest, err := svc.Verify(path)
	if err != nil {
		return err
	}

	decrypted := false
	if backupVerifyDeep {
		password, promptErr := promptPasswordFn("Enter wallet password: ")
		if promptErr != nil {
			return promptErr
		}
		defer secure.Zero(password)

		if _, err = svc.VerifyWithDecryption(path, password); err != nil {
			return err
		}
		decrypted = true
	}

	if formatter.IsJSON() {
		return formatter.Print(backupVerifyResponse{
			File:      path,
			Valid:     true,
			Decrypted: decrypted,
			Wallet:    manifest.WalletName,
			Network:   manifest.Network,
			CreatedAt: manifest.CreatedAt.Format(time.RFC3339),
		})
	}

	w := cmd.OutOrStdout()
	outln(w, "Backup verified.")
	outln(w)
	out(w, "  Wallet:  %s\n", manifest.WalletName)
	out(w, "  Network: %s\n", manifest.Network)
	out(w, "  Created: %s\n", manifest.CreatedAt.Format("2006-01-02 15:04:05"))
	if decrypted {
		outln(w)
		outln(w, "Decryption tested successfully.")
	}
	return nil
}

// backupRestoreResponse is the JSON shape for backup restore.
type backupRestoreResponse struct {
	Name    string `json:"name"`
	Network string `json:"network"`
	Scheme  string `json:"scheme"`
	Address string `json:"address,omitempty"`
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	path := args[0]
	store := openStore()
	svc := backupService(store)

	manifest, err := svc.Verify(path)
	if err != nil {
		return err
	}

	name := manifest.WalletName
	if backupRestoreName != "" {
		name = backupRestoreName
	}
	exists, err := store.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		return scriperr.WithSuggestion(
			scriperr.WithDetails(scriperr.ErrKeystoreExists, map[string]string{"wallet": name}),
			"pass --name to restore under a different name",
		)
	}

	password, err := promptPasswordFn("Enter backup password: ")
	if err != nil {
		return err
	}
	defer secure.Zero(password)

	rec, err := svc.Restore(path, password, backupRestoreName)
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(backupRestoreResponse{
			Name:    rec.Name,
			Network: rec.Network.String(),
			Scheme:  string(rec.Scheme),
			Address: rec.Address,
		})
	}

	w := cmd.OutOrStdout()
	out(w, "Wallet '%s' restored.\n", rec.Name)
	outln(w)
	out(w, "  Network: %s\n", rec.Network)
	out(w, "  Scheme:  %s\n", rec.Scheme)
	if rec.Address != "" {
		out(w, "  Address: %s\n", rec.Address)
	}
	outln(w)
	outln(w, "Inspect it with: scrip wallet show "+rec.Name)
	return nil
}

func runBackupList(cmd *cobra.Command, _ []string) error {
	svc := backupService(openStore())

	backups, err := svc.List()
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		if backups == nil {
			backups = []string{}
		}
		return formatter.Print(backups)
	}

	w := cmd.OutOrStdout()
	if len(backups) == 0 {
		outln(w, "No backups found.")
		outln(w, "Create one with: scrip backup create <wallet>")
		return nil
	}

	outln(w, "Backups:")
	for _, b := range backups {
		out(w, "  %s\n", b)
	}
	outln(w)
	out(w, "Backup directory: %s\n", backupsPath())
	return nil
}
