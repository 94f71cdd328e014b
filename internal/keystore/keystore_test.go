package keystore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriplabs/scrip/internal/keystore"
	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/secure"
	"github.com/scriplabs/scrip/internal/wallet"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

func TestMain(m *testing.M) {
	secure.SetScryptWorkFactor(10) // Fast for tests
	os.Exit(m.Run())
}

const testMnemonic = "legal winner thank year wave sausage worth useful legal " +
	"winner thank year wave sausage worth useful legal winner thank year " +
	"wave sausage worth title"

func newTestRecord(t *testing.T, name string) *keystore.Record {
	t.Helper()

	rec, err := keystore.NewRecord(name, ledger.Stokenet, wallet.SchemeHash)
	require.NoError(t, err)
	return rec
}

func TestStoreSaveAndLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := keystore.NewStore(dir)
	password := []byte("correct horse battery staple")

	mnemonic, err := wallet.GenerateMnemonic()
	require.NoError(t, err)

	rec := newTestRecord(t, "primary")
	require.NoError(t, store.Save(rec, mnemonic, password))

	path := filepath.Join(dir, "primary.scrip")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// The mnemonic must not appear in plaintext on disk.
	raw, err := os.ReadFile(path) // #nosec G304 -- test-owned temp path
	require.NoError(t, err)
	assert.NotContains(t, string(raw), mnemonic)

	loaded, gotMnemonic, err := store.Load("primary", password)
	require.NoError(t, err)
	assert.Equal(t, mnemonic, gotMnemonic)
	assert.Equal(t, rec.Name, loaded.Name)
	assert.Equal(t, ledger.Stokenet, loaded.Network)
	assert.Equal(t, wallet.SchemeHash, loaded.Scheme)
	assert.Equal(t, 1, loaded.Version)
	assert.False(t, loaded.CreatedAt.IsZero())
}

func TestStoreLoadMetadataNeedsNoPassword(t *testing.T) {
	t.Parallel()

	store := keystore.NewStore(t.TempDir())
	rec := newTestRecord(t, "watchonly")
	require.NoError(t, store.Save(rec, testMnemonic, []byte("pw")))

	meta, err := store.LoadMetadata("watchonly")
	require.NoError(t, err)
	assert.Equal(t, "watchonly", meta.Name)
	assert.Equal(t, ledger.Stokenet, meta.Network)
}

func TestStoreLoadWrongPassword(t *testing.T) {
	t.Parallel()

	store := keystore.NewStore(t.TempDir())
	rec := newTestRecord(t, "primary")
	require.NoError(t, store.Save(rec, testMnemonic, []byte("correct-password")))

	_, _, err := store.Load("primary", []byte("wrong-password"))
	require.Error(t, err)
	assert.ErrorIs(t, err, scriperr.ErrDecryptionFailed)
}

func TestStoreLoadNotFound(t *testing.T) {
	t.Parallel()

	store := keystore.NewStore(t.TempDir())

	_, _, err := store.Load("nonexistent", []byte("password"))
	assert.ErrorIs(t, err, scriperr.ErrKeystoreNotFound)

	_, err = store.LoadMetadata("nonexistent")
	assert.ErrorIs(t, err, scriperr.ErrKeystoreNotFound)
}

func TestStoreSaveDuplicate(t *testing.T) {
	t.Parallel()

	store := keystore.NewStore(t.TempDir())
	rec := newTestRecord(t, "primary")
	require.NoError(t, store.Save(rec, testMnemonic, []byte("pw")))

	err := store.Save(rec, testMnemonic, []byte("pw"))
	require.Error(t, err)
	assert.ErrorIs(t, err, scriperr.ErrKeystoreExists)
}

func TestStoreExists(t *testing.T) {
	t.Parallel()

	store := keystore.NewStore(t.TempDir())

	exists, err := store.Exists("primary")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Save(newTestRecord(t, "primary"), testMnemonic, []byte("pw")))

	exists, err = store.Exists("primary")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = store.Exists("not a valid name")
	assert.ErrorIs(t, err, scriperr.ErrInvalidInput)
}

func TestStoreList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := keystore.NewStore(dir)

	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, name := range []string{"bravo", "alpha", "charlie"} {
		require.NoError(t, store.Save(newTestRecord(t, name), testMnemonic, []byte("pw")))
	}

	// Unrelated files and directories are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "backup.scrip"), 0o750))

	names, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, names)
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	store := keystore.NewStore(t.TempDir())
	require.NoError(t, store.Save(newTestRecord(t, "doomed"), testMnemonic, []byte("pw")))

	require.NoError(t, store.Delete("doomed"))

	exists, err := store.Exists("doomed")
	require.NoError(t, err)
	assert.False(t, exists)

	err = store.Delete("doomed")
	assert.ErrorIs(t, err, scriperr.ErrKeystoreNotFound)
}

func TestStoreUpdateAddress(t *testing.T) {
	t.Parallel()

	store := keystore.NewStore(t.TempDir())
	password := []byte("pw")
	require.NoError(t, store.Save(newTestRecord(t, "primary"), testMnemonic, password))

	const resolved = "account_tdx_2_12yf9gd53yfep7a669fv2t3wm7nz9zeezwd04n02a433ker8vza6rhe"
	require.NoError(t, store.UpdateAddress("primary", resolved))

	meta, err := store.LoadMetadata("primary")
	require.NoError(t, err)
	assert.Equal(t, resolved, meta.Address)

	// The encrypted mnemonic survives the rewrite.
	loaded, mnemonic, err := store.Load("primary", password)
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, mnemonic)
	assert.Equal(t, resolved, loaded.Address)
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	valid := []string{
		"a",
		"mywallet",
		"My_Wallet-2",
		"0123456789",
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", // 64 chars
	}
	for _, name := range valid {
		assert.NoError(t, keystore.ValidateName(name), "name %q", name)
	}

	invalid := []string{
		"",
		"has space",
		"has/slash",
		"../traversal",
		"dot.name",
		"wallet!",
		"émile",
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", // 65 chars
	}
	for _, name := range invalid {
		err := keystore.ValidateName(name)
		require.Error(t, err, "name %q", name)
		assert.ErrorIs(t, err, scriperr.ErrInvalidInput, "name %q", name)
	}
}

func TestSuggestName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "already valid", input: "myWallet123", expected: "myWallet123"},
		{name: "spaces removed", input: "my wallet name", expected: "mywalletname"},
		{name: "leading whitespace", input: "  mywallet", expected: "mywallet"},
		{name: "symbols removed", input: "my@wallet!", expected: "mywallet"},
		{name: "periods removed", input: "my.wallet.name", expected: "mywalletname"},
		{name: "keeps underscores and hyphens", input: "my_wallet-name", expected: "my_wallet-name"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			suggested := keystore.SuggestName(tc.input)
			assert.Equal(t, tc.expected, suggested)
			if suggested != "" {
				assert.NoError(t, keystore.ValidateName(suggested))
			}
		})
	}
}

func TestNewRecord(t *testing.T) {
	t.Parallel()

	rec, err := keystore.NewRecord("primary", ledger.Mainnet, wallet.SchemeBIP44)
	require.NoError(t, err)
	assert.Equal(t, ledger.Mainnet, rec.Network)
	assert.Equal(t, wallet.SchemeBIP44, rec.Scheme)
	assert.Empty(t, rec.Address)

	_, err = keystore.NewRecord("bad name", ledger.Stokenet, wallet.SchemeHash)
	assert.ErrorIs(t, err, scriperr.ErrInvalidInput)

	_, err = keystore.NewRecord("primary", ledger.Network("testnet9"), wallet.SchemeHash)
	assert.ErrorIs(t, err, scriperr.ErrInvalidInput)
}
