package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriplabs/scrip/internal/ledger"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

func fastOptions() Options {
	return Options{
		Network:         ledger.Stokenet,
		MaxPollAttempts: 50,
		PollInterval:    2 * time.Millisecond,
	}
}

func TestNewPending_NoNetworkCalls(t *testing.T) {
	t.Parallel()

	deriver := &fakeDeriver{}
	w, err := NewPending(validMnemonics[0], deriver, fastOptions())
	require.NoError(t, err)
	defer w.Close()

	// Construction is purely local: placeholder address, zero service calls.
	assert.Equal(t, 0, deriver.callCount())
	assert.False(t, w.AddressState().Resolved())
	assert.Equal(t, "pending:account:0", w.Address())
}

func TestNewPending_InvalidMnemonic(t *testing.T) {
	t.Parallel()

	_, err := NewPending("twelve words are not enough for this wallet at all", &fakeDeriver{}, fastOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, scriperr.ErrInvalidMnemonic)
}

func TestWallet_TwoPhaseResolve(t *testing.T) {
	t.Parallel()

	deriver := &fakeDeriver{}
	w, err := NewPending(validMnemonics[0], deriver, fastOptions())
	require.NoError(t, err)
	defer w.Close()

	address, err := w.ResolveAddress(context.Background())
	require.NoError(t, err)

	assert.Equal(t, deterministicAddress(ledger.Stokenet, w.PublicKey()), address)
	assert.Equal(t, address, w.Address())
	assert.True(t, w.AddressState().Resolved())
	assert.NoError(t, ledger.ValidateAddress(ledger.Stokenet, w.Address()))
}

func TestWallet_BackgroundResolution(t *testing.T) {
	t.Parallel()

	deriver := &fakeDeriver{}
	w, err := New(context.Background(), validMnemonics[0], deriver, fastOptions())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.WaitForProperAddress(context.Background()))

	address := w.Address()
	assert.False(t, IsPlaceholderAddress(address))
	assert.NoError(t, ledger.ValidateAddress(ledger.Stokenet, address))

	// Resolution never reverts to the placeholder form.
	for i := 0; i < 5; i++ {
		assert.Equal(t, address, w.Address())
	}
}

func TestWallet_AddressDeterministicAcrossInstances(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	w1, err := New(ctx, validMnemonics[0], &fakeDeriver{}, fastOptions())
	require.NoError(t, err)
	defer w1.Close()

	w2, err := New(ctx, validMnemonics[0], &fakeDeriver{}, fastOptions())
	require.NoError(t, err)
	defer w2.Close()

	require.NoError(t, w1.WaitForProperAddress(ctx))
	require.NoError(t, w2.WaitForProperAddress(ctx))

	// Same mnemonic, same index, same network: identical keys and address.
	assert.Equal(t, w1.PublicKey(), w2.PublicKey())
	assert.Equal(t, w1.Address(), w2.Address())
}

func TestWallet_DifferentMnemonicsDiffer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	w1, err := New(ctx, validMnemonics[0], &fakeDeriver{}, fastOptions())
	require.NoError(t, err)
	defer w1.Close()

	w2, err := New(ctx, validMnemonics[1], &fakeDeriver{}, fastOptions())
	require.NoError(t, err)
	defer w2.Close()

	assert.NotEqual(t, w1.PublicKey(), w2.PublicKey())
}

func TestWallet_Sign(t *testing.T) {
	t.Parallel()

	w, err := NewPending(validMnemonics[0], &fakeDeriver{}, fastOptions())
	require.NoError(t, err)
	defer w.Close()

	msg := []byte("intent to sign")
	sigHex, err := w.Sign(msg)
	require.NoError(t, err)

	sig, err := hex.DecodeString(sigHex)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(w.PublicKey()), msg, sig))
}

func TestWallet_Generate(t *testing.T) {
	t.Parallel()

	w, mnemonic, err := Generate(context.Background(), &fakeDeriver{}, fastOptions())
	require.NoError(t, err)
	defer w.Close()

	assert.NoError(t, ValidateMnemonic(mnemonic))
	require.NoError(t, w.WaitForProperAddress(context.Background()))
	assert.False(t, IsPlaceholderAddress(w.Address()))
}

func TestWallet_SwitchAccount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w, err := New(ctx, validMnemonics[0], &fakeDeriver{}, fastOptions())
	require.NoError(t, err)
	defer w.Close()

	account0 := w.CurrentAccount()

	account2, err := w.SwitchAccount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), w.CurrentAccount().Index())
	assert.NotEqual(t, account0.PublicKey(), account2.PublicKey())

	require.NoError(t, w.WaitForProperAddress(ctx))
	assert.False(t, IsPlaceholderAddress(w.Address()))

	accounts := w.Accounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, uint32(0), accounts[0].Index())
	assert.Equal(t, uint32(2), accounts[1].Index())
}

func TestWallet_PassphraseChangesKeys(t *testing.T) {
	t.Parallel()

	opts := fastOptions()
	w1, err := NewPending(validMnemonics[0], &fakeDeriver{}, opts)
	require.NoError(t, err)
	defer w1.Close()

	opts.Passphrase = "TREZOR"
	w2, err := NewPending(validMnemonics[0], &fakeDeriver{}, opts)
	require.NoError(t, err)
	defer w2.Close()

	assert.NotEqual(t, w1.PublicKey(), w2.PublicKey())
}

func TestWallet_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	w, err := New(context.Background(), validMnemonics[0], &fakeDeriver{}, fastOptions())
	require.NoError(t, err)

	w.Close()
	w.Close()
}

func TestWallet_NetworkDefaultsToStokenet(t *testing.T) {
	t.Parallel()

	w, err := NewPending(validMnemonics[0], &fakeDeriver{}, Options{})
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, ledger.Stokenet, w.Network())
}
