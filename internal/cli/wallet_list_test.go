package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriplabs/scrip/internal/keystore"
	"github.com/scriplabs/scrip/internal/ledger"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

func TestRunWalletListEmpty(t *testing.T) {
	setupTest(t)

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, runWalletList(cmd, nil))

	got := stdout.String()
	assert.Contains(t, got, "No wallets found.")
	assert.Contains(t, got, "scrip wallet new <name> --save")
}

func TestRunWalletListTable(t *testing.T) {
	setupTest(t)

	addr := testAddress(t, ledger.Stokenet, 0x40)
	seedWalletRecord(t, "main", addr)
	seedWalletRecord(t, "dev", "")

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, runWalletList(cmd, nil))

	got := stdout.String()
	assert.Contains(t, got, "NAME")
	assert.Contains(t, got, "NETWORK")
	assert.Contains(t, got, "main")
	assert.Contains(t, got, addr)
	assert.Contains(t, got, "dev")
	assert.Contains(t, got, "(unresolved)")
}

func TestRunWalletListJSON(t *testing.T) {
	setupTest(t)
	buf := useJSON(t)

	seedWalletRecord(t, "bravo", "")
	seedWalletRecord(t, "alpha", "")

	cmd, _, _ := newTestCommand()
	require.NoError(t, runWalletList(cmd, nil))

	var records []*keystore.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)

	// Listing order is deterministic.
	assert.Equal(t, "alpha", records[0].Name)
	assert.Equal(t, "bravo", records[1].Name)
}

func TestRunWalletShow(t *testing.T) {
	setupTest(t)

	seedWalletRecord(t, "main", "")

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, runWalletShow(cmd, []string{"main"}))

	got := stdout.String()
	assert.Contains(t, got, "Name:     main")
	assert.Contains(t, got, "Network:  stokenet")
	assert.Contains(t, got, "Scheme:   hash")
	assert.Contains(t, got, "Address:  (unresolved)")
	assert.Contains(t, got, "scrip address --wallet main --wait")
}

func TestRunWalletShowResolved(t *testing.T) {
	setupTest(t)

	addr := testAddress(t, ledger.Stokenet, 0x41)
	seedWalletRecord(t, "main", addr)

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, runWalletShow(cmd, []string{"main"}))

	got := stdout.String()
	assert.Contains(t, got, "Address:  "+addr)
	assert.NotContains(t, got, "--wait")
}

func TestRunWalletShowNotFound(t *testing.T) {
	setupTest(t)

	cmd, _, _ := newTestCommand()
	err := runWalletShow(cmd, []string{"ghost"})
	require.Error(t, err)
	assert.ErrorIs(t, err, scriperr.ErrKeystoreNotFound)
}

func TestRunWalletDeleteConfirmed(t *testing.T) {
	setupTest(t)
	withMockPrompts(t, promptScript{confirm: true})

	seedWalletRecord(t, "doomed", "")

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, runWalletDelete(cmd, []string{"doomed"}))
	assert.Contains(t, stdout.String(), "Wallet 'doomed' deleted.")

	exists, err := openStore().Exists("doomed")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunWalletDeleteAborted(t *testing.T) {
	setupTest(t)
	withMockPrompts(t, promptScript{confirm: false})

	seedWalletRecord(t, "kept", "")

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, runWalletDelete(cmd, []string{"kept"}))
	assert.Contains(t, stdout.String(), "Aborted.")

	exists, err := openStore().Exists("kept")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRunWalletDeleteYesSkipsPrompt(t *testing.T) {
	setupTest(t)
	setFlag(t, &deleteYes, true)

	// No confirm mock installed; the real prompt reads nothing from a
	// test stdin and answers no, so the delete only happens if --yes
	// short-circuits the prompt.
	seedWalletRecord(t, "doomed", "")

	cmd, _, _ := newTestCommand()
	require.NoError(t, runWalletDelete(cmd, []string{"doomed"}))

	err := openStore().Delete("doomed")
	require.Error(t, err)
	assert.ErrorIs(t, err, scriperr.ErrKeystoreNotFound)
}
