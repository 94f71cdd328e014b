package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriplabs/scrip/internal/ledger"
)

func TestRunAddressUpdatesStoredRecord(t *testing.T) {
	setupTest(t)
	withMockPrompts(t, promptScript{password: testPassword})

	addr := testAddress(t, ledger.Stokenet, 0x70)
	srv := newGatewayServer(t, addr, nil)
	cfg.Gateway.URL = srv.URL

	seedWalletRecord(t, "main", "")
	setFlag(t, &addressWallet, "main")
	setFlag(t, &addressWait, true)

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, runAddress(cmd, nil))

	assert.Equal(t, addr+"\n", stdout.String())

	// Resolution is written back to the stored record.
	rec, err := openStore().LoadMetadata("main")
	require.NoError(t, err)
	assert.Equal(t, addr, rec.Address)
}

func TestRunAddressJSON(t *testing.T) {
	setupTest(t)
	buf := useJSON(t)
	withMockPrompts(t, promptScript{password: testPassword})

	addr := testAddress(t, ledger.Stokenet, 0x71)
	srv := newGatewayServer(t, addr, nil)
	cfg.Gateway.URL = srv.URL

	seedWalletRecord(t, "main", "")
	setFlag(t, &addressWallet, "main")
	setFlag(t, &addressWait, true)

	cmd, _, _ := newTestCommand()
	require.NoError(t, runAddress(cmd, nil))

	var resp addressResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "main", resp.Wallet)
	assert.Equal(t, uint32(0), resp.Index)
	assert.NotEmpty(t, resp.Path)
	assert.Equal(t, "hash", resp.Scheme)
	assert.NotEmpty(t, resp.PublicKey)
	assert.Equal(t, addr, resp.Address)
	assert.True(t, resp.Resolved)
}

func TestRunAddressOtherIndexLeavesRecordAlone(t *testing.T) {
	setupTest(t)
	withMockPrompts(t, promptScript{password: testPassword})

	addr := testAddress(t, ledger.Stokenet, 0x72)
	srv := newGatewayServer(t, addr, nil)
	cfg.Gateway.URL = srv.URL

	seedWalletRecord(t, "main", "")
	setFlag(t, &addressWallet, "main")
	setFlag(t, &addressIndex, uint32(2))
	setFlag(t, &addressWait, true)

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, runAddress(cmd, nil))

	assert.Contains(t, stdout.String(), addr)

	// Only account 0 is the record's identity.
	rec, err := openStore().LoadMetadata("main")
	require.NoError(t, err)
	assert.Empty(t, rec.Address)
}

func TestRunAddressPendingWithoutWait(t *testing.T) {
	setupTest(t)
	withMockPrompts(t, promptScript{password: testPassword})

	// Derivation is down; the placeholder is still usable output.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	cfg.Gateway.URL = srv.URL

	seedWalletRecord(t, "main", "")
	setFlag(t, &addressWallet, "main")

	cmd, stdout, stderr := newTestCommand()
	require.NoError(t, runAddress(cmd, nil))

	assert.Contains(t, stdout.String(), "(pending resolution)")
	assert.Contains(t, stderr.String(), "--wait")

	rec, err := openStore().LoadMetadata("main")
	require.NoError(t, err)
	assert.Empty(t, rec.Address)
}

func TestRunAddressQROffTerminal(t *testing.T) {
	setupTest(t)
	withMockPrompts(t, promptScript{password: testPassword})

	addr := testAddress(t, ledger.Stokenet, 0x73)
	srv := newGatewayServer(t, addr, nil)
	cfg.Gateway.URL = srv.URL

	seedWalletRecord(t, "main", "")
	setFlag(t, &addressWallet, "main")
	setFlag(t, &addressWait, true)
	setFlag(t, &addressQR, true)

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, runAddress(cmd, nil))

	// Buffers are not terminals, so the QR block is suppressed and the
	// address stays machine-readable.
	assert.Equal(t, addr+"\n", stdout.String())
}
