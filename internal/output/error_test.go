package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

func TestFormatErrorTextStructured(t *testing.T) {
	t.Parallel()

	err := scriperr.WithSuggestion(
		scriperr.WithDetails(scriperr.ErrAddressPending, map[string]string{
			"address": "pending:account:0",
			"index":   "0",
		}),
		"wait for resolution to finish",
	)

	var buf bytes.Buffer
	require.NoError(t, FormatError(&buf, err, FormatText))

	got := buf.String()
	assert.Contains(t, got, "Error: account address has not been resolved yet")
	assert.Contains(t, got, "Details:")
	assert.Contains(t, got, "address: pending:account:0")
	assert.Contains(t, got, "index: 0")
	assert.Contains(t, got, "Suggestion: wait for resolution to finish")
}

func TestFormatErrorTextPlain(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, FormatError(&buf, errors.New("boom"), FormatText))
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestFormatErrorJSONStructured(t *testing.T) {
	t.Parallel()

	err := scriperr.WithDetails(scriperr.ErrFaucetUnavailable,
		map[string]string{"network": "mainnet"})

	var buf bytes.Buffer
	require.NoError(t, FormatError(&buf, err, FormatJSON))

	var out ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "FAUCET_UNAVAILABLE", out.Error.Code)
	assert.Equal(t, "mainnet", out.Error.Details["network"])
	assert.Equal(t, scriperr.ExitGeneral, out.Error.ExitCode)
}

func TestFormatErrorJSONPlain(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, FormatError(&buf, errors.New("boom"), FormatJSON))

	var out ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "GENERAL_ERROR", out.Error.Code)
	assert.Equal(t, "boom", out.Error.Message)
	assert.Equal(t, scriperr.ExitGeneral, out.Error.ExitCode)
}

func TestFormatErrorNil(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, FormatError(&buf, nil, FormatText))
	assert.Empty(t, buf.String())
}

func TestFormatSuccess(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, FormatSuccess(&buf, "funded", FormatText))
	assert.Equal(t, "funded\n", buf.String())

	buf.Reset()
	require.NoError(t, FormatSuccess(&buf, "funded", FormatJSON))

	var out map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "funded", out["message"])
}
