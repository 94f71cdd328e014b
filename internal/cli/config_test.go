package cli

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriplabs/scrip/internal/config"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

func TestRunConfigInit(t *testing.T) {
	setupTest(t)

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, runConfigInit(cmd, nil))

	assert.Contains(t, stdout.String(), "Configuration initialized at")

	data, err := os.ReadFile(config.Path(cfg.Home))
	require.NoError(t, err)
	assert.Contains(t, string(data), "network: stokenet")
}

func TestRunConfigInitRefusesOverwrite(t *testing.T) {
	setupTest(t)

	cmd, _, _ := newTestCommand()
	require.NoError(t, runConfigInit(cmd, nil))

	err := runConfigInit(cmd, nil)
	require.Error(t, err)
	var se *scriperr.Error
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Suggestion, "use --force")

	setFlag(t, &configForce, true)
	assert.NoError(t, runConfigInit(cmd, nil))
}

func TestRunConfigShow(t *testing.T) {
	setupTest(t)

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, runConfigShow(cmd, nil))

	assert.Contains(t, stdout.String(), "network: stokenet")
	assert.Contains(t, stdout.String(), "minimum_balance:    100")
	assert.Contains(t, stdout.String(), "address_cache:           true")
}

func TestRunConfigShowJSON(t *testing.T) {
	setupTest(t)
	buf := useJSON(t)

	cmd, _, _ := newTestCommand()
	require.NoError(t, runConfigShow(cmd, nil))

	var shown config.Config
	require.NoError(t, json.Unmarshal(buf.Bytes(), &shown))
	assert.Equal(t, "stokenet", shown.Network)
	assert.Equal(t, cfg.Home, shown.Home)
}

func TestRunConfigGet(t *testing.T) {
	setupTest(t)

	tests := []struct {
		key  string
		want string
	}{
		{"network", "stokenet"},
		{"version", "1"},
		{"gateway.timeout_seconds", "30"},
		{"wallet.scheme", "hash"},
		{"wallet.address_cache", "true"},
		{"funding.minimum_balance", "100"},
		{"security.session_enabled", "true"},
		{"output.default_format", "auto"},
		{"logging.level", "off"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			cmd, stdout, _ := newTestCommand()
			require.NoError(t, runConfigGet(cmd, []string{tc.key}))
			assert.Equal(t, tc.want+"\n", stdout.String())
		})
	}
}

func TestRunConfigGetUnknownKey(t *testing.T) {
	setupTest(t)

	for _, key := range []string{"nope", "gateway.nope", "warp.speed"} {
		t.Run(key, func(t *testing.T) {
			cmd, _, _ := newTestCommand()
			err := runConfigGet(cmd, []string{key})
			assert.ErrorIs(t, err, scriperr.ErrUnknownConfigKey)
		})
	}
}

func TestRunConfigSet(t *testing.T) {
	setupTest(t)

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, runConfigSet(cmd, []string{"network", "mainnet"}))
	assert.Contains(t, stdout.String(), "Set network = mainnet")

	// The running config and the stored file both carry the change.
	assert.Equal(t, "mainnet", cfg.Network)
	stored, err := config.Load(config.Path(cfg.Home))
	require.NoError(t, err)
	assert.Equal(t, "mainnet", stored.Network)
}

func TestRunConfigSetPreservesOtherKeys(t *testing.T) {
	setupTest(t)

	cmd, _, _ := newTestCommand()
	require.NoError(t, runConfigSet(cmd, []string{"gateway.url", "https://gw.example.com"}))
	require.NoError(t, runConfigSet(cmd, []string{"funding.minimum_balance", "250"}))

	stored, err := config.Load(config.Path(cfg.Home))
	require.NoError(t, err)
	assert.Equal(t, "https://gw.example.com", stored.Gateway.URL)
	assert.Equal(t, "250", stored.Funding.MinimumBalance)
}

func TestRunConfigSetValidation(t *testing.T) {
	setupTest(t)

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown network", "network", "devnet"},
		{"non-numeric timeout", "gateway.timeout_seconds", "soon"},
		{"negative attempts", "wallet.max_poll_attempts", "-3"},
		{"unknown scheme", "wallet.scheme", "rsa"},
		{"bad amount", "funding.minimum_balance", "12x"},
		{"bad bool", "security.session_enabled", "maybe"},
		{"bad format", "output.default_format", "yaml"},
		{"bad color", "output.color", "sometimes"},
		{"bad level", "logging.level", "loud"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, _, _ := newTestCommand()
			err := runConfigSet(cmd, []string{tc.key, tc.value})
			assert.ErrorIs(t, err, scriperr.ErrInvalidInput)
		})
	}
}

func TestRunConfigSetUnknownKey(t *testing.T) {
	setupTest(t)

	cmd, _, _ := newTestCommand()
	err := runConfigSet(cmd, []string{"warp.speed", "9"})
	assert.ErrorIs(t, err, scriperr.ErrUnknownConfigKey)
}

func TestSetConfigValueLogLevels(t *testing.T) {
	setupTest(t)

	c := config.Defaults()
	for _, level := range []string{"off", "error", "debug", "INFO"} {
		require.NoError(t, setConfigValue(c, "logging.level", level))
	}
	assert.Equal(t, "info", c.Logging.Level)
}
