package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

// BIP39 test vectors from https://github.com/trezor/python-mnemonic/blob/master/vectors.json
//
//nolint:gochecknoglobals // BIP39 test vectors from official specification
var validMnemonics = []string{
	"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art",
	"legal winner thank year wave sausage worth useful legal winner thank year wave sausage worth useful legal winner thank year wave sausage worth title",
	"zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo vote",
}

func TestGenerateMnemonic(t *testing.T) {
	t.Parallel()
	mnemonic, err := GenerateMnemonic()
	require.NoError(t, err)

	words := strings.Fields(mnemonic)
	assert.Len(t, words, MnemonicWordCount)

	err = ValidateMnemonic(mnemonic)
	assert.NoError(t, err)
}

func TestGenerateMnemonic_Randomness(t *testing.T) {
	t.Parallel()
	mnemonic1, err := GenerateMnemonic()
	require.NoError(t, err)

	mnemonic2, err := GenerateMnemonic()
	require.NoError(t, err)

	assert.NotEqual(t, mnemonic1, mnemonic2)
}

func TestValidateMnemonic_ValidMnemonics(t *testing.T) {
	t.Parallel()
	for _, mnemonic := range validMnemonics {
		t.Run(mnemonic[:20], func(t *testing.T) {
			t.Parallel()
			assert.NoError(t, ValidateMnemonic(mnemonic))
		})
	}
}

func TestValidateMnemonic_InvalidMnemonics(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		mnemonic string
	}{
		{
			name:     "invalid checksum",
			mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon",
		},
		{
			name:     "invalid word",
			mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon xyz",
		},
		{
			name:     "twelve words",
			mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
		},
		{
			name:     "twenty-three words",
			mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art",
		},
		{
			name:     "empty string",
			mnemonic: "",
		},
		{
			name:     "single word",
			mnemonic: "abandon",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateMnemonic(tc.mnemonic)
			require.Error(t, err)
			assert.ErrorIs(t, err, scriperr.ErrInvalidMnemonic)
		})
	}
}

func TestValidateMnemonic_AcceptsMessyInput(t *testing.T) {
	t.Parallel()
	// 24x abandon...art vector pasted as a numbered, comma separated list.
	words := strings.Fields(validMnemonics[0])
	var b strings.Builder
	for i, w := range words {
		b.WriteString(itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(strings.ToUpper(w))
		b.WriteString(",\n")
	}

	assert.NoError(t, ValidateMnemonic(b.String()))
}

func TestNormalizeMnemonicInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "already normalized",
			input:    "abandon abandon about",
			expected: "abandon abandon about",
		},
		{
			name:     "surrounding whitespace",
			input:    "  abandon abandon about  ",
			expected: "abandon abandon about",
		},
		{
			name:     "multiple spaces between words",
			input:    "abandon   abandon    about",
			expected: "abandon abandon about",
		},
		{
			name:     "tabs and newlines",
			input:    "abandon\tabandon\nabout",
			expected: "abandon abandon about",
		},
		{
			name:     "uppercase",
			input:    "ABANDON ABANDON ABOUT",
			expected: "abandon abandon about",
		},
		{
			name:     "numbered list",
			input:    "1. abandon\n2. abandon\n3. about",
			expected: "abandon abandon about",
		},
		{
			name:     "bullets and commas",
			input:    "- abandon, abandon, about",
			expected: "abandon abandon about",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, NormalizeMnemonicInput(tc.input))
		})
	}
}

// TestSuggestWord tests Levenshtein-based typo detection.
//
//nolint:misspell // Intentional typos for testing
func TestSuggestWord(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string // empty string means no suggestion (too far)
	}{
		{name: "off by one char", input: "abondon", expected: "abandon"},
		{name: "missing letter", input: "abadon", expected: "abandon"},
		{name: "extra letter", input: "abanddon", expected: "abandon"},
		{name: "zoo typo", input: "zooo", expected: "zoo"},
		{name: "exact match", input: "abandon", expected: "abandon"},
		{name: "completely different", input: "xyzqwerty", expected: ""},
		{name: "uppercase typo", input: "ABONDON", expected: "abandon"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, SuggestWord(tc.input))
		})
	}
}

//nolint:misspell // Intentional typos for testing
func TestDetectTypos(t *testing.T) {
	t.Parallel()

	typos := DetectTypos("abandon abondon zoo")
	require.Len(t, typos, 1)
	assert.Equal(t, 1, typos[0].Index)
	assert.Equal(t, "abondon", typos[0].Word)
	assert.Equal(t, "abandon", typos[0].Suggestion)
	assert.Equal(t, 1, typos[0].Distance)

	assert.Nil(t, DetectTypos(""))
	assert.Nil(t, DetectTypos(validMnemonics[0]))
}

//nolint:misspell // Intentional typos for testing
func TestFormatTypoSuggestions(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatTypoSuggestions(nil))

	out := FormatTypoSuggestions(DetectTypos("abondon zoo qqqqqqq"))
	assert.Contains(t, out, "Word 1: 'abondon' - did you mean 'abandon'?")
	assert.Contains(t, out, "Word 3: 'qqqqqqq' is not a valid BIP39 word")
}

func TestMnemonicEntropyRoundTrip(t *testing.T) {
	t.Parallel()
	for _, mnemonic := range validMnemonics {
		entropy, err := MnemonicEntropy(mnemonic)
		require.NoError(t, err)
		assert.Len(t, entropy, 32)

		rebuilt, err := MnemonicFromEntropy(entropy)
		require.NoError(t, err)
		assert.Equal(t, mnemonic, rebuilt)
	}
}

func TestMnemonicEntropy_NormalizesInput(t *testing.T) {
	t.Parallel()
	entropy, err := MnemonicEntropy("  " + strings.ToUpper(validMnemonics[2]) + "\n")
	require.NoError(t, err)

	want, err := MnemonicEntropy(validMnemonics[2])
	require.NoError(t, err)
	assert.Equal(t, want, entropy)
}

func TestMnemonicEntropy_InvalidMnemonic(t *testing.T) {
	t.Parallel()
	_, err := MnemonicEntropy("abandon abandon abandon")
	assert.ErrorIs(t, err, scriperr.ErrInvalidMnemonic)
}

func TestMnemonicFromEntropy_BadLength(t *testing.T) {
	t.Parallel()
	_, err := MnemonicFromEntropy([]byte{1, 2, 3})
	assert.ErrorIs(t, err, scriperr.ErrInvalidMnemonic)
}

func TestIsValidWord(t *testing.T) {
	t.Parallel()
	assert.True(t, IsValidWord("abandon"))
	assert.True(t, IsValidWord("ZOO"))
	assert.False(t, IsValidWord("qqqqqqq"))
	assert.False(t, IsValidWord(""))
}

func TestGetWordList(t *testing.T) {
	t.Parallel()
	words := GetWordList()
	assert.Len(t, words, 2048)
	assert.Equal(t, "abandon", words[0])
}
