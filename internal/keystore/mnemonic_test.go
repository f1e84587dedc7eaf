package keystore

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisig/internal/msigcrypto"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

const abandonMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerateMnemonic(t *testing.T) {
	for _, words := range []int{12, 24} {
		m, err := GenerateMnemonic(words)
		require.NoError(t, err)
		assert.Len(t, strings.Fields(m), words)
		require.NoError(t, ValidateMnemonic(m))
	}

	_, err := GenerateMnemonic(18)
	require.ErrorIs(t, err, msigerr.ErrInvalidInput)
}

func TestGenerateMnemonic_UsesEntropyReader(t *testing.T) {
	orig := msigcrypto.Reader
	t.Cleanup(func() { msigcrypto.Reader = orig })

	msigcrypto.Reader = bytes.NewReader(make([]byte, 16))
	m, err := GenerateMnemonic(12)
	require.NoError(t, err)
	assert.Equal(t, abandonMnemonic, m)
}

func TestValidateMnemonic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		wantErr    bool
		suggestion string
	}{
		{"valid", abandonMnemonic, false, ""},
		{"numbered list", "1. abandon\n2. abandon\n3. abandon\n4. abandon\n5. abandon\n6. abandon\n" +
			"7. abandon\n8. abandon\n9. abandon\n10. abandon\n11. abandon\n12. about", false, ""},
		{"commas and caps", strings.ReplaceAll(strings.ToUpper(abandonMnemonic), " ", ", "), false, ""},
		{"empty", "   ", true, ""},
		{"wrong count", "abandon abandon abandon", true, ""},
		{"typo", strings.Replace(abandonMnemonic, "about", "abuot", 1), true, "did you mean"},
		{"bad checksum", strings.Replace(abandonMnemonic, "about", "abandon", 1), true, "checksum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateMnemonic(tt.input)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, msigerr.ErrInvalidMnemonic)
			if tt.suggestion != "" {
				var me *msigerr.MultisigError
				require.ErrorAs(t, err, &me)
				assert.Contains(t, me.Suggestion, tt.suggestion)
			}
		})
	}
}

func TestSuggestWord(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abandon", SuggestWord("abandon"))
	assert.Equal(t, "abandon", SuggestWord("abandn"))
	assert.Empty(t, SuggestWord("qqqqqqqqqq"))
}

func TestDetectTypos(t *testing.T) {
	t.Parallel()
	typos := DetectTypos("abandon abandn zzzzzzzz about")
	require.Len(t, typos, 2)
	assert.Equal(t, 1, typos[0].Index)
	assert.Equal(t, "abandon", typos[0].Suggestion)
	assert.Equal(t, 1, typos[0].Distance)
	assert.Equal(t, 2, typos[1].Index)
	assert.Empty(t, typos[1].Suggestion)

	formatted := FormatTypoSuggestions(typos)
	assert.Equal(t, "Word 2: 'abandn' - did you mean 'abandon'?\nWord 3: 'zzzzzzzz' is not a valid BIP39 word", formatted)
	assert.Empty(t, FormatTypoSuggestions(nil))
}

func TestMnemonicToSeed(t *testing.T) {
	t.Parallel()
	seed, err := MnemonicToSeed(abandonMnemonic, "")
	require.NoError(t, err)
	defer seed.Destroy()
	assert.Equal(t, 64, seed.Len())

	withPass, err := MnemonicToSeed(abandonMnemonic, "TREZOR")
	require.NoError(t, err)
	defer withPass.Destroy()
	assert.NotEqual(t, seed.Bytes(), withPass.Bytes())

	_, err = MnemonicToSeed("abandon", "")
	require.ErrorIs(t, err, msigerr.ErrInvalidMnemonic)
}
