package hdkey

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

func TestNewSeed_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr error
	}{
		{"too short", 15, msigerr.ErrInsufficientEntropy},
		{"empty", 0, msigerr.ErrInsufficientEntropy},
		{"minimum", 16, nil},
		{"recommended", 32, nil},
		{"maximum", 64, nil},
		{"too long", 65, msigerr.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := NewSeed(bytes.Repeat([]byte{0x01}, tt.size))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer seed.Destroy()
			assert.Equal(t, tt.size, seed.Len())
		})
	}
}

func TestNewSeed_ErrorNamesLength(t *testing.T) {
	_, err := NewSeed(make([]byte, 8))
	var me *msigerr.MultisigError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "8", me.Details["length"])
}

func TestSeed_DestroyZeroes(t *testing.T) {
	seed, err := NewSeed(bytes.Repeat([]byte{0xaa}, 32))
	require.NoError(t, err)

	raw := seed.Bytes()
	seed.Destroy()

	assert.Equal(t, make([]byte, 32), raw)
	assert.Nil(t, seed.Bytes())
}

func TestGenerateSeed(t *testing.T) {
	a, err := GenerateSeed(RecommendedSeedBytes)
	require.NoError(t, err)
	defer a.Destroy()
	b, err := GenerateSeed(RecommendedSeedBytes)
	require.NoError(t, err)
	defer b.Destroy()

	assert.Len(t, a.Bytes(), RecommendedSeedBytes)
	assert.NotEqual(t, a.Bytes(), b.Bytes())

	_, err = GenerateSeed(8)
	require.ErrorIs(t, err, msigerr.ErrInsufficientEntropy)
}

func TestNewMaster_DestroyedSeed(t *testing.T) {
	seed, err := NewSeed(bytes.Repeat([]byte{0x01}, 16))
	require.NoError(t, err)
	seed.Destroy()

	_, err = NewMaster(seed, "testnet")
	require.ErrorIs(t, err, msigerr.ErrInsufficientEntropy)
}
