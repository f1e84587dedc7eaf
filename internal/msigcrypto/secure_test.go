package msigcrypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisig/internal/msigcrypto"
)

func TestSecureBytes_Creation(t *testing.T) {
	t.Parallel()
	sb, err := msigcrypto.NewSecureBytes(32)
	require.NoError(t, err)
	defer sb.Destroy()

	assert.Len(t, sb.Bytes(), 32)
	assert.Equal(t, 32, sb.Len())
}

func TestSecureBytes_DestroyZeroes(t *testing.T) {
	t.Parallel()
	sb, err := msigcrypto.NewSecureBytes(32)
	require.NoError(t, err)

	data := sb.Bytes()
	for i := range data {
		data[i] = byte(i + 1)
	}

	sb.Destroy()

	for i, b := range data {
		assert.Zero(t, b, "byte %d not zeroed", i)
	}
	assert.Nil(t, sb.Bytes())
	assert.Equal(t, 0, sb.Len())
	assert.False(t, sb.IsLocked())
}

func TestSecureBytes_DoubleDestroy(t *testing.T) {
	t.Parallel()
	sb, err := msigcrypto.NewSecureBytes(16)
	require.NoError(t, err)

	sb.Destroy()
	assert.NotPanics(t, sb.Destroy)
}

func TestSecureBytesFromSlice_Copies(t *testing.T) {
	t.Parallel()
	src := []byte{1, 2, 3, 4}
	sb, err := msigcrypto.SecureBytesFromSlice(src)
	require.NoError(t, err)
	defer sb.Destroy()

	src[0] = 9
	assert.Equal(t, []byte{1, 2, 3, 4}, sb.Bytes())
}

func TestZero(t *testing.T) {
	t.Parallel()
	b := []byte{0xde, 0xad, 0xbe, 0xef}
	msigcrypto.Zero(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)
	assert.NotPanics(t, func() { msigcrypto.Zero(nil) })
}
