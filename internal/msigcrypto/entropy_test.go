package msigcrypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errShortRead = errors.New("short read")

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errShortRead }

// Tests in this file swap the package Reader and must not run in parallel.

func TestRandomBytes(t *testing.T) {
	for _, n := range []int{0, 16, 32, 64} {
		b, err := RandomBytes(n)
		require.NoError(t, err)
		assert.Len(t, b, n)
	}
}

func TestRandomBytes_DeterministicReader(t *testing.T) {
	orig := Reader
	t.Cleanup(func() { Reader = orig })

	Reader = bytes.NewReader(bytes.Repeat([]byte{0x42}, 32))
	b, err := RandomBytes(32)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0x42}, 32), b)
}

func TestRandomBytes_ReaderError(t *testing.T) {
	orig := Reader
	t.Cleanup(func() { Reader = orig })

	Reader = failingReader{}
	_, err := RandomBytes(8)
	require.ErrorIs(t, err, errShortRead)
}

func TestSecureRandomBytes(t *testing.T) {
	sb, err := SecureRandomBytes(32)
	require.NoError(t, err)
	defer sb.Destroy()
	assert.Equal(t, 32, sb.Len())
}

func TestSecureRandomBytes_ReaderError(t *testing.T) {
	orig := Reader
	t.Cleanup(func() { Reader = orig })

	Reader = failingReader{}
	sb, err := SecureRandomBytes(8)
	require.Error(t, err)
	assert.Nil(t, sb)
}
