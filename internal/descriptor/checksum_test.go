package descriptor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisig/internal/descriptor"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

func TestDescriptorChecksum(t *testing.T) {
	sum, err := descriptor.DescriptorChecksum("raw(deadbeef)")
	require.NoError(t, err)
	assert.Equal(t, "89f8spxm", sum)

	full, err := descriptor.AddChecksum("raw(deadbeef)")
	require.NoError(t, err)
	assert.Equal(t, "raw(deadbeef)#89f8spxm", full)

	other, err := descriptor.DescriptorChecksum("raw(deadbeee)")
	require.NoError(t, err)
	assert.NotEqual(t, sum, other)

	_, err = descriptor.DescriptorChecksum("raw(dé)")
	require.ErrorIs(t, err, msigerr.ErrInvalidFormat)
}

func TestVerifyChecksum(t *testing.T) {
	body, err := descriptor.VerifyChecksum("raw(deadbeef)#89f8spxm")
	require.NoError(t, err)
	assert.Equal(t, "raw(deadbeef)", body)

	tests := []struct {
		name  string
		input string
	}{
		{"missing", "raw(deadbeef)"},
		{"wrong", "raw(deadbeef)#89f8spxn"},
		{"truncated", "raw(deadbeef)#89f8"},
		{"body changed", "raw(deadbeee)#89f8spxm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := descriptor.VerifyChecksum(tt.input)
			require.ErrorIs(t, err, msigerr.ErrInvalidFormat)
		})
	}
}
