package hdkey

import (
	"strconv"

	"github.com/mrz1836/multisig/internal/msigcrypto"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// Seed length bounds from BIP32.
const (
	MinSeedBytes         = 16
	MaxSeedBytes         = 64
	RecommendedSeedBytes = 32
)

// Seed is master key entropy held in locked memory. Call Destroy when the
// master key has been derived.
type Seed struct {
	sb *msigcrypto.SecureBytes
}

// NewSeed copies b into secure storage. The caller keeps ownership of b.
func NewSeed(b []byte) (*Seed, error) {
	if err := checkSeedLen(len(b)); err != nil {
		return nil, err
	}
	sb, err := msigcrypto.SecureBytesFromSlice(b)
	if err != nil {
		return nil, err
	}
	return &Seed{sb: sb}, nil
}

// GenerateSeed reads n bytes from the process random source.
func GenerateSeed(n int) (*Seed, error) {
	if err := checkSeedLen(n); err != nil {
		return nil, err
	}
	sb, err := msigcrypto.SecureRandomBytes(n)
	if err != nil {
		return nil, err
	}
	return &Seed{sb: sb}, nil
}

func checkSeedLen(n int) error {
	switch {
	case n < MinSeedBytes:
		return msigerr.WithDetails(msigerr.ErrInsufficientEntropy, map[string]string{
			"length":  strconv.Itoa(n),
			"minimum": strconv.Itoa(MinSeedBytes),
		})
	case n > MaxSeedBytes:
		return msigerr.WithDetails(msigerr.ErrInvalidInput, map[string]string{
			"seed_length": strconv.Itoa(n),
			"maximum":     strconv.Itoa(MaxSeedBytes),
		})
	}
	return nil
}

// Bytes returns the seed material, or nil once destroyed.
func (s *Seed) Bytes() []byte {
	return s.sb.Bytes()
}

// Len returns the seed length in bytes.
func (s *Seed) Len() int {
	return s.sb.Len()
}

// Destroy zeroes the seed.
func (s *Seed) Destroy() {
	s.sb.Destroy()
}
