package descriptor

import (
	"strings"

	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// Character sets from BIP380. The position of a character in inputCharset
// splits into a 5-bit symbol (pos & 31) and a group (pos >> 5).
const (
	inputCharset    = "0123456789()[],'/*abcdefgh@:$%{}IJKLMNOPQRSTUVWXYZ&+-.;<=>?!^_|~ijklmnopqrstuvwxyzABCDEFGH`#\"\\ "
	checksumCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
	checksumLength  = 8
)

func polymod(c, val uint64) uint64 {
	c0 := c >> 35
	c = ((c & 0x7ffffffff) << 5) ^ val
	if c0&1 != 0 {
		c ^= 0xf5dee51989
	}
	if c0&2 != 0 {
		c ^= 0xa9fdca3312
	}
	if c0&4 != 0 {
		c ^= 0x1bab10e32d
	}
	if c0&8 != 0 {
		c ^= 0x3706b1677a
	}
	if c0&16 != 0 {
		c ^= 0x644d626ffd
	}
	return c
}

// DescriptorChecksum computes the eight character BIP380 checksum of desc,
// which must not already carry a "#" suffix.
func DescriptorChecksum(desc string) (string, error) {
	c := uint64(1)
	cls, clsCount := uint64(0), 0
	for _, r := range desc {
		pos := strings.IndexRune(inputCharset, r)
		if pos < 0 {
			return "", msigerr.WithDetails(msigerr.ErrInvalidFormat, map[string]string{
				"descriptor": desc,
				"reason":     "invalid character " + string(r),
			})
		}
		c = polymod(c, uint64(pos&31))
		cls = cls*3 + uint64(pos>>5)
		if clsCount++; clsCount == 3 {
			c = polymod(c, cls)
			cls, clsCount = 0, 0
		}
	}
	if clsCount > 0 {
		c = polymod(c, cls)
	}
	for range checksumLength {
		c = polymod(c, 0)
	}
	c ^= 1

	out := make([]byte, checksumLength)
	for j := range checksumLength {
		out[j] = checksumCharset[(c>>(5*(7-j)))&31]
	}
	return string(out), nil
}

// AddChecksum returns desc#checksum.
func AddChecksum(desc string) (string, error) {
	sum, err := DescriptorChecksum(desc)
	if err != nil {
		return "", err
	}
	return desc + "#" + sum, nil
}

// VerifyChecksum checks the "#checksum" suffix of full and returns the
// descriptor body without it.
func VerifyChecksum(full string) (string, error) {
	body, sum, found := strings.Cut(full, "#")
	if !found {
		return "", msigerr.WithDetails(msigerr.ErrInvalidFormat, map[string]string{
			"reason": "missing checksum",
		})
	}
	want, err := DescriptorChecksum(body)
	if err != nil {
		return "", err
	}
	if sum != want {
		return "", msigerr.WithDetails(msigerr.ErrInvalidFormat, map[string]string{
			"reason":   "checksum mismatch",
			"checksum": sum,
		})
	}
	return body, nil
}
