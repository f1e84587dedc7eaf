package hdkey

import (
	"strconv"
	"strings"

	"github.com/mrz1836/multisig/internal/chain"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// HardenedKeyStart is the first hardened child index (2^31).
const HardenedKeyStart uint32 = 0x80000000

// Purpose84 is the BIP84 purpose field.
const Purpose84 uint32 = 84

// DerivationPath is an ordered list of child indexes applied from a root key.
type DerivationPath []uint32

// AccountPath returns m/84'/coin'/account' for net.
func AccountPath(net chain.Network, account uint32) DerivationPath {
	return DerivationPath{
		HardenedKeyStart + Purpose84,
		HardenedKeyStart + net.CoinType(),
		HardenedKeyStart + account,
	}
}

// ReceivePath returns the non-hardened suffix 0/index below an account key.
func ReceivePath(index uint32) DerivationPath {
	return DerivationPath{0, index}
}

// ParseDerivationPath parses paths such as "m/84'/1'/0'", "84h/1h/0h" or
// "0/5". A lone "m" is the empty path. Hardened components may be marked
// with ', h or H.
func ParseDerivationPath(s string) (DerivationPath, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, pathError(s, "empty path")
	}

	elems := strings.Split(s, "/")
	if root := strings.TrimSpace(elems[0]); root == "m" || root == "M" {
		elems = elems[1:]
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		idx, err := parsePathElem(strings.TrimSpace(elem))
		if err != nil {
			return nil, pathError(s, err.Error())
		}
		path = append(path, idx)
	}
	return path, nil
}

type pathElemError string

func (e pathElemError) Error() string { return string(e) }

func parsePathElem(elem string) (uint32, error) {
	if elem == "" {
		return 0, pathElemError("empty component")
	}

	var offset uint32
	if last := elem[len(elem)-1]; last == '\'' || last == 'h' || last == 'H' {
		offset = HardenedKeyStart
		elem = elem[:len(elem)-1]
	}

	v, err := strconv.ParseUint(elem, 10, 32)
	if err != nil || uint32(v) >= HardenedKeyStart {
		return 0, pathElemError("component " + strconv.Quote(elem) + " out of range")
	}
	return uint32(v) + offset, nil
}

func pathError(path, reason string) error {
	return msigerr.WithDetails(msigerr.ErrInvalidDerivationPath, map[string]string{
		"path":   path,
		"reason": reason,
	})
}

// String renders the path with an "m" root and ' hardened markers. The
// empty path renders as "m".
func (p DerivationPath) String() string {
	return "m" + p.suffix("'", "/")
}

// Descriptor renders the path without the root using h markers, as used in
// output descriptor key origins: "84h/1h/0h".
func (p DerivationPath) Descriptor() string {
	return strings.TrimPrefix(p.suffix("h", "/"), "/")
}

func (p DerivationPath) suffix(hardenedMark, sep string) string {
	var b strings.Builder
	for _, idx := range p {
		b.WriteString(sep)
		if idx >= HardenedKeyStart {
			b.WriteString(strconv.FormatUint(uint64(idx-HardenedKeyStart), 10))
			b.WriteString(hardenedMark)
		} else {
			b.WriteString(strconv.FormatUint(uint64(idx), 10))
		}
	}
	return b.String()
}

// HasHardened reports whether any component is hardened.
func (p DerivationPath) HasHardened() bool {
	for _, idx := range p {
		if idx >= HardenedKeyStart {
			return true
		}
	}
	return false
}

// Equal reports whether p and o contain the same components.
func (p DerivationPath) Equal(o DerivationPath) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}
