package descriptor

import (
	"encoding/hex"
	"strings"

	"github.com/mrz1836/multisig/internal/hdkey"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// ParticipantKey is one co-signer: an account-level extended public key and,
// when known, the key origin (master fingerprint and account path).
type ParticipantKey struct {
	Key         *hdkey.ExtendedKey
	Fingerprint [4]byte
	Path        hdkey.DerivationPath
	HasOrigin   bool
}

// NewParticipantKey records account as a co-signer derived from master at
// path. Only the public half of account is kept.
func NewParticipantKey(master, account *hdkey.ExtendedKey, path hdkey.DerivationPath) ParticipantKey {
	return ParticipantKey{
		Key:         account.Neuter(),
		Fingerprint: master.Fingerprint(),
		Path:        path,
		HasOrigin:   true,
	}
}

// ParseParticipantKey accepts "xpub...", "[fingerprint/path]xpub..." and
// either form with a trailing "/0/*" wildcard, which is ignored. Private
// extended keys are rejected.
func ParseParticipantKey(s string) (ParticipantKey, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "/0/*")

	var pk ParticipantKey
	if strings.HasPrefix(s, "[") {
		origin, rest, ok := strings.Cut(s[1:], "]")
		if !ok {
			return ParticipantKey{}, badOrigin(s, "unterminated key origin")
		}
		fpHex, pathStr, _ := strings.Cut(origin, "/")
		fp, err := hex.DecodeString(fpHex)
		if err != nil || len(fp) != 4 {
			return ParticipantKey{}, badOrigin(s, "fingerprint must be 8 hex characters")
		}
		copy(pk.Fingerprint[:], fp)
		if pathStr != "" {
			if pk.Path, err = hdkey.ParseDerivationPath(pathStr); err != nil {
				return ParticipantKey{}, err
			}
		}
		pk.HasOrigin = true
		s = rest
	}

	key, err := hdkey.ParseExtendedPublicKey(s)
	if err != nil {
		return ParticipantKey{}, err
	}
	if pk.HasOrigin && len(pk.Path) > 0 && len(pk.Path) != int(key.Depth()) {
		return ParticipantKey{}, badOrigin(s, "origin path length does not match key depth")
	}
	pk.Key = key
	return pk, nil
}

func badOrigin(s, reason string) error {
	if len(s) > 24 {
		s = s[:24] + "..."
	}
	return msigerr.WithDetails(msigerr.ErrMalformedExtendedKey, map[string]string{
		"key":    s,
		"reason": reason,
	})
}

// String renders the key with its origin, when one is known.
func (p ParticipantKey) String() string {
	if !p.HasOrigin {
		return p.Key.String()
	}
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(hex.EncodeToString(p.Fingerprint[:]))
	if len(p.Path) > 0 {
		b.WriteByte('/')
		b.WriteString(p.Path.Descriptor())
	}
	b.WriteByte(']')
	b.WriteString(p.Key.String())
	return b.String()
}

// FingerprintHex is the master fingerprint as 8 hex characters, or empty
// when the origin is unknown.
func (p ParticipantKey) FingerprintHex() string {
	if !p.HasOrigin {
		return ""
	}
	return hex.EncodeToString(p.Fingerprint[:])
}
