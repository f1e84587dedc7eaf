// Package bitcoin holds Bitcoin protocol hash primitives shared by the key
// derivation and descriptor packages.
package bitcoin

import (
	"crypto/sha256"

	// RIPEMD160 is required by BIP32 key fingerprints and cannot be replaced.
	//nolint:gosec,staticcheck // G507,SA1019: RIPEMD160 required by Bitcoin protocol
	"golang.org/x/crypto/ripemd160"
)

// Hash160 computes RIPEMD160(SHA256(data)).
//
//nolint:gosec // G406: RIPEMD160 usage required by Bitcoin spec
func Hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}

// Fingerprint returns the first four bytes of Hash160(pubKey), the BIP32 key
// identifier prefix used for parent fingerprints and key origins.
func Fingerprint(pubKey []byte) [4]byte {
	var fp [4]byte
	copy(fp[:], Hash160(pubKey)[:4])
	return fp
}

// WitnessProgram computes the P2WSH witness program SHA256(script).
func WitnessProgram(script []byte) [32]byte {
	return sha256.Sum256(script)
}
