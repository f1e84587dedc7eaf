package descriptor

import (
	"bytes"
	"encoding/hex"
	"slices"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/mrz1836/multisig/internal/chain"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// beaconTag prefixes the tweak preimage for beacon keys.
const beaconTag = "threshold-recovery"

// DeriveBeaconKeys tweaks a pair of public keys into a pair of beacon keys.
// With k1 <= k2 the compressed keys in byte order, both are moved by t·G
// where t = SHA256("threshold-recovery" || k1 || k2). The result does not
// depend on argument order and is returned as (k1+t·G, k2+t·G), compressed.
// Passing the same key twice is allowed.
func DeriveBeaconKeys(a, b []byte) ([]byte, []byte, error) {
	ka, err := compressedKey(a)
	if err != nil {
		return nil, nil, err
	}
	kb, err := compressedKey(b)
	if err != nil {
		return nil, nil, err
	}
	keys := [][]byte{ka, kb}
	slices.SortFunc(keys, bytes.Compare)

	preimage := make([]byte, 0, len(beaconTag)+2*33)
	preimage = append(preimage, beaconTag...)
	preimage = append(preimage, keys[0]...)
	preimage = append(preimage, keys[1]...)

	var tweak btcec.ModNScalar
	if overflow := tweak.SetByteSlice(chainhash.HashB(preimage)); overflow {
		return nil, nil, msigerr.WithDetails(msigerr.ErrInvalidInput, map[string]string{
			"reason": "beacon tweak out of range",
		})
	}
	var tweakPoint btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&tweak, &tweakPoint)

	first, err := addPoint(keys[0], &tweakPoint)
	if err != nil {
		return nil, nil, err
	}
	second, err := addPoint(keys[1], &tweakPoint)
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

// BeaconAddress derives the beacon keys for a pair and returns the 2-of-2
// P2WSH address over them, its witness script and the beacon keys.
func BeaconAddress(a, b []byte, net chain.Network) (string, []byte, [][]byte, error) {
	k1, k2, err := DeriveBeaconKeys(a, b)
	if err != nil {
		return "", nil, nil, err
	}
	addr, script, err := AddressFromPubKeys(2, []string{hex.EncodeToString(k1), hex.EncodeToString(k2)}, net)
	if err != nil {
		return "", nil, nil, err
	}
	return addr, script, [][]byte{k1, k2}, nil
}

func compressedKey(pk []byte) ([]byte, error) {
	pub, err := btcec.ParsePubKey(pk)
	if err != nil {
		return nil, msigerr.WithDetails(msigerr.ErrInvalidInput, map[string]string{
			"pubkey": hex.EncodeToString(pk),
			"reason": "not a valid secp256k1 public key",
		})
	}
	return pub.SerializeCompressed(), nil
}

func addPoint(pk []byte, tweakPoint *btcec.JacobianPoint) ([]byte, error) {
	pub, err := btcec.ParsePubKey(pk)
	if err != nil {
		return nil, msigerr.Wrap(err, "parse beacon key")
	}

	var point, sum btcec.JacobianPoint
	pub.AsJacobian(&point)
	btcec.AddNonConst(tweakPoint, &point, &sum)
	if (sum.X.IsZero() && sum.Y.IsZero()) || sum.Z.IsZero() {
		return nil, msigerr.WithDetails(msigerr.ErrInvalidInput, map[string]string{
			"pubkey": hex.EncodeToString(pk),
			"reason": "beacon tweak produced the point at infinity",
		})
	}
	sum.ToAffine()
	return btcec.NewPublicKey(&sum.X, &sum.Y).SerializeCompressed(), nil
}
