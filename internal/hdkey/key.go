// Package hdkey implements BIP32 hierarchical deterministic key derivation
// over secp256k1 together with the BIP84 account layout used by multisig
// participants.
//
// Every operation returns a new ExtendedKey; keys are never mutated after
// construction, so values may be shared across goroutines freely.
package hdkey

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/mrz1836/multisig/internal/bitcoin"
	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/msigcrypto"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

const (
	maxDepth     = 255
	chainCodeLen = 32
	privKeyLen   = 32
	pubKeyLen    = 33
)

//nolint:gochecknoglobals // BIP32 HMAC key
var masterHMACKey = []byte("Bitcoin seed")

// hmacDigest computes every derivation HMAC. Tests replace it to force the
// invalid-key retry paths.
//
//nolint:gochecknoglobals // swapped in tests only
var hmacDigest = hmacSHA512

// ExtendedKey is a BIP32 extended private or public key.
type ExtendedKey struct {
	version   [4]byte
	key       []byte // 32-byte scalar when private, otherwise compressed point
	pubKey    []byte // compressed point, always set
	chainCode []byte
	parentFP  [4]byte
	childNum  uint32
	depth     uint8
	isPrivate bool
}

func newExtendedKey(version [4]byte, key, pubKey, chainCode []byte, parentFP [4]byte,
	depth uint8, childNum uint32, isPrivate bool,
) *ExtendedKey {
	return &ExtendedKey{
		version:   version,
		key:       key,
		pubKey:    pubKey,
		chainCode: chainCode,
		parentFP:  parentFP,
		childNum:  childNum,
		depth:     depth,
		isPrivate: isPrivate,
	}
}

// NewMaster derives the master private key for seed on net.
//
// If the HMAC output is not a valid scalar the output is re-hashed until it
// is, following SLIP-0010. For any seed where BIP32 succeeds the result is
// identical to BIP32.
func NewMaster(seed *Seed, net chain.Network) (*ExtendedKey, error) {
	if !net.IsValid() {
		return nil, msigerr.WithDetails(msigerr.ErrInvalidNetwork, map[string]string{"network": net.String()})
	}
	data := seed.Bytes()
	if err := checkSeedLen(len(data)); err != nil {
		return nil, err
	}

	digest := hmacDigest(masterHMACKey, data)
	for {
		il, ir := digest[:32], digest[32:]

		var k btcec.ModNScalar
		if overflow := k.SetByteSlice(il); !overflow && !k.IsZero() {
			priv := k.Bytes()
			return newExtendedKey(net.HDPrivateVersion(), priv[:], pubFromScalar(&k),
				bytes.Clone(ir), [4]byte{}, 0, 0, true), nil
		}
		next := hmacDigest(masterHMACKey, digest)
		msigcrypto.Zero(digest)
		digest = next
	}
}

// DeriveFromSeed builds the master key for seed and walks path.
func DeriveFromSeed(seed *Seed, net chain.Network, path DerivationPath) (*ExtendedKey, error) {
	master, err := NewMaster(seed, net)
	if err != nil {
		return nil, err
	}
	return master.Derive(path)
}

// Derive applies each step of path in order.
func (k *ExtendedKey) Derive(path DerivationPath) (*ExtendedKey, error) {
	key := k
	for _, idx := range path {
		child, err := key.Child(idx)
		if err != nil {
			return nil, err
		}
		key = child
	}
	return key, nil
}

// Child derives the child at index i. Indexes at or above HardenedKeyStart
// are hardened and require a private key.
func (k *ExtendedKey) Child(i uint32) (*ExtendedKey, error) {
	if k.depth == maxDepth {
		return nil, msigerr.WithDetails(msigerr.ErrInvalidDerivationPath, map[string]string{
			"reason": "maximum depth reached",
		})
	}

	hardened := i >= HardenedKeyStart
	if hardened && !k.isPrivate {
		return nil, msigerr.WithDetails(msigerr.ErrPrivateKeyRequired, map[string]string{
			"index": DerivationPath{i}.Descriptor(),
			"depth": strconv.Itoa(int(k.depth)),
		})
	}

	// data = 0x00 || ser256(k) || ser32(i) when hardened,
	//        serP(K) || ser32(i) otherwise.
	data := make([]byte, 37)
	if hardened {
		copy(data[1:], k.key)
	} else {
		copy(data, k.pubKey)
	}
	binary.BigEndian.PutUint32(data[33:], i)

	digest := hmacDigest(k.chainCode, data)
	msigcrypto.Zero(data)

	parentFP := bitcoin.Fingerprint(k.pubKey)
	for {
		il, ir := digest[:32], digest[32:]

		var child *ExtendedKey
		if k.isPrivate {
			child = k.privateChild(il)
		} else {
			child = k.publicChild(il)
		}
		if child != nil {
			child.chainCode = bytes.Clone(ir)
			child.parentFP = parentFP
			child.depth = k.depth + 1
			child.childNum = i
			child.version = k.version
			msigcrypto.Zero(digest)
			return child, nil
		}

		// Invalid child: digest = HMAC-SHA512(c, 0x01 || IR || ser32(i)).
		retry := make([]byte, 37)
		retry[0] = 0x01
		copy(retry[1:], ir)
		binary.BigEndian.PutUint32(retry[33:], i)
		msigcrypto.Zero(digest)
		digest = hmacDigest(k.chainCode, retry)
	}
}

// privateChild returns IL + k mod n, or nil when IL >= n or the sum is zero.
func (k *ExtendedKey) privateChild(il []byte) *ExtendedKey {
	var tweak btcec.ModNScalar
	if overflow := tweak.SetByteSlice(il); overflow {
		return nil
	}

	var parent btcec.ModNScalar
	parent.SetByteSlice(k.key)
	tweak.Add(&parent)
	parent.Zero()
	if tweak.IsZero() {
		return nil
	}

	priv := tweak.Bytes()
	pub := pubFromScalar(&tweak)
	tweak.Zero()
	return &ExtendedKey{key: priv[:], pubKey: pub, isPrivate: true}
}

// publicChild returns point(IL) + K, or nil when IL >= n or the sum is the
// point at infinity.
func (k *ExtendedKey) publicChild(il []byte) *ExtendedKey {
	var tweak btcec.ModNScalar
	if overflow := tweak.SetByteSlice(il); overflow {
		return nil
	}

	parentKey, err := btcec.ParsePubKey(k.pubKey)
	if err != nil {
		return nil
	}

	var tweakPoint, parentPoint, sum btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&tweak, &tweakPoint)
	parentKey.AsJacobian(&parentPoint)
	btcec.AddNonConst(&tweakPoint, &parentPoint, &sum)

	if (sum.X.IsZero() && sum.Y.IsZero()) || sum.Z.IsZero() {
		return nil
	}
	sum.ToAffine()

	pub := btcec.NewPublicKey(&sum.X, &sum.Y).SerializeCompressed()
	return &ExtendedKey{key: pub, pubKey: pub}
}

// Neuter returns the public-only form of k. Public keys are returned as is.
func (k *ExtendedKey) Neuter() *ExtendedKey {
	if !k.isPrivate {
		return k
	}
	return newExtendedKey(publicVersionFor(k.version), k.pubKey, k.pubKey,
		bytes.Clone(k.chainCode), k.parentFP, k.depth, k.childNum, false)
}

// IsPrivate reports whether k carries a private scalar.
func (k *ExtendedKey) IsPrivate() bool { return k.isPrivate }

// Depth is the number of derivation steps from the master key.
func (k *ExtendedKey) Depth() uint8 { return k.depth }

// ChildIndex is the index this key was derived at.
func (k *ExtendedKey) ChildIndex() uint32 { return k.childNum }

// ParentFingerprint identifies the parent key; zero for master keys.
func (k *ExtendedKey) ParentFingerprint() [4]byte { return k.parentFP }

// Version returns the serialization version bytes.
func (k *ExtendedKey) Version() [4]byte { return k.version }

// ChainCode returns a copy of the chain code.
func (k *ExtendedKey) ChainCode() []byte { return bytes.Clone(k.chainCode) }

// PublicKeyBytes returns a copy of the 33-byte compressed public key.
func (k *ExtendedKey) PublicKeyBytes() []byte { return bytes.Clone(k.pubKey) }

// PublicKeyHex returns the compressed public key as hex.
func (k *ExtendedKey) PublicKeyHex() string { return hex.EncodeToString(k.pubKey) }

// Fingerprint returns HASH160(pubkey)[:4].
func (k *ExtendedKey) Fingerprint() [4]byte { return bitcoin.Fingerprint(k.pubKey) }

// ECPubKey parses the public key for use with btcec.
func (k *ExtendedKey) ECPubKey() (*btcec.PublicKey, error) {
	return btcec.ParsePubKey(k.pubKey)
}

// IsForNet reports whether k's version bytes belong to net.
func (k *ExtendedKey) IsForNet(net chain.Network) bool {
	return net.MatchesVersion(k.version)
}

// Equal reports whether two keys serialize identically.
func (k *ExtendedKey) Equal(o *ExtendedKey) bool {
	if k == nil || o == nil {
		return k == o
	}
	return k.version == o.version &&
		k.isPrivate == o.isPrivate &&
		k.depth == o.depth &&
		k.parentFP == o.parentFP &&
		k.childNum == o.childNum &&
		bytes.Equal(k.chainCode, o.chainCode) &&
		bytes.Equal(k.key, o.key)
}

// Zero wipes the private scalar. The key must not be used afterwards.
func (k *ExtendedKey) Zero() {
	if k.isPrivate {
		msigcrypto.Zero(k.key)
	}
	msigcrypto.Zero(k.chainCode)
}

func pubFromScalar(s *btcec.ModNScalar) []byte {
	var p btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(s, &p)
	p.ToAffine()
	return btcec.NewPublicKey(&p.X, &p.Y).SerializeCompressed()
}

func hmacSHA512(key, data []byte) []byte {
	h := hmac.New(sha512.New, key)
	h.Write(data)
	return h.Sum(nil)
}
