package hdkey

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/msigcrypto"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// serializedKeyLen is version(4) || depth(1) || parent fingerprint(4) ||
// child number(4) || chain code(32) || key data(33).
const serializedKeyLen = 78

const checksumLen = 4

// String returns the Base58Check serialization (xpub/xprv, tpub/tprv).
func (k *ExtendedKey) String() string {
	buf := k.payload()
	defer msigcrypto.Zero(buf)
	return base58.Encode(buf)
}

// AppendSerialized appends the same text as String to dst without going
// through a Go string, so private serializations can be wiped afterwards.
func (k *ExtendedKey) AppendSerialized(dst []byte) []byte {
	buf := k.payload()
	defer msigcrypto.Zero(buf)
	return appendBase58(dst, buf)
}

// payload is the 78-byte serialization followed by its checksum.
func (k *ExtendedKey) payload() []byte {
	buf := make([]byte, 0, serializedKeyLen+checksumLen)
	buf = append(buf, k.version[:]...)
	buf = append(buf, k.depth)
	buf = append(buf, k.parentFP[:]...)
	buf = binary.BigEndian.AppendUint32(buf, k.childNum)
	buf = append(buf, k.chainCode...)
	if k.isPrivate {
		buf = append(buf, 0x00)
		buf = append(buf, k.key...)
	} else {
		buf = append(buf, k.pubKey...)
	}

	sum := chainhash.DoubleHashB(buf)
	return append(buf, sum[:checksumLen]...)
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// appendBase58 matches base58.Encode but writes into dst. The scratch
// digits are wiped before returning.
func appendBase58(dst, b []byte) []byte {
	zeros := 0
	for zeros < len(b) && b[zeros] == 0 {
		zeros++
	}

	// log(256)/log(58) < 138/100
	size := (len(b)-zeros)*138/100 + 1
	digits := make([]byte, size)
	defer msigcrypto.Zero(digits)

	length := 0
	for _, c := range b[zeros:] {
		carry := int(c)
		i := 0
		for j := size - 1; (carry != 0 || i < length) && j >= 0; j-- {
			carry += 256 * int(digits[j])
			digits[j] = byte(carry % 58)
			carry /= 58
			i++
		}
		length = i
	}

	start := size - length
	for start < size && digits[start] == 0 {
		start++
	}

	for range zeros {
		dst = append(dst, base58Alphabet[0])
	}
	for _, d := range digits[start:] {
		dst = append(dst, base58Alphabet[d])
	}
	return dst
}

// ParseExtendedKey decodes a Base58Check extended key. Standard BIP32
// versions and the SLIP-0132 multisig public versions (Zpub, Vpub) are
// accepted; SLIP-0132 keys are normalized to xpub/tpub.
func ParseExtendedKey(s string) (*ExtendedKey, error) {
	decoded := base58.Decode(s)
	if len(decoded) != serializedKeyLen+checksumLen {
		return nil, malformed(s, "invalid length")
	}

	payload, checksum := decoded[:serializedKeyLen], decoded[serializedKeyLen:]
	if !bytes.Equal(chainhash.DoubleHashB(payload)[:checksumLen], checksum) {
		return nil, malformed(s, "bad checksum")
	}

	var version [4]byte
	copy(version[:], payload[:4])
	depth := payload[4]
	var parentFP [4]byte
	copy(parentFP[:], payload[5:9])
	childNum := binary.BigEndian.Uint32(payload[9:13])
	chainCode := bytes.Clone(payload[13:45])
	keyData := payload[45:78]

	isPrivate, known := classifyVersion(version)
	if !known {
		return nil, malformed(s, "unknown version bytes")
	}
	version = canonicalVersion(version)

	if depth == 0 && (parentFP != [4]byte{} || childNum != 0) {
		return nil, malformed(s, "master key with parent fingerprint or child index")
	}

	if isPrivate {
		if keyData[0] != 0x00 {
			return nil, malformed(s, "private key data must start with 0x00")
		}
		var scalar btcec.ModNScalar
		if overflow := scalar.SetByteSlice(keyData[1:]); overflow || scalar.IsZero() {
			return nil, malformed(s, "private key out of range")
		}
		priv := scalar.Bytes()
		pub := pubFromScalar(&scalar)
		scalar.Zero()
		return newExtendedKey(version, priv[:], pub, chainCode, parentFP, depth, childNum, true), nil
	}

	if keyData[0] != 0x02 && keyData[0] != 0x03 {
		return nil, malformed(s, "public key must be compressed")
	}
	if _, err := btcec.ParsePubKey(keyData); err != nil {
		return nil, malformed(s, "public key not on curve")
	}
	pub := bytes.Clone(keyData)
	return newExtendedKey(version, pub, pub, chainCode, parentFP, depth, childNum, false), nil
}

// ParseExtendedPublicKey parses s and rejects private keys, so that a
// participant list can never carry secret material by mistake.
func ParseExtendedPublicKey(s string) (*ExtendedKey, error) {
	k, err := ParseExtendedKey(s)
	if err != nil {
		return nil, err
	}
	if k.IsPrivate() {
		return nil, malformed("", "expected an extended public key, got a private key")
	}
	return k, nil
}

// classifyVersion reports whether version is private and whether it is
// recognised at all.
func classifyVersion(version [4]byte) (isPrivate, known bool) {
	switch version {
	case chaincfg.MainNetParams.HDPrivateKeyID, chaincfg.TestNet3Params.HDPrivateKeyID:
		return true, true
	case chaincfg.MainNetParams.HDPublicKeyID, chaincfg.TestNet3Params.HDPublicKeyID,
		chain.ZpubVersion, chain.VpubVersion:
		return false, true
	default:
		return false, false
	}
}

func canonicalVersion(version [4]byte) [4]byte {
	switch version {
	case chain.ZpubVersion:
		return chaincfg.MainNetParams.HDPublicKeyID
	case chain.VpubVersion:
		return chaincfg.TestNet3Params.HDPublicKeyID
	default:
		return version
	}
}

func publicVersionFor(version [4]byte) [4]byte {
	if version == chaincfg.MainNetParams.HDPrivateKeyID {
		return chaincfg.MainNetParams.HDPublicKeyID
	}
	if version == chaincfg.TestNet3Params.HDPrivateKeyID {
		return chaincfg.TestNet3Params.HDPublicKeyID
	}
	return version
}

// malformed builds ErrMalformedExtendedKey without echoing private
// material: only a short prefix of the input is kept.
func malformed(input, reason string) error {
	details := map[string]string{"reason": reason}
	if input != "" {
		details["key"] = redact(input)
	}
	return msigerr.WithDetails(msigerr.ErrMalformedExtendedKey, details)
}

func redact(s string) string {
	const keep = 12
	if len(s) <= keep {
		return s
	}
	return s[:keep] + "..."
}
