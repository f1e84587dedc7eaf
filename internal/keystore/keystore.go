// Package keystore persists participant keys generated or imported on this
// machine. Each key lives in its own key_<index>.json file holding public
// data in the clear and the account xprv and mnemonic sealed with age.
//
// Nothing in this package prints or logs private material; the decrypted
// xprv only leaves through Unlock for verification.
package keystore

import (
	"encoding/hex"
	"strconv"
	"time"

	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/descriptor"
	"github.com/mrz1836/multisig/internal/hdkey"
	"github.com/mrz1836/multisig/internal/msigcrypto"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// DefaultWordCount is the mnemonic length used by Generate.
const DefaultWordCount = 24

// Record is the on-disk form of one participant key.
type Record struct {
	Index       int           `json:"index"`
	Network     chain.Network `json:"network"`
	Xpub        string        `json:"xpub"`
	Fingerprint string        `json:"fingerprint"`
	AccountPath string        `json:"account_path"`
	CreatedAt   time.Time     `json:"created_at"`

	// EncryptedXprv is the age-encrypted account extended private key.
	EncryptedXprv []byte `json:"encrypted_xprv"`

	// EncryptedMnemonic is the age-encrypted BIP39 phrase.
	EncryptedMnemonic []byte `json:"encrypted_mnemonic,omitempty"`
}

// Generate creates a fresh mnemonic and seals the resulting account key
// under password.
func Generate(index int, net chain.Network, password string) (*Record, error) {
	mnemonic, err := GenerateMnemonic(DefaultWordCount)
	if err != nil {
		return nil, err
	}
	return FromMnemonic(index, mnemonic, "", net, password)
}

// FromMnemonic derives m/84'/coin'/0' from mnemonic and seals the account
// xprv and the phrase under password.
func FromMnemonic(index int, mnemonic, passphrase string, net chain.Network, password string) (*Record, error) {
	if index < 0 {
		return nil, msigerr.WithDetails(msigerr.ErrInvalidInput, map[string]string{
			"reason": "key index must not be negative",
		})
	}
	if password == "" {
		return nil, msigerr.WithSuggestion(msigerr.ErrInvalidInput, "an encryption password is required")
	}

	seed, err := MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer seed.Destroy()

	master, err := hdkey.NewMaster(seed, net)
	if err != nil {
		return nil, err
	}
	defer master.Zero()

	path := hdkey.AccountPath(net, 0)
	account, err := master.Derive(path)
	if err != nil {
		return nil, err
	}
	defer account.Zero()

	serialized := account.AppendSerialized(nil)
	xprv, err := msigcrypto.SecureBytesFromSlice(serialized)
	msigcrypto.Zero(serialized)
	if err != nil {
		return nil, err
	}
	defer xprv.Destroy()

	sealedKey, err := msigcrypto.EncryptSecure(xprv, password)
	if err != nil {
		return nil, msigerr.Wrap(err, "encrypting account key")
	}
	sealedPhrase, err := msigcrypto.Encrypt([]byte(NormalizeMnemonicInput(mnemonic)), password)
	if err != nil {
		return nil, msigerr.Wrap(err, "encrypting mnemonic")
	}

	fp := master.Fingerprint()
	return &Record{
		Index:             index,
		Network:           net,
		Xpub:              account.Neuter().String(),
		Fingerprint:       hex.EncodeToString(fp[:]),
		AccountPath:       path.String(),
		CreatedAt:         time.Now().UTC().Truncate(time.Second),
		EncryptedXprv:     sealedKey,
		EncryptedMnemonic: sealedPhrase,
	}, nil
}

// Participant returns the record as a co-signer key with its origin.
func (r *Record) Participant() (descriptor.ParticipantKey, error) {
	return descriptor.ParseParticipantKey("[" + r.Fingerprint + "/" + r.originPath() + "]" + r.Xpub)
}

func (r *Record) originPath() string {
	path, err := hdkey.ParseDerivationPath(r.AccountPath)
	if err != nil {
		return r.AccountPath
	}
	return path.Descriptor()
}

// Unlock decrypts the account xprv and checks it matches the stored xpub.
// The caller must Zero the returned key.
func (r *Record) Unlock(password string) (*hdkey.ExtendedKey, error) {
	plain, err := msigcrypto.DecryptSecure(r.EncryptedXprv, password)
	if err != nil {
		return nil, msigerr.WithDetails(msigerr.ErrDecryptionFailed, map[string]string{
			"key": strconv.Itoa(r.Index),
		})
	}
	defer plain.Destroy()

	key, err := hdkey.ParseExtendedKey(string(plain.Bytes()))
	if err != nil || !key.IsPrivate() {
		return nil, msigerr.WithDetails(msigerr.ErrCorruptState, map[string]string{
			"key":    strconv.Itoa(r.Index),
			"reason": "stored private key is unreadable",
		})
	}
	if key.Neuter().String() != r.Xpub {
		key.Zero()
		return nil, msigerr.WithDetails(msigerr.ErrCorruptState, map[string]string{
			"key":    strconv.Itoa(r.Index),
			"reason": "stored private key does not match xpub",
		})
	}
	return key, nil
}

// Public is the record without sealed material, safe to print.
type Public struct {
	Index       int           `json:"index"`
	Network     chain.Network `json:"network"`
	Xpub        string        `json:"xpub"`
	Fingerprint string        `json:"fingerprint"`
	AccountPath string        `json:"account_path"`
	Descriptor  string        `json:"key_descriptor"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Public strips the sealed fields.
func (r *Record) Public() Public {
	return Public{
		Index:       r.Index,
		Network:     r.Network,
		Xpub:        r.Xpub,
		Fingerprint: r.Fingerprint,
		AccountPath: r.AccountPath,
		Descriptor:  "[" + r.Fingerprint + "/" + r.originPath() + "]" + r.Xpub,
		CreatedAt:   r.CreatedAt,
	}
}
