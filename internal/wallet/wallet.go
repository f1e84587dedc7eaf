// Package wallet holds the multisig wallet aggregate: the validated policy,
// the receive index cursor and the JSON state it is persisted as.
package wallet

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/descriptor"
	"github.com/mrz1836/multisig/internal/hdkey"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// StateVersion is the wallet file format version written by this package.
const StateVersion = 1

var (
	// ErrInvalidWalletName indicates the wallet name is invalid.
	ErrInvalidWalletName = msigerr.WithSuggestion(msigerr.ErrInvalidInput,
		"wallet name must be 1-64 alphanumeric characters, underscores, or hyphens")

	// walletNameRegex validates wallet names: alphanumeric + underscore + hyphen, 1-64 chars.
	walletNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
)

// State is the serializable form of a wallet. It is replaced wholesale on
// every change and never mutated in place.
type State struct {
	// Version is the wallet file format version.
	Version int `json:"version"`

	// Name is the unique identifier for this wallet.
	Name string `json:"name"`

	// Network the participant keys and addresses belong to.
	Network chain.Network `json:"network"`

	// Threshold is the number of signatures required to spend.
	Threshold int `json:"threshold"`

	// Participants are the co-signer keys in canonical order, each as
	// "[fingerprint/path]xpub" or a bare xpub.
	Participants []string `json:"participants"`

	// NextIndex is the first receive index not yet handed out.
	NextIndex uint32 `json:"next_index"`

	// Descriptor is the output descriptor with checksum.
	Descriptor string `json:"descriptor"`

	// CreatedAt is the wallet creation timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// Address is a receive address issued by a wallet.
type Address struct {
	Index         uint32 `json:"index"`
	Address       string `json:"address"`
	Path          string `json:"path"`
	WitnessScript string `json:"witness_script"`
}

// Wallet binds a validated descriptor to its receive cursor. NextAddress
// serializes concurrent callers; every other method is read-only.
type Wallet struct {
	name      string
	createdAt time.Time
	desc      *descriptor.Descriptor

	mu    sync.Mutex
	state State
}

// ValidateWalletName checks if a wallet name is valid.
func ValidateWalletName(name string) error {
	if !walletNameRegex.MatchString(name) {
		return msigerr.WithDetails(ErrInvalidWalletName, map[string]string{"name": name})
	}
	return nil
}

// SuggestWalletName keeps only the characters a wallet name may contain,
// truncated to 64. It returns "" when nothing usable is left.
func SuggestWalletName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	suggested := b.String()
	if len(suggested) > 64 {
		suggested = suggested[:64]
	}
	return suggested
}

// Create builds a new wallet at receive index 0. The participant list is
// validated and canonicalized by descriptor.Build.
func Create(name string, keys []descriptor.ParticipantKey, threshold int, net chain.Network) (*Wallet, error) {
	if err := ValidateWalletName(name); err != nil {
		return nil, err
	}
	desc, err := descriptor.Build(keys, threshold, net)
	if err != nil {
		return nil, err
	}
	return newWallet(desc, State{
		Version:   StateVersion,
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}), nil
}

func newWallet(desc *descriptor.Descriptor, base State) *Wallet {
	parts := desc.Participants()
	encoded := make([]string, len(parts))
	for i, p := range parts {
		encoded[i] = p.String()
	}
	base.Network = desc.Network()
	base.Threshold = desc.Threshold()
	base.Participants = encoded
	base.Descriptor = desc.String()
	return &Wallet{name: base.Name, createdAt: base.CreatedAt, desc: desc, state: base}
}

// Load decodes a JSON wallet state and validates it like FromState.
func Load(data []byte) (*Wallet, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", msigerr.ErrCorruptState, err)
	}
	return FromState(s)
}

// FromState rebuilds a wallet from persisted state. The policy is
// re-validated and must reproduce the stored descriptor exactly.
func FromState(s State) (*Wallet, error) {
	desc, err := descriptorFromState(s)
	if err != nil {
		return nil, err
	}
	if s.Descriptor != "" && s.Descriptor != desc.String() {
		return nil, msigerr.WithDetails(msigerr.ErrCorruptState, map[string]string{
			"wallet": s.Name,
			"reason": "stored descriptor does not match participants",
		})
	}
	if s.NextIndex > hdkey.HardenedKeyStart {
		return nil, msigerr.WithDetails(msigerr.ErrCorruptState, map[string]string{
			"wallet": s.Name,
			"reason": "next index out of range",
		})
	}
	return newWallet(desc, s), nil
}

func descriptorFromState(s State) (*descriptor.Descriptor, error) {
	if s.Version < 1 || s.Version > StateVersion {
		return nil, msigerr.WithDetails(msigerr.ErrCorruptState, map[string]string{
			"wallet":  s.Name,
			"version": strconv.Itoa(s.Version),
			"reason":  "unsupported state version",
		})
	}
	if err := ValidateWalletName(s.Name); err != nil {
		return nil, fmt.Errorf("%w: %w", msigerr.ErrCorruptState, err)
	}
	net, err := chain.ParseNetwork(string(s.Network))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", msigerr.ErrCorruptState, err)
	}

	keys := make([]descriptor.ParticipantKey, 0, len(s.Participants))
	for _, p := range s.Participants {
		k, err := descriptor.ParseParticipantKey(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", msigerr.ErrCorruptState, err)
		}
		keys = append(keys, k)
	}

	desc, err := descriptor.Build(keys, s.Threshold, net)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", msigerr.ErrCorruptState, err)
	}
	return desc, nil
}

// NextAddress derives the address at s.NextIndex and returns it with the
// advanced state. s itself is not modified. The caller must persist the
// returned state before treating the address as issued.
func NextAddress(s State) (*Address, State, error) {
	desc, err := descriptorFromState(s)
	if err != nil {
		return nil, s, err
	}
	return nextAddress(desc, s)
}

func nextAddress(desc *descriptor.Descriptor, s State) (*Address, State, error) {
	if s.NextIndex >= hdkey.HardenedKeyStart {
		return nil, s, msigerr.WithDetails(msigerr.ErrIndexExhausted, map[string]string{
			"wallet": s.Name,
			"index":  strconv.FormatUint(uint64(s.NextIndex), 10),
		})
	}
	addr, err := addressAt(desc, s.NextIndex)
	if err != nil {
		return nil, s, err
	}
	next := s
	next.Participants = append([]string(nil), s.Participants...)
	next.NextIndex++
	return addr, next, nil
}

func addressAt(desc *descriptor.Descriptor, index uint32) (*Address, error) {
	encoded, script, err := desc.AddressAt(index)
	if err != nil {
		return nil, err
	}
	return &Address{
		Index:         index,
		Address:       encoded,
		Path:          "0/" + strconv.FormatUint(uint64(index), 10),
		WitnessScript: fmt.Sprintf("%x", script),
	}, nil
}

// NextAddress issues the next receive address and advances the cursor.
func (w *Wallet) NextAddress() (*Address, error) {
	return w.NextAddressCommit(nil)
}

// NextAddressCommit issues the next receive address. When commit is not
// nil it is called with the advanced state while the wallet is locked; the
// in-memory state only moves forward if commit succeeds, so a failed save
// never leaves the wallet ahead of what was persisted.
func (w *Wallet) NextAddressCommit(commit func(State) error) (*Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	addr, next, err := nextAddress(w.desc, w.state)
	if err != nil {
		return nil, err
	}
	if commit != nil {
		if err := commit(next); err != nil {
			return nil, err
		}
	}
	w.state = next
	return addr, nil
}

// AddressAt re-derives the receive address at index without touching the
// cursor.
func (w *Wallet) AddressAt(index uint32) (*Address, error) {
	return addressAt(w.desc, index)
}

// IssuedAddresses re-derives every address handed out so far, indexes
// [0, NextIndex).
func (w *Wallet) IssuedAddresses() ([]Address, error) {
	next := w.NextIndex()
	out := make([]Address, 0, next)
	for i := uint32(0); i < next; i++ {
		a, err := addressAt(w.desc, i)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

// State returns a copy of the current state.
func (w *Wallet) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.state
	s.Participants = append([]string(nil), w.state.Participants...)
	return s
}

// Marshal encodes the current state as indented JSON.
func (w *Wallet) Marshal() ([]byte, error) {
	return marshalState(w.State())
}

func marshalState(s State) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Name is the wallet's unique name.
func (w *Wallet) Name() string { return w.name }

// Threshold is the number of signatures required.
func (w *Wallet) Threshold() int { return w.desc.Threshold() }

// Network the wallet belongs to.
func (w *Wallet) Network() chain.Network { return w.desc.Network() }

// ParticipantCount is N.
func (w *Wallet) ParticipantCount() int { return w.desc.Len() }

// Participants returns the co-signer keys in canonical order.
func (w *Wallet) Participants() []descriptor.ParticipantKey { return w.desc.Participants() }

// Descriptor returns the validated policy.
func (w *Wallet) Descriptor() *descriptor.Descriptor { return w.desc }

// CreatedAt is when the wallet was created.
func (w *Wallet) CreatedAt() time.Time { return w.createdAt }

// NextIndex is the first receive index not yet issued.
func (w *Wallet) NextIndex() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.NextIndex
}
