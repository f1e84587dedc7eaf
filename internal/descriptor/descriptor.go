package descriptor

import (
	"bytes"
	"slices"
	"strconv"
	"strings"

	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/hdkey"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// Descriptor is a validated threshold-of-N policy over canonically ordered
// participants. It is immutable and safe for concurrent use.
type Descriptor struct {
	participants []ParticipantKey
	threshold    int
	network      chain.Network
}

// Build validates keys and threshold for net and returns the canonical
// descriptor. Input order does not matter.
func Build(keys []ParticipantKey, threshold int, net chain.Network) (*Descriptor, error) {
	if !net.IsValid() {
		return nil, msigerr.WithDetails(msigerr.ErrInvalidNetwork, map[string]string{"network": net.String()})
	}
	if err := checkPolicy(threshold, len(keys)); err != nil {
		return nil, err
	}

	sorted := make([]ParticipantKey, len(keys))
	for i, k := range keys {
		if k.Key == nil {
			return nil, msigerr.WithDetails(msigerr.ErrMalformedExtendedKey, map[string]string{
				"participant": strconv.Itoa(i),
				"reason":      "missing key",
			})
		}
		if k.Key.IsPrivate() {
			return nil, msigerr.WithDetails(msigerr.ErrMalformedExtendedKey, map[string]string{
				"participant": strconv.Itoa(i),
				"reason":      "participant keys must be extended public keys",
			})
		}
		if !k.Key.IsForNet(net) {
			return nil, msigerr.WithDetails(msigerr.ErrNetworkMismatch, map[string]string{
				"participant": strconv.Itoa(i),
				"key":         k.Key.String(),
				"network":     net.String(),
			})
		}
		k.Path = slices.Clone(k.Path)
		sorted[i] = k
	}

	slices.SortStableFunc(sorted, func(a, b ParticipantKey) int {
		return bytes.Compare(a.Key.PublicKeyBytes(), b.Key.PublicKeyBytes())
	})
	for i := 1; i < len(sorted); i++ {
		if bytes.Equal(sorted[i-1].Key.PublicKeyBytes(), sorted[i].Key.PublicKeyBytes()) {
			return nil, msigerr.WithDetails(msigerr.ErrDuplicateParticipant, map[string]string{
				"key": sorted[i].Key.String(),
			})
		}
	}

	return &Descriptor{participants: sorted, threshold: threshold, network: net}, nil
}

// Threshold is the number of signatures required.
func (d *Descriptor) Threshold() int { return d.threshold }

// Network the descriptor's keys and addresses belong to.
func (d *Descriptor) Network() chain.Network { return d.network }

// Len is the number of participants, N.
func (d *Descriptor) Len() int { return len(d.participants) }

// Participants returns the participants in canonical order.
func (d *Descriptor) Participants() []ParticipantKey {
	return slices.Clone(d.participants)
}

// Policy renders "T-of-N".
func (d *Descriptor) Policy() string {
	return strconv.Itoa(d.threshold) + "-of-" + strconv.Itoa(len(d.participants))
}

// PublicKeysAt derives each participant's receive key at 0/index, in
// canonical participant order.
func (d *Descriptor) PublicKeysAt(index uint32) ([][]byte, error) {
	if index >= hdkey.HardenedKeyStart {
		return nil, msigerr.WithDetails(msigerr.ErrInvalidDerivationPath, map[string]string{
			"index":  strconv.FormatUint(uint64(index), 10),
			"reason": "receive index must be non-hardened",
		})
	}
	path := hdkey.ReceivePath(index)
	keys := make([][]byte, len(d.participants))
	for i, p := range d.participants {
		child, err := p.Key.Derive(path)
		if err != nil {
			return nil, err
		}
		keys[i] = child.PublicKeyBytes()
	}
	return keys, nil
}

// ScriptAt returns the witness script for receive index.
func (d *Descriptor) ScriptAt(index uint32) ([]byte, error) {
	keys, err := d.PublicKeysAt(index)
	if err != nil {
		return nil, err
	}
	return assembleScript(d.threshold, keys)
}

// AddressAt returns the P2WSH address and witness script for receive index.
func (d *Descriptor) AddressAt(index uint32) (string, []byte, error) {
	script, err := d.ScriptAt(index)
	if err != nil {
		return "", nil, err
	}
	addr, err := WitnessAddress(script, d.network)
	if err != nil {
		return "", nil, err
	}
	return addr, script, nil
}

// Body renders the descriptor without its checksum.
func (d *Descriptor) Body() string {
	var b strings.Builder
	b.WriteString("wsh(multi(")
	b.WriteString(strconv.Itoa(d.threshold))
	for _, p := range d.participants {
		b.WriteByte(',')
		b.WriteString(p.String())
		b.WriteString("/0/*")
	}
	b.WriteString("))")
	return b.String()
}

// String renders the output descriptor with its BIP380 checksum.
func (d *Descriptor) String() string {
	body := d.Body()
	// Body only emits characters from the descriptor charset.
	sum, _ := DescriptorChecksum(body)
	return body + "#" + sum
}

// Equal reports whether two descriptors describe the same policy.
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.String() == o.String()
}
