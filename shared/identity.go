package shared

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mr-tron/base58"
	"github.com/spacemeshos/ed25519"
)

// IdentitySize is the length of a miner identity (an ed25519 public key).
const IdentitySize = 32

// Identity is the public key of the miner. It is mixed into the proof hash so that a solution
// can only be submitted by the identity it was ground for.
type Identity [IdentitySize]byte

func (id Identity) String() string {
	return base58.Encode(id[:])
}

// Bytes returns a copy of the identity as a slice.
func (id Identity) Bytes() []byte {
	b := make([]byte, IdentitySize)
	copy(b, id[:])
	return b
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// IdentityFromBytes copies b into an Identity.
func IdentityFromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != IdentitySize {
		return id, fmt.Errorf("invalid `identity` length; expected: %d, given: %d", IdentitySize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ParseIdentity decodes a base58 encoded public key.
func ParseIdentity(s string) (Identity, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid identity %q: %w", s, err)
	}
	return IdentityFromBytes(b)
}

// IdentityFromKeypair returns the public half of a keypair.
// The keypair is the 64 byte ed25519 private key (seed followed by public key).
func IdentityFromKeypair(keypair []byte) (Identity, error) {
	if len(keypair) != ed25519.PrivateKeySize {
		return Identity{}, fmt.Errorf("invalid keypair length; expected: %d, given: %d", ed25519.PrivateKeySize, len(keypair))
	}
	priv := ed25519.NewKeyFromSeed(keypair[:ed25519.SeedSize])
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return Identity{}, fmt.Errorf("unexpected public key type %T", priv.Public())
	}
	return IdentityFromBytes(pub)
}

// LoadIdentity reads a keypair file in the common JSON byte-array format
// (e.g. `[12,34,...]`, 64 entries) and returns its public identity.
func LoadIdentity(path string) (Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to read keypair file: %w", err)
	}
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return Identity{}, fmt.Errorf("failed to parse keypair file %s: %w", path, err)
	}
	raw := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return Identity{}, fmt.Errorf("invalid keypair byte at index %d: %d", i, v)
		}
		raw[i] = byte(v)
	}
	return IdentityFromKeypair(raw)
}

// GenerateIdentity returns the identity of a fresh random keypair. The private half is discarded,
// so the identity is only useful against the simulated program.
func GenerateIdentity() (Identity, error) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to generate identity: %w", err)
	}
	return IdentityFromBytes(pub)
}
