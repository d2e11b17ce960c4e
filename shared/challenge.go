package shared

import (
	"encoding/hex"
	"fmt"
)

// SeedSize is the length of a challenge seed published by the program.
const SeedSize = 32

// Seed is the per-epoch challenge seed. It is the only entropy source for vocabulary selection.
type Seed [SeedSize]byte

// ZeroSeed is a seed of 32 zero bytes.
var ZeroSeed Seed

func (s Seed) String() string {
	return hex.EncodeToString(s[:])
}

// SeedFromBytes copies b into a Seed. b must be exactly SeedSize bytes long.
func SeedFromBytes(b []byte) (Seed, error) {
	var s Seed
	if len(b) != SeedSize {
		return s, fmt.Errorf("invalid `seed` length; expected: %d, given: %d", SeedSize, len(b))
	}
	copy(s[:], b)
	return s, nil
}

// ParseSeed decodes a hex encoded seed.
func ParseSeed(h string) (Seed, error) {
	b, err := hex.DecodeString(h)
	if err != nil {
		return Seed{}, fmt.Errorf("invalid seed: %w", err)
	}
	return SeedFromBytes(b)
}
