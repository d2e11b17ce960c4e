package proving

import (
	"math/bits"

	"github.com/poi-miner/post-miner/shared"
)

// MaxDifficulty is the largest difficulty a 256 bit hash can satisfy.
const MaxDifficulty = shared.HashSize * 8

// CheckDifficulty reports whether the first d bits of hash, read from the most significant bit of
// byte 0, are all zero.
//
// The check is split into d/8 whole zero bytes and a top-masked partial byte for the remaining
// d%8 bits. A difficulty above 256 can never be satisfied.
func CheckDifficulty(hash [shared.HashSize]byte, d uint64) bool {
	if d > MaxDifficulty {
		return false
	}
	fullBytes := d / 8
	remainingBits := d % 8

	for i := uint64(0); i < fullBytes; i++ {
		if i >= shared.HashSize {
			return false
		}
		if hash[i] != 0 {
			return false
		}
	}

	if remainingBits > 0 && fullBytes < shared.HashSize {
		mask := byte(0xFF << (8 - remainingBits))
		if hash[fullBytes]&mask != 0 {
			return false
		}
	}
	return true
}

// LeadingZeroBits returns the number of leading zero bits of hash.
func LeadingZeroBits(hash [shared.HashSize]byte) int {
	n := 0
	for _, b := range hash {
		if b != 0 {
			return n + bits.LeadingZeros8(b)
		}
		n += 8
	}
	return n
}

// ExpectedAttempts is the mean number of hashes needed to satisfy difficulty d.
func ExpectedAttempts(d uint64) float64 {
	if d >= 64 {
		return float64(^uint64(0))
	}
	return float64(uint64(1) << d)
}
