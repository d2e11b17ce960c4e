package proving

import (
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/sha3"

	"github.com/poi-miner/post-miner/shared"
)

// Separator is placed between the text and the nonce in the hash input.
var Separator = []byte("||")

// NonceSize is the width of the little-endian nonce at the end of the hash input.
const NonceSize = 8

// Hash computes keccak256(seed | identity | text | "||" | nonce_le).
func Hash(seed shared.Seed, identity shared.Identity, text []byte, nonce uint64) [shared.HashSize]byte {
	h := newHasher(seed, identity, text)
	return h.sum(nonce)
}

// hasher keeps the fixed prefix of the hash input so that only the nonce is rewritten per attempt.
// A hasher is not safe for concurrent use; every search worker owns one.
type hasher struct {
	input  []byte
	keccak hash.Hash
	out    [shared.HashSize]byte
}

func newHasher(seed shared.Seed, identity shared.Identity, text []byte) *hasher {
	input := make([]byte, 0, shared.SeedSize+shared.IdentitySize+len(text)+len(Separator)+NonceSize)
	input = append(input, seed[:]...)
	input = append(input, identity[:]...)
	input = append(input, text...)
	input = append(input, Separator...)
	input = append(input, make([]byte, NonceSize)...)

	return &hasher{
		input:  input,
		keccak: sha3.NewLegacyKeccak256(),
	}
}

func (h *hasher) sum(nonce uint64) [shared.HashSize]byte {
	binary.LittleEndian.PutUint64(h.input[len(h.input)-NonceSize:], nonce)
	h.keccak.Reset()
	h.keccak.Write(h.input)
	h.keccak.Sum(h.out[:0])
	return h.out
}
