// Package vocabulary derives the ordered list of words a proof text must contain.
//
// Derivation is a pure function of (seed, difficulty) and is replicated bit-for-bit by the
// remote verifier. None of the constants in this package are tunable.
package vocabulary

import (
	"encoding/binary"
	"strings"

	"github.com/poi-miner/post-miner/shared"
)

// MaxWords is the largest vocabulary the step function can require.
const MaxWords = 8

// Vocabulary is an ordered, duplicate-free sequence of words. The order is the order in which
// the words must appear in the proof text.
type Vocabulary []string

func (v Vocabulary) String() string {
	return strings.Join(v, ", ")
}

// WordCount maps a difficulty to the number of required words.
func WordCount(difficulty uint64) int {
	switch {
	case difficulty <= 10:
		return 3
	case difficulty <= 15:
		return 4
	case difficulty <= 20:
		return 5
	case difficulty <= 30:
		return 6
	case difficulty <= 40:
		return 7
	default:
		return 8
	}
}

// Derive returns the vocabulary for the given seed and difficulty.
//
// Word i is chosen from the big-endian uint16 at seed[2i:2i+2] modulo the list length.
// Collisions are resolved by probing forward with wrap-around. If a probe cycles through the whole
// list without finding a free slot, derivation stops and the shorter vocabulary is returned;
// the verifier does the same.
func Derive(seed shared.Seed, difficulty uint64) Vocabulary {
	return derive(seed, WordCount(difficulty), WordList[:])
}

// Indices returns the word list indices Derive would pick, in placement order.
func Indices(seed shared.Seed, difficulty uint64) []int {
	return deriveIndices(seed, WordCount(difficulty), len(WordList))
}

func derive(seed shared.Seed, count int, list []string) Vocabulary {
	indices := deriveIndices(seed, count, len(list))
	words := make(Vocabulary, 0, len(indices))
	for _, idx := range indices {
		words = append(words, list[idx])
	}
	return words
}

func deriveIndices(seed shared.Seed, count, listLen int) []int {
	used := make(map[int]struct{}, count)
	indices := make([]int, 0, count)

	for i := 0; i < count; i++ {
		raw := binary.BigEndian.Uint16(seed[2*i : 2*i+2])
		idx := int(raw) % listLen

		tries := 0
		for ; tries < listLen; tries++ {
			if _, ok := used[idx]; !ok {
				break
			}
			idx = (idx + 1) % listLen
		}
		if tries >= listLen {
			break
		}

		used[idx] = struct{}{}
		indices = append(indices, idx)
	}
	return indices
}
