// Package ledger encodes and decodes the remote program's account data and instruction payloads.
package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/poi-miner/post-miner/shared"
)

// Byte offsets of the mine state account. All integers are little-endian.
const (
	offsetTotalMined     = 8
	offsetDifficulty     = 16
	offsetSeed           = 24
	offsetEpoch          = 56
	offsetEpochStart     = 64
	offsetEpochEnd       = 72
	offsetSolutions      = 80
	offsetSettled        = 88
	offsetTotalSupply    = 96
	offsetMint           = 104
	offsetCrankAuthority = 136
	offsetBump           = 168

	// MineStateSize is the size of the mine state account including its discriminator.
	MineStateSize = 169
)

// ErrAccountTooShort is returned when account data is smaller than the expected layout.
var ErrAccountTooShort = errors.New("account data too short")

// MineState is the decoded mine state account.
type MineState struct {
	shared.EpochState

	SettledInEpoch uint64
	Bump           uint8
}

// DecodeMineState decodes the mine state account data. The leading account discriminator is not
// checked.
func DecodeMineState(data []byte) (*MineState, error) {
	if len(data) < MineStateSize {
		return nil, fmt.Errorf("%w: expected at least %d bytes, got %d", ErrAccountTooShort, MineStateSize, len(data))
	}

	s := &MineState{
		EpochState: shared.EpochState{
			TotalMined:       binary.LittleEndian.Uint64(data[offsetTotalMined:]),
			Difficulty:       binary.LittleEndian.Uint64(data[offsetDifficulty:]),
			Epoch:            binary.LittleEndian.Uint64(data[offsetEpoch:]),
			EpochStart:       unixTime(data[offsetEpochStart:]),
			EpochEnd:         unixTime(data[offsetEpochEnd:]),
			SolutionsInEpoch: binary.LittleEndian.Uint64(data[offsetSolutions:]),
			TotalSupply:      binary.LittleEndian.Uint64(data[offsetTotalSupply:]),
		},
		SettledInEpoch: binary.LittleEndian.Uint64(data[offsetSettled:]),
		Bump:           data[offsetBump],
	}
	copy(s.Seed[:], data[offsetSeed:offsetSeed+shared.SeedSize])
	copy(s.Mint[:], data[offsetMint:offsetMint+shared.IdentitySize])
	copy(s.CrankAuthority[:], data[offsetCrankAuthority:offsetCrankAuthority+shared.IdentitySize])
	return s, nil
}

// EncodeMineState is the inverse of DecodeMineState. Times are truncated to whole seconds.
func EncodeMineState(s *MineState) []byte {
	data := make([]byte, MineStateSize)
	disc := AccountDiscriminator("MineState")
	copy(data, disc[:])

	binary.LittleEndian.PutUint64(data[offsetTotalMined:], s.TotalMined)
	binary.LittleEndian.PutUint64(data[offsetDifficulty:], s.Difficulty)
	copy(data[offsetSeed:], s.Seed[:])
	binary.LittleEndian.PutUint64(data[offsetEpoch:], s.Epoch)
	binary.LittleEndian.PutUint64(data[offsetEpochStart:], uint64(s.EpochStart.Unix()))
	binary.LittleEndian.PutUint64(data[offsetEpochEnd:], uint64(s.EpochEnd.Unix()))
	binary.LittleEndian.PutUint64(data[offsetSolutions:], s.SolutionsInEpoch)
	binary.LittleEndian.PutUint64(data[offsetSettled:], s.SettledInEpoch)
	binary.LittleEndian.PutUint64(data[offsetTotalSupply:], s.TotalSupply)
	copy(data[offsetMint:], s.Mint[:])
	copy(data[offsetCrankAuthority:], s.CrankAuthority[:])
	data[offsetBump] = s.Bump
	return data
}

func unixTime(b []byte) time.Time {
	return time.Unix(int64(binary.LittleEndian.Uint64(b)), 0)
}
