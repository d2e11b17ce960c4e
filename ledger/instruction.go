package ledger

import (
	"encoding/binary"

	"github.com/spacemeshos/sha256-simd"

	"github.com/poi-miner/post-miner/shared"
)

// DiscriminatorSize is the length of an instruction or account discriminator.
const DiscriminatorSize = 8

// Instruction names of the remote program.
const (
	InstructionSubmit        = "submit_solution"
	InstructionAdvance       = "advance_epoch"
	InstructionClaim         = "claim"
	InstructionCreateVesting = "create_vesting"
	InstructionWithdraw      = "withdraw"
)

// Discriminator returns the instruction identifier: the first 8 bytes of sha256("global:" + name).
func Discriminator(name string) [DiscriminatorSize]byte {
	return prefixHash("global:" + name)
}

// AccountDiscriminator returns the account type identifier: the first 8 bytes of
// sha256("account:" + name).
func AccountDiscriminator(name string) [DiscriminatorSize]byte {
	return prefixHash("account:" + name)
}

func prefixHash(s string) [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte(s))
	var d [DiscriminatorSize]byte
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// EncodeSubmit encodes the submit payload: discriminator, u32 text length, text, u64 nonce and,
// when recipient is not nil, the 32-byte recipient.
func EncodeSubmit(text []byte, nonce uint64, recipient *shared.Identity) []byte {
	size := DiscriminatorSize + 4 + len(text) + 8
	if recipient != nil {
		size += shared.IdentitySize
	}

	buf := make([]byte, 0, size)
	disc := Discriminator(InstructionSubmit)
	buf = append(buf, disc[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(text)))
	buf = append(buf, text...)
	buf = binary.LittleEndian.AppendUint64(buf, nonce)
	if recipient != nil {
		buf = append(buf, recipient[:]...)
	}
	return buf
}

// EncodeAdvance encodes the advance payload: discriminator and u64 solution count.
func EncodeAdvance(solutionCount uint64) []byte {
	disc := Discriminator(InstructionAdvance)
	return binary.LittleEndian.AppendUint64(disc[:], solutionCount)
}

// EncodeClaim encodes the claim payload. The epoch is carried by the solution account, not the
// instruction data.
func EncodeClaim() []byte {
	disc := Discriminator(InstructionClaim)
	return disc[:]
}

func EncodeCreateVesting() []byte {
	disc := Discriminator(InstructionCreateVesting)
	return disc[:]
}

func EncodeWithdraw() []byte {
	disc := Discriminator(InstructionWithdraw)
	return disc[:]
}
