package ledger

import (
	"encoding/binary"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/poi-miner/post-miner/shared"
)

func TestDiscriminator(t *testing.T) {
	tests := map[string]string{
		InstructionSubmit:        "cbe99dbf4625cd00",
		InstructionAdvance:       "5d8aeadaf1e68426",
		InstructionClaim:         "3ec6d6c1d59f6cd2",
		InstructionCreateVesting: "87b8ab9cc5a2f62c",
		InstructionWithdraw:      "b712469c946da122",
	}
	for name, want := range tests {
		d := Discriminator(name)
		require.Equal(t, want, hex.EncodeToString(d[:]), name)
	}

	d := AccountDiscriminator("MineState")
	require.Equal(t, "157c2653cd86b551", hex.EncodeToString(d[:]))
}

func TestDecodeMineState(t *testing.T) {
	r := require.New(t)

	data := make([]byte, MineStateSize)
	binary.LittleEndian.PutUint64(data[8:], 1234)
	binary.LittleEndian.PutUint64(data[16:], 11)
	for i := 0; i < shared.SeedSize; i++ {
		data[24+i] = byte(i + 1)
	}
	binary.LittleEndian.PutUint64(data[56:], 42)
	binary.LittleEndian.PutUint64(data[64:], 1_700_000_000)
	binary.LittleEndian.PutUint64(data[72:], 1_700_000_600)
	binary.LittleEndian.PutUint64(data[80:], 7)
	binary.LittleEndian.PutUint64(data[88:], 3)
	binary.LittleEndian.PutUint64(data[96:], 25_000_000)
	data[104] = 0xAA
	data[136] = 0xBB
	data[168] = 254

	s, err := DecodeMineState(data)
	r.NoError(err)
	r.Equal(uint64(1234), s.TotalMined)
	r.Equal(uint64(11), s.Difficulty)
	r.Equal(byte(1), s.Seed[0])
	r.Equal(byte(32), s.Seed[31])
	r.Equal(uint64(42), s.Epoch)
	r.Equal(time.Unix(1_700_000_000, 0), s.EpochStart)
	r.Equal(time.Unix(1_700_000_600, 0), s.EpochEnd)
	r.Equal(uint64(7), s.SolutionsInEpoch)
	r.Equal(uint64(3), s.SettledInEpoch)
	r.Equal(uint64(25_000_000), s.TotalSupply)
	r.Equal(byte(0xAA), s.Mint[0])
	r.Equal(byte(0xBB), s.CrankAuthority[0])
	r.Equal(uint8(254), s.Bump)

	// encoding restores the same fields behind the account discriminator.
	encoded := EncodeMineState(s)
	disc := AccountDiscriminator("MineState")
	r.Equal(disc[:], encoded[:DiscriminatorSize])
	r.Equal(data[DiscriminatorSize:], encoded[DiscriminatorSize:])
}

func TestDecodeMineState_TooShort(t *testing.T) {
	_, err := DecodeMineState(make([]byte, MineStateSize-1))
	require.ErrorIs(t, err, ErrAccountTooShort)
}

func TestEncodeSubmit(t *testing.T) {
	r := require.New(t)

	text := []byte("hello.")
	payload := EncodeSubmit(text, 0x0102030405060708, nil)
	r.Len(payload, 8+4+len(text)+8)
	r.Equal("cbe99dbf4625cd00", hex.EncodeToString(payload[:8]))
	r.Equal(uint32(len(text)), binary.LittleEndian.Uint32(payload[8:12]))
	r.Equal(text, payload[12:18])
	r.Equal("0807060504030201", hex.EncodeToString(payload[18:]))

	recipient := shared.Identity{0xFF}
	payload = EncodeSubmit(text, 1, &recipient)
	r.Len(payload, 8+4+len(text)+8+shared.IdentitySize)
	r.Equal(recipient[:], payload[len(payload)-shared.IdentitySize:])
}

func TestEncodeAdvance(t *testing.T) {
	r := require.New(t)

	payload := EncodeAdvance(3)
	r.Equal("5d8aeadaf1e68426"+"0300000000000000", hex.EncodeToString(payload))
	r.Equal("3ec6d6c1d59f6cd2", hex.EncodeToString(EncodeClaim()))
	r.Equal("87b8ab9cc5a2f62c", hex.EncodeToString(EncodeCreateVesting()))
	r.Equal("b712469c946da122", hex.EncodeToString(EncodeWithdraw()))
}
