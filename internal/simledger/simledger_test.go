package simledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/poi-miner/post-miner/epoch"
	"github.com/poi-miner/post-miner/ledger"
	"github.com/poi-miner/post-miner/protocol"
	"github.com/poi-miner/post-miner/proving"
	"github.com/poi-miner/post-miner/shared"
)

type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	return nil
}

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

var (
	miner     = shared.Identity{1, 2, 3}
	recipient = shared.Identity{9, 9, 9}
)

func newProgram(t *testing.T, clock *testClock, version string, difficulty uint64) *Program {
	proto, err := protocol.Lookup(version)
	require.NoError(t, err)
	p, err := New(clock, proto,
		WithLogger(zaptest.NewLogger(t)),
		WithInitialDifficulty(difficulty),
		WithAddress(shared.Identity{0xaa}),
	)
	require.NoError(t, err)
	return p
}

// solve composes and searches a valid submission for the current epoch of p.
func solve(t *testing.T, p *Program, id shared.Identity) ([]byte, uint64) {
	s := p.State()
	words := p.proto.Words(s.Seed, s.Difficulty)
	text, err := p.proto.Composer().Compose(words)
	require.NoError(t, err)
	res, err := proving.Search(context.Background(), s.Seed, id, text, s.Difficulty, proving.WithThreads(2))
	require.NoError(t, err)
	return text, res.Nonce
}

func TestAdjustDifficulty(t *testing.T) {
	tests := []struct {
		difficulty uint64
		count      uint64
		want       uint64
	}{
		{8, 50, 8},
		{8, 40, 8},
		{8, 60, 8},
		{8, 61, 9},
		{8, 100, 9},
		{8, 150, 10},
		{8, 1000, 13},
		{248, 1000, 250},
		{8, 39, 7},
		{8, 12, 6},
		{8, 1, 4},
		{20, 1, 15},
		{8, 0, 4},
		{20, 0, 15},
		{4, 0, 4},
		{MaxDifficulty, 0, MaxDifficulty - MaxDifficultyAdj},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, AdjustDifficulty(tc.difficulty, tc.count), "difficulty %d count %d", tc.difficulty, tc.count)
	}
}

func TestReward(t *testing.T) {
	r := require.New(t)
	r.Equal(InitialReward, Reward(0))
	r.Equal(InitialReward, Reward(HalvingInterval-1))
	r.Equal(InitialReward/2, Reward(HalvingInterval))
	r.Equal(InitialReward/4, Reward(2*HalvingInterval+5))
	r.Zero(Reward(64 * HalvingInterval))
	r.Zero(Reward(^uint64(0)))
}

func TestVestingDrip(t *testing.T) {
	r := require.New(t)
	start := time.Unix(1_700_000_000, 0)
	v := &vestingAccount{locked: 3_000, lastUpdate: start}

	v.drip(start)
	r.Equal(uint64(3_000), v.locked)
	r.Zero(v.unlocked)

	v.drip(start.Add(VestingDuration / 3))
	r.Equal(uint64(2_000), v.locked)
	r.Equal(uint64(1_000), v.unlocked)

	v.drip(start.Add(2 * VestingDuration))
	r.Zero(v.locked)
	r.Equal(uint64(3_000), v.unlocked)
}

func TestNew(t *testing.T) {
	r := require.New(t)
	clock := newTestClock()
	p := newProgram(t, clock, protocol.V2, InitialDifficulty)

	s := p.State()
	r.Zero(s.Epoch)
	r.Equal(InitialDifficulty, s.Difficulty)
	r.Equal(clock.now, s.EpochStart)
	r.Equal(clock.now.Add(EpochDuration), s.EpochEnd)
	r.NotEqual(shared.ZeroSeed, s.Seed)

	decoded, err := ledger.DecodeMineState(p.AccountData())
	r.NoError(err)
	r.Equal(s.Seed, decoded.Seed)
	r.Equal(s.EpochEnd, decoded.EpochEnd)

	proto, err := protocol.Lookup(protocol.V2)
	r.NoError(err)
	_, err = New(clock, proto, WithEpochDuration(time.Millisecond))
	r.Error(err)
	_, err = New(clock, proto, WithInitialDifficulty(MaxDifficulty+1))
	r.Error(err)
	_, err = New(clock, proto, WithLogger(nil))
	r.Error(err)
}

func TestSubmitSolution(t *testing.T) {
	r := require.New(t)
	clock := newTestClock()
	p := newProgram(t, clock, protocol.V2, InitialDifficulty)

	text, nonce := solve(t, p, miner)
	s := p.State()
	bad := nonce + 1
	for proving.Verify(s.Seed, miner, text, bad, s.Difficulty) {
		bad++
	}

	_, err := p.SubmitSolution(miner, text, bad, recipient)
	r.ErrorIs(err, shared.ErrInsufficientDifficulty)
	_, err = p.SubmitSolution(miner, []byte("too short."), nonce, recipient)
	r.ErrorIs(err, shared.ErrInvalidText)

	res, err := p.SubmitSolution(miner, text, nonce, recipient)
	r.NoError(err)
	r.NotEmpty(res.Signature)

	_, err = p.SubmitSolution(miner, text, nonce, recipient)
	r.ErrorIs(err, shared.ErrDuplicateSubmission)

	clock.advance(EpochDuration)
	_, err = p.SubmitSolution(shared.Identity{4}, text, nonce, recipient)
	r.ErrorIs(err, shared.ErrEpochEnded)
}

func TestAdvanceEpoch(t *testing.T) {
	r := require.New(t)
	clock := newTestClock()
	p := newProgram(t, clock, protocol.V2, 20)

	_, err := p.AdvanceEpoch(0)
	r.ErrorIs(err, shared.ErrEpochNotEnded)

	before := p.State()
	clock.advance(EpochDuration + 3*time.Second)
	res, err := p.AdvanceEpoch(0)
	r.NoError(err)
	r.NotEmpty(res.Signature)

	after := p.State()
	r.Equal(uint64(1), after.Epoch)
	r.Equal(uint64(15), after.Difficulty)
	r.Zero(after.SolutionsInEpoch)
	r.Equal(clock.now, after.EpochStart)
	r.Equal(clock.now.Add(EpochDuration), after.EpochEnd)
	r.NotEqual(before.Seed, after.Seed)
	r.Equal(nextSeed(before.Seed, clock.now, p.slot(clock.now), 0), after.Seed)

	_, err = p.AdvanceEpoch(0)
	r.ErrorIs(err, shared.ErrEpochNotEnded)
}

func TestClaim(t *testing.T) {
	r := require.New(t)
	clock := newTestClock()
	p := newProgram(t, clock, protocol.V2, InitialDifficulty)

	text, nonce := solve(t, p, miner)
	_, err := p.SubmitSolution(miner, text, nonce, recipient)
	r.NoError(err)

	_, err = p.Claim(miner, 0)
	r.ErrorIs(err, shared.ErrEpochNotEnded)
	_, err = p.Claim(shared.Identity{4}, 0)
	r.ErrorIs(err, shared.ErrSolutionNotFound)

	clock.advance(EpochDuration)
	_, err = p.Claim(miner, 0)
	r.NoError(err)
	r.Equal(InitialReward, p.Balance(recipient))

	s := p.State()
	r.Equal(uint64(1), s.TotalMined)
	r.Equal(InitialReward, s.TotalSupply)

	_, err = p.Claim(miner, 0)
	r.ErrorIs(err, shared.ErrSolutionNotFound)
}

func TestClaim_Expired(t *testing.T) {
	r := require.New(t)
	clock := newTestClock()
	p := newProgram(t, clock, protocol.V2, InitialDifficulty)

	text, nonce := solve(t, p, miner)
	_, err := p.SubmitSolution(miner, text, nonce, recipient)
	r.NoError(err)

	_, err = p.CloseExpired(miner, 0)
	r.ErrorIs(err, ErrNotExpired)

	for range ClaimExpiry {
		clock.advance(EpochDuration)
		_, err := p.AdvanceEpoch(0)
		r.NoError(err)
	}
	_, err = p.Claim(miner, 0)
	r.ErrorIs(err, shared.ErrClaimExpired)

	_, err = p.CloseExpired(miner, 0)
	r.NoError(err)
	_, err = p.CloseExpired(miner, 0)
	r.ErrorIs(err, shared.ErrSolutionNotFound)
}

func TestVesting(t *testing.T) {
	r := require.New(t)
	clock := newTestClock()
	p := newProgram(t, clock, protocol.V3, InitialDifficulty)

	text, nonce := solve(t, p, miner)
	_, err := p.SubmitSolution(miner, text, nonce, recipient)
	r.NoError(err)
	clock.advance(EpochDuration)

	_, err = p.Claim(miner, 0)
	r.ErrorIs(err, ErrVestingNotFound)
	_, err = p.Withdraw(miner, recipient)
	r.ErrorIs(err, ErrVestingNotFound)

	_, err = p.CreateVesting(miner)
	r.NoError(err)
	res, err := p.CreateVesting(miner)
	r.NoError(err)
	r.Empty(res.Signature)

	_, err = p.Claim(miner, 0)
	r.NoError(err)
	r.Zero(p.Balance(recipient))

	_, err = p.Withdraw(miner, recipient)
	r.ErrorIs(err, shared.ErrNothingToWithdraw)

	clock.advance(VestingDuration / 2)
	locked, unlocked, err := p.Vested(miner)
	r.NoError(err)
	r.Equal(InitialReward/2, locked)
	r.Equal(InitialReward/2, unlocked)

	_, err = p.Withdraw(miner, recipient)
	r.NoError(err)
	r.Equal(InitialReward/2, p.Balance(recipient))
}

func TestClient_Submit(t *testing.T) {
	r := require.New(t)
	clock := newTestClock()
	p := newProgram(t, clock, protocol.V2, InitialDifficulty)
	c := p.Client(miner, shared.Identity{})
	r.Equal(miner, c.Identity())

	state, err := c.ReadEpochState(context.Background())
	r.NoError(err)
	text, nonce := solve(t, p, miner)

	_, err = c.Submit(context.Background(), text, nonce, state.Epoch+1)
	r.ErrorIs(err, shared.ErrEpochEnded)
	_, err = c.Submit(context.Background(), text, nonce, state.Epoch)
	r.NoError(err)

	clock.advance(EpochDuration)
	_, err = c.AdvanceEpoch(context.Background(), 1)
	r.NoError(err)
	_, err = c.Claim(context.Background(), state.Epoch)
	r.NoError(err)
	r.Equal(InitialReward, p.Balance(miner))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.ReadEpochState(ctx)
	r.ErrorIs(err, context.Canceled)
}

func TestCoordinator(t *testing.T) {
	for _, version := range protocol.Versions() {
		t.Run(version, func(t *testing.T) {
			r := require.New(t)
			clock := newTestClock()
			p := newProgram(t, clock, version, InitialDifficulty)
			proto, err := protocol.Lookup(version)
			r.NoError(err)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var claims int
			c, err := epoch.NewCoordinator(p.Client(miner, recipient), proto, miner,
				epoch.WithLogger(zaptest.NewLogger(t)),
				epoch.WithClock(clock),
				epoch.WithSearch(2, 0),
				epoch.WithTransitionHook(func(tr epoch.Transition) {
					if tr.From == epoch.Claiming {
						claims++
					}
					if claims == 3 {
						cancel()
					}
				}),
			)
			r.NoError(err)
			r.ErrorIs(c.Run(ctx), context.Canceled)

			s := p.State()
			r.Equal(uint64(3), s.Epoch)
			r.Equal(uint64(3), s.TotalMined)
			r.Equal(3*InitialReward, s.TotalSupply)
			if proto.WithdrawEvery() > 0 {
				locked, unlocked, err := p.Vested(miner)
				r.NoError(err)
				r.Equal(3*InitialReward, locked+unlocked)
				return
			}
			r.Equal(3*InitialReward, p.Balance(recipient))
		})
	}
}
