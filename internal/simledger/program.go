// Package simledger emulates the remote mining program in process.
//
// It applies the same checks, difficulty adjustment, seed rotation and reward schedule as the
// on-chain program against an injected clock. It backs the dev mode of the miner and the
// integration tests; it does not emulate transaction fees or account rent.
package simledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"

	"github.com/poi-miner/post-miner/ledger"
	"github.com/poi-miner/post-miner/protocol"
	"github.com/poi-miner/post-miner/shared"
	"github.com/poi-miner/post-miner/verifying"
)

// SlotDuration is the time per simulated slot.
const SlotDuration = 400 * time.Millisecond

var (
	ErrVestingNotFound = errors.New("vesting account not found")
	ErrNotExpired      = errors.New("solution has not expired yet")
	ErrStaleEpoch      = errors.New("solution epoch does not match the current epoch")
)

// Clock provides the program's notion of time.
type Clock interface {
	Now() time.Time
}

type solutionKey struct {
	miner shared.Identity
	epoch uint64
}

type solution struct {
	recipient shared.Identity
	nonce     uint64
	hash      [shared.HashSize]byte
}

// Program is the emulated program. It is safe for concurrent use by several miners.
type Program struct {
	mu sync.Mutex

	clock   Clock
	proto   protocol.Protocol
	logger  *zap.Logger
	address shared.Identity

	genesis       time.Time
	epochDuration time.Duration
	state         ledger.MineState
	solutions     map[solutionKey]*solution
	vesting       map[shared.Identity]*vestingAccount
	balances      map[shared.Identity]uint64
	txCount       uint64
}

// New initializes the program state at the current time of clock.
func New(clock Clock, proto protocol.Protocol, opts ...OptionFunc) (*Program, error) {
	options := defaultOption()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if err := options.validate(); err != nil {
		return nil, err
	}

	now := clock.Now()
	p := &Program{
		clock:         clock,
		proto:         proto,
		logger:        options.logger,
		address:       options.address,
		genesis:       now,
		epochDuration: options.epochDuration,
		solutions:     make(map[solutionKey]*solution),
		vesting:       make(map[shared.Identity]*vestingAccount),
		balances:      make(map[shared.Identity]uint64),
	}
	p.state = ledger.MineState{
		EpochState: shared.EpochState{
			Difficulty:     options.difficulty,
			Seed:           p.initialSeed(now),
			EpochStart:     now.Truncate(time.Second),
			EpochEnd:       now.Truncate(time.Second).Add(options.epochDuration),
			Mint:           options.mint,
			CrankAuthority: options.authority,
		},
		Bump: 255,
	}
	return p, nil
}

func (p *Program) slot(now time.Time) uint64 {
	if now.Before(p.genesis) {
		return 0
	}
	return uint64(now.Sub(p.genesis) / SlotDuration)
}

func (p *Program) initialSeed(now time.Time) shared.Seed {
	h := sha3.NewLegacyKeccak256()
	h.Write(binary.LittleEndian.AppendUint64(nil, p.slot(now)))
	h.Write(binary.LittleEndian.AppendUint64(nil, uint64(now.Unix())))
	h.Write(p.address[:])

	var seed shared.Seed
	h.Sum(seed[:0])
	return seed
}

// nextSeed derives the seed of the next epoch: keccak(seed | unix_ts_le | slot_le | count_le).
func nextSeed(seed shared.Seed, now time.Time, slot, solutionCount uint64) shared.Seed {
	h := sha3.NewLegacyKeccak256()
	h.Write(seed[:])
	h.Write(binary.LittleEndian.AppendUint64(nil, uint64(now.Unix())))
	h.Write(binary.LittleEndian.AppendUint64(nil, slot))
	h.Write(binary.LittleEndian.AppendUint64(nil, solutionCount))

	var next shared.Seed
	h.Sum(next[:0])
	return next
}

// signature returns a simulated transaction signature.
func (p *Program) signature(action string) *shared.TxResult {
	p.txCount++
	h := sha3.NewLegacyKeccak256()
	h.Write(p.address[:])
	h.Write([]byte(action))
	h.Write(binary.LittleEndian.AppendUint64(nil, p.txCount))

	var sig shared.Identity
	h.Sum(sig[:0])
	return &shared.TxResult{Signature: sig.String()}
}

// State returns a copy of the mine state.
func (p *Program) State() ledger.MineState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// AccountData returns the mine state encoded as account data.
func (p *Program) AccountData() []byte {
	s := p.State()
	return ledger.EncodeMineState(&s)
}

// Balance returns the tokens minted to owner.
func (p *Program) Balance(owner shared.Identity) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[owner]
}

// Vested returns the locked and unlocked amounts of miner's vesting account as of now.
func (p *Program) Vested(miner shared.Identity) (locked, unlocked uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, ok := p.vesting[miner]
	if !ok {
		return 0, 0, ErrVestingNotFound
	}
	cp := *v
	cp.drip(p.clock.Now())
	return cp.locked, cp.unlocked, nil
}

// SubmitSolution records a solution of miner for the current epoch.
func (p *Program) SubmitSolution(miner shared.Identity, text []byte, nonce uint64, recipient shared.Identity) (*shared.TxResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	s := &p.state
	if !now.Before(s.EpochEnd) {
		return nil, shared.ErrEpochEnded
	}
	if s.TotalSupply >= MaxSupply {
		return nil, shared.ErrMaxSupplyReached
	}
	key := solutionKey{miner: miner, epoch: s.Epoch}
	if _, ok := p.solutions[key]; ok {
		return nil, shared.ErrDuplicateSubmission
	}

	hash, err := verifying.Verify(s.Seed, miner, text, nonce, s.Difficulty,
		verifying.WithRules(p.proto.Rules()),
		verifying.WithLogger(p.logger),
	)
	if err != nil {
		return nil, err
	}

	if recipient.IsZero() {
		recipient = miner
	}
	p.solutions[key] = &solution{recipient: recipient, nonce: nonce, hash: hash}
	p.logger.Debug("simledger: solution accepted",
		zap.Stringer("miner", miner),
		zap.Uint64("epoch", s.Epoch),
		zap.Uint64("nonce", nonce),
	)
	return p.signature("submit_solution"), nil
}

// AdvanceEpoch closes the ended epoch. Anyone may call it.
func (p *Program) AdvanceEpoch(solutionCount uint64) (*shared.TxResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	s := &p.state
	if now.Before(s.EpochEnd) {
		return nil, shared.ErrEpochNotEnded
	}

	s.SolutionsInEpoch = solutionCount
	s.Difficulty = AdjustDifficulty(s.Difficulty, solutionCount)
	s.Seed = nextSeed(s.Seed, now, p.slot(now), solutionCount)
	s.Epoch++
	s.EpochStart = now.Truncate(time.Second)
	s.EpochEnd = s.EpochStart.Add(p.epochDuration)

	p.logger.Debug("simledger: epoch advanced",
		zap.Uint64("epoch", s.Epoch),
		zap.Uint64("difficulty", s.Difficulty),
		zap.Uint64("solutions", solutionCount),
	)
	return p.signature("advance_epoch"), nil
}

// CreateVesting creates the vesting account of miner. It is a no-op if the account exists.
func (p *Program) CreateVesting(miner shared.Identity) (*shared.TxResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.vesting[miner]; ok {
		return &shared.TxResult{}, nil
	}
	p.vesting[miner] = &vestingAccount{lastUpdate: p.clock.Now()}
	return p.signature("create_vesting"), nil
}

// Claim redeems the solution of miner for epoch. On versions with vesting the reward is locked in
// the vesting account; otherwise it is minted to the solution's recipient.
func (p *Program) Claim(miner shared.Identity, epoch uint64) (*shared.TxResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	s := &p.state
	key := solutionKey{miner: miner, epoch: epoch}
	sol, ok := p.solutions[key]
	if !ok {
		return nil, shared.ErrSolutionNotFound
	}

	over := epoch < s.Epoch || epoch == s.Epoch && !now.Before(s.EpochEnd)
	if !over {
		return nil, shared.ErrEpochNotEnded
	}
	if s.Epoch >= saturatingAdd(epoch, ClaimExpiry) {
		return nil, shared.ErrClaimExpired
	}

	reward := min(Reward(s.TotalMined), MaxSupply-min(s.TotalSupply, MaxSupply))
	if p.proto.WithdrawEvery() > 0 {
		v, ok := p.vesting[miner]
		if !ok {
			return nil, ErrVestingNotFound
		}
		v.drip(now)
		v.locked += reward
	} else {
		p.balances[sol.recipient] += reward
	}

	s.TotalMined++
	s.TotalSupply += reward
	delete(p.solutions, key)

	p.logger.Debug("simledger: reward claimed", zap.Stringer("miner", miner), zap.Uint64("epoch", epoch), zap.Uint64("reward", reward))
	return p.signature("claim"), nil
}

// Withdraw mints the vested amount of miner to recipient.
func (p *Program) Withdraw(miner, recipient shared.Identity) (*shared.TxResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, ok := p.vesting[miner]
	if !ok {
		return nil, ErrVestingNotFound
	}
	v.drip(p.clock.Now())
	if v.unlocked == 0 {
		return nil, shared.ErrNothingToWithdraw
	}

	amount := v.unlocked
	v.unlocked = 0
	p.balances[recipient] += amount
	return p.signature("withdraw"), nil
}

// CloseExpired removes an unclaimed solution whose claim period has passed.
func (p *Program) CloseExpired(miner shared.Identity, epoch uint64) (*shared.TxResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := solutionKey{miner: miner, epoch: epoch}
	if _, ok := p.solutions[key]; !ok {
		return nil, shared.ErrSolutionNotFound
	}
	if p.state.Epoch < saturatingAdd(epoch, ClaimExpiry) {
		return nil, ErrNotExpired
	}
	delete(p.solutions, key)
	return p.signature("close_expired"), nil
}

// Client returns the view of one miner on the program. It implements the coordinator's ledger
// and vesting interfaces.
func (p *Program) Client(miner, recipient shared.Identity) *Client {
	return &Client{program: p, miner: miner, recipient: recipient}
}

func (p *Program) String() string {
	return fmt.Sprintf("simledger(%s)", p.proto.Version())
}
