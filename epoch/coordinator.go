// Package epoch drives the submit, advance and claim lifecycle of the remote program.
package epoch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/poi-miner/post-miner/composing"
	"github.com/poi-miner/post-miner/protocol"
	"github.com/poi-miner/post-miner/proving"
	"github.com/poi-miner/post-miner/shared"
)

// Coordinator is a single-threaded state machine. Only the goroutine calling Step or Run may use
// it.
type Coordinator struct {
	ledger   Ledger
	vesting  Vesting
	protocol protocol.Protocol
	identity shared.Identity

	opts   *option
	logger *zap.Logger
	clock  Clock

	state    State
	cs       CoordinatorState
	snapshot *shared.EpochState
	solution *shared.Solution
	claim    uint64
	lastErr  error

	advanced      bool
	lastAdvanced  uint64
	lastAdvanceAt time.Time
}

// NewCoordinator returns a coordinator in the Idle state. If ledger also implements Vesting and
// the protocol has vested rewards, vested tokens are withdrawn periodically.
func NewCoordinator(ledger Ledger, proto protocol.Protocol, identity shared.Identity, opts ...OptionFunc) (*Coordinator, error) {
	options := defaultOption()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if err := options.validate(); err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, errors.New("ledger is nil")
	}
	if proto == nil {
		return nil, errors.New("protocol is nil")
	}

	c := &Coordinator{
		ledger:   ledger,
		protocol: proto,
		identity: identity,
		opts:     options,
		logger:   options.logger.With(zap.String("protocol", proto.Version())),
		clock:    options.clock,
		state:    Idle,
	}
	if v, ok := ledger.(Vesting); ok && proto.WithdrawEvery() > 0 {
		c.vesting = v
	}
	return c, nil
}

// State returns the current state.
func (c *Coordinator) State() State {
	return c.state
}

// Snapshot returns a copy of the process-local bookkeeping.
func (c *Coordinator) Snapshot() CoordinatorState {
	cs := c.cs
	if cs.PendingClaim != nil {
		epoch := *cs.PendingClaim
		cs.PendingClaim = &epoch
	}
	return cs
}

// Run steps the state machine until ctx is done or a fatal error occurs. Failures of the remote
// program are never fatal; they are retried after the error backoff.
func (c *Coordinator) Run(ctx context.Context) error {
	if c.vesting != nil {
		res, err := c.vesting.CreateVesting(ctx)
		c.recordOutcome(ctx, ActionCreateVesting, 0, res, err)
		if err != nil {
			c.logger.Warn("epoch: failed to create vesting account", zap.Error(err))
		}
	}

	c.logger.Info("epoch: coordinator started", zap.Stringer("identity", c.identity))
	for {
		if err := c.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("epoch: coordinator stopped")
			}
			return err
		}
	}
}

// Step executes the action of the current state and moves to the next one. It returns an error
// only if ctx is done or the failure is fatal.
func (c *Coordinator) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := c.state
	var (
		next State
		err  error
	)
	switch c.state {
	case Idle:
		next, err = c.idle(ctx)
	case AwaitingEpochEnd:
		next, err = c.awaitEpochEnd(ctx)
	case Solving:
		next, err = c.solve(ctx)
	case Submitting:
		next, err = c.submit(ctx)
	case WaitingForAdvance:
		next, err = c.waitForAdvance(ctx)
	case Advancing:
		next, err = c.advance(ctx)
	case Claiming:
		next, err = c.claimReward(ctx)
	case Error:
		next, err = c.backoff(ctx)
	default:
		return fmt.Errorf("unknown state %v", c.state)
	}
	if err != nil {
		return err
	}

	c.state = next
	t := Transition{From: from, To: next, Err: c.lastErr}
	if c.snapshot != nil {
		t.Epoch = c.snapshot.Epoch
	}
	c.logger.Debug("epoch: transition", zap.Stringer("from", from), zap.Stringer("to", next), zap.Uint64("epoch", t.Epoch))
	if c.opts.hook != nil {
		c.opts.hook(t)
	}
	return nil
}

func (c *Coordinator) fail(err error) (State, error) {
	c.lastErr = err
	return Error, nil
}

func (c *Coordinator) idle(ctx context.Context) (State, error) {
	c.lastErr = nil
	state, err := c.ledger.ReadEpochState(ctx)
	if err != nil {
		return c.fail(fmt.Errorf("read epoch state: %w", err))
	}
	c.snapshot = state
	now := c.clock.Now()

	// A tally only counts towards the epoch it was earned in.
	if c.cs.TallyEpoch != state.Epoch {
		c.cs.Tally = 0
		c.cs.TallyEpoch = state.Epoch
	}

	c.logger.Info("epoch: state",
		zap.Uint64("epoch", state.Epoch),
		zap.Uint64("difficulty", state.Difficulty),
		zap.Duration("remaining", state.Remaining(now)),
	)

	// Someone else advanced past an epoch we still hold a solution for.
	if c.cs.PendingClaim != nil && *c.cs.PendingClaim < state.Epoch {
		c.claim = *c.cs.PendingClaim
		return Claiming, nil
	}

	if state.Ended(now) {
		if c.advanced && c.lastAdvanced == state.Epoch && now.Before(c.lastAdvanceAt.Add(c.opts.advanceSettle)) {
			return WaitingForAdvance, nil
		}
		return Advancing, nil
	}
	if c.cs.Submitted && c.cs.LastSubmittedEpoch == state.Epoch {
		return AwaitingEpochEnd, nil
	}
	return Solving, nil
}

func (c *Coordinator) awaitEpochEnd(ctx context.Context) (State, error) {
	if c.snapshot != nil {
		d := min(c.snapshot.EpochEnd.Add(c.opts.epochEndGrace).Sub(c.clock.Now()), c.opts.maxSleep)
		if d > 0 {
			c.logger.Debug("epoch: waiting for epoch end", zap.Uint64("epoch", c.snapshot.Epoch), zap.Duration("sleep", d))
			if err := c.clock.Sleep(ctx, d); err != nil {
				return Idle, err
			}
		}
	}
	return Idle, nil
}

func (c *Coordinator) solve(ctx context.Context) (State, error) {
	state := c.snapshot
	words := c.protocol.Words(state.Seed, state.Difficulty)
	text, err := c.protocol.Composer().Compose(words)
	if err != nil {
		c.lastErr = err
		c.logger.Error("epoch: cannot compose proof text", zap.Stringer("words", words), zap.Error(err))
		if errors.Is(err, composing.ErrStructuralViolation) {
			return Error, err
		}
		return c.fail(err)
	}

	remaining := state.Remaining(c.clock.Now())
	if remaining <= 0 {
		return Idle, nil
	}

	c.logger.Info("epoch: solving",
		zap.Uint64("epoch", state.Epoch),
		zap.Uint64("difficulty", state.Difficulty),
		zap.Stringer("words", words),
		zap.Int("textLen", len(text)),
	)

	searchCtx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()

	opts := []proving.OptionFunc{
		proving.WithThreads(c.opts.threads),
		proving.WithMaxAttempts(c.opts.maxAttempts),
		proving.WithLogger(c.logger),
	}
	if c.opts.progress != nil {
		opts = append(opts, proving.WithProgress(c.opts.progress, c.opts.progressInterval))
	}
	res, err := proving.Search(searchCtx, state.Seed, c.identity, text, state.Difficulty, opts...)
	switch {
	case err == nil:
	case errors.Is(err, proving.ErrNonceNotFound):
		c.logger.Warn("epoch: no nonce found", zap.Uint64("epoch", state.Epoch), zap.Error(err))
		return c.fail(err)
	case ctx.Err() != nil:
		return Idle, ctx.Err()
	default:
		return c.fail(err)
	}

	c.solution = &shared.Solution{
		Epoch: state.Epoch,
		Nonce: res.Nonce,
		Text:  text,
		Hash:  res.Hash,
	}
	if c.opts.recorder != nil {
		if err := c.opts.recorder.RecordSolution(ctx, c.solution, words); err != nil {
			c.logger.Warn("epoch: failed to record solution", zap.Error(err))
		}
	}
	return Submitting, nil
}

func (c *Coordinator) submit(ctx context.Context) (State, error) {
	sol := c.solution
	if sol == nil {
		return Idle, nil
	}

	fresh, err := c.ledger.ReadEpochState(ctx)
	if err != nil {
		return c.fail(fmt.Errorf("read epoch state: %w", err))
	}
	if fresh.Epoch != sol.Epoch || fresh.Ended(c.clock.Now()) {
		c.logger.Info("epoch: dropping stale solution", zap.Uint64("solutionEpoch", sol.Epoch), zap.Uint64("epoch", fresh.Epoch))
		c.snapshot = fresh
		c.solution = nil
		return Idle, nil
	}

	res, err := c.ledger.Submit(ctx, sol.Text, sol.Nonce, sol.Epoch)
	c.recordOutcome(ctx, ActionSubmit, sol.Epoch, res, err)
	switch {
	case err == nil:
		c.logger.Info("epoch: solution submitted", zap.Uint64("epoch", sol.Epoch), zap.Uint64("nonce", sol.Nonce), zap.String("signature", signature(res)))
	case IsDuplicate(err):
		c.logger.Info("epoch: solution already on record", zap.Uint64("epoch", sol.Epoch))
	default:
		if ctx.Err() != nil {
			return Idle, ctx.Err()
		}
		return c.fail(fmt.Errorf("submit solution: %w", err))
	}

	if !c.cs.Submitted || c.cs.LastSubmittedEpoch != sol.Epoch {
		if c.cs.TallyEpoch != sol.Epoch {
			c.cs.Tally = 0
			c.cs.TallyEpoch = sol.Epoch
		}
		c.cs.Tally++
		c.cs.WithdrawCounter++
		c.withdrawIfDue(ctx)
	}
	c.cs.Submitted = true
	c.cs.LastSubmittedEpoch = sol.Epoch
	epoch := sol.Epoch
	c.cs.PendingClaim = &epoch
	c.solution = nil
	return AwaitingEpochEnd, nil
}

func (c *Coordinator) withdrawIfDue(ctx context.Context) {
	if c.vesting == nil {
		return
	}
	if c.cs.WithdrawCounter%uint64(c.protocol.WithdrawEvery()) != 0 {
		return
	}
	res, err := c.vesting.Withdraw(ctx)
	c.recordOutcome(ctx, ActionWithdraw, c.cs.LastSubmittedEpoch, res, err)
	if err != nil {
		c.logger.Warn("epoch: withdraw skipped", zap.Error(err))
		return
	}
	c.logger.Info("epoch: vested rewards withdrawn", zap.String("signature", signature(res)))
}

func (c *Coordinator) waitForAdvance(ctx context.Context) (State, error) {
	d := min(c.lastAdvanceAt.Add(c.opts.advanceSettle).Sub(c.clock.Now()), c.opts.maxSleep)
	if d > 0 {
		if err := c.clock.Sleep(ctx, d); err != nil {
			return Idle, err
		}
	}
	return Idle, nil
}

func (c *Coordinator) advance(ctx context.Context) (State, error) {
	ended := c.snapshot.Epoch
	tally := c.cs.Tally

	res, err := c.ledger.AdvanceEpoch(ctx, tally)
	c.recordOutcome(ctx, ActionAdvance, ended, res, err)
	if err != nil {
		if ctx.Err() != nil {
			return Idle, ctx.Err()
		}
		c.logger.Warn("epoch: advance failed", zap.Uint64("epoch", ended), zap.Uint64("solutions", tally), zap.Error(err))
	} else {
		c.logger.Info("epoch: advanced", zap.Uint64("epoch", ended), zap.Uint64("solutions", tally), zap.String("signature", signature(res)))
	}

	// A tally must never leak into the next epoch, whatever the outcome.
	c.cs.Tally = 0
	c.advanced = true
	c.lastAdvanced = ended
	c.lastAdvanceAt = c.clock.Now()

	if c.cs.PendingClaim != nil && *c.cs.PendingClaim == ended {
		c.claim = ended
		return Claiming, nil
	}
	return Idle, nil
}

func (c *Coordinator) claimReward(ctx context.Context) (State, error) {
	epoch := c.claim
	c.cs.PendingClaim = nil

	res, err := c.ledger.Claim(ctx, epoch)
	c.recordOutcome(ctx, ActionClaim, epoch, res, err)
	if err != nil {
		if ctx.Err() != nil {
			return Idle, ctx.Err()
		}
		c.logger.Warn("epoch: claim failed", zap.Uint64("epoch", epoch), zap.Error(err))
		return Idle, nil
	}
	c.logger.Info("epoch: reward claimed", zap.Uint64("epoch", epoch), zap.String("signature", signature(res)))
	return Idle, nil
}

func (c *Coordinator) backoff(ctx context.Context) (State, error) {
	c.logger.Warn("epoch: backing off", zap.Duration("backoff", c.opts.errorBackoff), zap.Error(c.lastErr))
	if err := c.clock.Sleep(ctx, c.opts.errorBackoff); err != nil {
		return Idle, err
	}
	return Idle, nil
}

func (c *Coordinator) recordOutcome(ctx context.Context, action string, epoch uint64, res *shared.TxResult, err error) {
	if c.opts.recorder == nil {
		return
	}
	o := Outcome{Action: action, Epoch: epoch, Signature: signature(res), Err: err}
	if err := c.opts.recorder.RecordOutcome(ctx, o); err != nil {
		c.logger.Warn("epoch: failed to record outcome", zap.String("action", action), zap.Error(err))
	}
}

func signature(res *shared.TxResult) string {
	if res == nil {
		return ""
	}
	return res.Signature
}
