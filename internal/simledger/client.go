package simledger

import (
	"context"

	"github.com/poi-miner/post-miner/shared"
)

// Client is one miner's connection to the program.
type Client struct {
	program   *Program
	miner     shared.Identity
	recipient shared.Identity
}

// Identity returns the miner the client acts for.
func (c *Client) Identity() shared.Identity {
	return c.miner
}

func (c *Client) ReadEpochState(ctx context.Context) (*shared.EpochState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := c.program.State()
	return &s.EpochState, nil
}

// Submit submits a solution for epoch. A solution for an epoch other than the current one is
// rejected as late.
func (c *Client) Submit(ctx context.Context, text []byte, nonce, epoch uint64) (*shared.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s := c.program.State(); s.Epoch != epoch {
		return nil, shared.ErrEpochEnded
	}
	return c.program.SubmitSolution(c.miner, text, nonce, c.recipient)
}

func (c *Client) AdvanceEpoch(ctx context.Context, solutionCount uint64) (*shared.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.program.AdvanceEpoch(solutionCount)
}

func (c *Client) Claim(ctx context.Context, epoch uint64) (*shared.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.program.Claim(c.miner, epoch)
}

func (c *Client) CreateVesting(ctx context.Context) (*shared.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.program.CreateVesting(c.miner)
}

func (c *Client) Withdraw(ctx context.Context) (*shared.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recipient := c.recipient
	if recipient.IsZero() {
		recipient = c.miner
	}
	return c.program.Withdraw(c.miner, recipient)
}
