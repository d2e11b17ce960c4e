package rpc

import (
	"context"
	"time"

	"github.com/poi-miner/post-miner/epoch"
)

// BlockClock follows the cluster time. It is calibrated once against the latest block time and
// then advances with the local clock.
type BlockClock struct {
	epoch.SystemClock
	offset time.Duration
}

// NewBlockClock calibrates a clock against the node behind c.
func NewBlockClock(ctx context.Context, c *Client) (*BlockClock, error) {
	local := time.Now()
	remote, err := c.Now(ctx)
	if err != nil {
		return nil, err
	}
	return &BlockClock{offset: remote.Sub(local)}, nil
}

// Offset returns the difference between cluster and local time.
func (c *BlockClock) Offset() time.Duration {
	return c.offset
}

func (c *BlockClock) Now() time.Time {
	return time.Now().Add(c.offset)
}
