// Package proving searches for a nonce whose proof hash meets the epoch difficulty.
package proving

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/poi-miner/post-miner/shared"
)

// ErrNonceNotFound is returned when the attempt budget or the context deadline is exhausted
// before a nonce is found.
var ErrNonceNotFound = errors.New("nonce not found")

// Result is a nonce satisfying the difficulty predicate together with its hash.
type Result struct {
	Nonce    uint64
	Hash     [shared.HashSize]byte
	Attempts uint64
	Elapsed  time.Duration
}

// Progress is a snapshot of a running search.
type Progress struct {
	Attempts uint64
	Elapsed  time.Duration
}

// HashRate returns attempts per second.
func (p Progress) HashRate() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Attempts) / p.Elapsed.Seconds()
}

// ProgressFunc receives periodic progress reports. It is called from a separate goroutine and
// must not block.
type ProgressFunc func(Progress)

// Search scans nonces from 0 upwards for one where
// keccak256(seed | identity | text | "||" | nonce_le) has at least difficulty leading zero bits.
//
// With more than one thread the nonce space is split into disjoint ranges. The first nonce found
// is returned, which is not necessarily the smallest one. A returned nonce is always re-verified
// before it is handed out.
//
// Search returns an error wrapping ErrNonceNotFound if the attempt budget is exhausted or the
// context deadline passes, and ctx.Err() if the context is cancelled.
func Search(ctx context.Context, seed shared.Seed, identity shared.Identity, text []byte, difficulty uint64, opts ...OptionFunc) (*Result, error) {
	options := defaultOption()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if err := options.validate(); err != nil {
		return nil, err
	}
	logger := options.logger

	if difficulty > MaxDifficulty {
		return nil, fmt.Errorf("%w: difficulty %d exceeds %d bits", ErrNonceNotFound, difficulty, MaxDifficulty)
	}

	started := time.Now()
	if difficulty == 0 {
		return &Result{
			Nonce:    0,
			Hash:     Hash(seed, identity, text, 0),
			Attempts: 1,
			Elapsed:  time.Since(started),
		}, nil
	}

	logger.Info("proving: starting nonce search",
		zap.Uint64("difficulty", difficulty),
		zap.Int("threads", options.threads),
		zap.Uint64("maxAttempts", options.maxAttempts),
		zap.Int("textLen", len(text)),
	)

	var attempts atomic.Uint64
	nonces := &nonceRange{limit: options.maxAttempts}
	found := make(chan *candidate, options.threads)

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	progressDone := make(chan struct{})
	if options.progress != nil {
		go progressWorker(progressDone, options.progress, options.progressInterval, &attempts, started)
	}

	eg, egCtx := errgroup.WithContext(workerCtx)
	for i := 0; i < options.threads; i++ {
		h := newHasher(seed, identity, text)
		eg.Go(func() error {
			return searchWorker(egCtx, h, difficulty, nonces, &attempts, found, cancel)
		})
	}

	err := eg.Wait()
	close(progressDone)
	close(found)

	if c, ok := <-found; ok {
		if hash := Hash(seed, identity, text, c.Nonce); hash != c.Hash || !CheckDifficulty(hash, difficulty) {
			return nil, fmt.Errorf("proving: nonce %d failed re-verification", c.Nonce)
		}
		res := &Result{
			Nonce:    c.Nonce,
			Hash:     c.Hash,
			Attempts: attempts.Load(),
			Elapsed:  time.Since(started),
		}
		logger.Info("proving: found nonce",
			zap.Uint64("nonce", res.Nonce),
			zap.Uint64("attempts", res.Attempts),
			zap.Duration("elapsed", res.Elapsed),
		)
		return res, nil
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: %w", ErrNonceNotFound, ctx.Err())
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil && !errors.Is(err, context.Canceled):
		return nil, err
	}

	logger.Info("proving: attempt budget exhausted", zap.Uint64("attempts", attempts.Load()))
	return nil, fmt.Errorf("%w: %d attempts at difficulty %d", ErrNonceNotFound, attempts.Load(), difficulty)
}

// Verify reports whether nonce satisfies difficulty for the given inputs.
func Verify(seed shared.Seed, identity shared.Identity, text []byte, nonce, difficulty uint64) bool {
	return CheckDifficulty(Hash(seed, identity, text, nonce), difficulty)
}
