package proving

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/poi-miner/post-miner/shared"
)

// chunkSize is the number of consecutive nonces a worker claims at once. Workers check for
// cancellation between chunks.
const chunkSize = 1 << 12

type candidate struct {
	Nonce uint64
	Hash  [shared.HashSize]byte
}

// nonceRange hands out disjoint, ascending ranges of nonces to the search workers.
type nonceRange struct {
	next  atomic.Uint64
	limit uint64 // zero means unbounded
}

// claim returns the next range [start, end). ok is false once the limit is reached.
func (r *nonceRange) claim() (start, end uint64, ok bool) {
	end = r.next.Add(chunkSize)
	start = end - chunkSize
	if end < start {
		end = math.MaxUint64
	}
	if r.limit > 0 {
		if start >= r.limit {
			return 0, 0, false
		}
		end = min(end, r.limit)
	}
	return start, end, true
}

// searchWorker scans ranges from nonces until a hash meets difficulty. The first candidate is
// written to found, which must have room for one value per worker, and stop is called so the
// other workers return.
func searchWorker(ctx context.Context, h *hasher, difficulty uint64, nonces *nonceRange, attempts *atomic.Uint64, found chan<- *candidate, stop context.CancelFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		start, end, ok := nonces.claim()
		if !ok {
			return nil
		}

		for nonce := start; nonce < end; nonce++ {
			hash := h.sum(nonce)
			if !CheckDifficulty(hash, difficulty) {
				continue
			}
			attempts.Add(nonce - start + 1)
			found <- &candidate{Nonce: nonce, Hash: hash}
			stop()
			return nil
		}
		attempts.Add(end - start)
	}
}

// progressWorker reports the attempt counter every interval until done is closed.
func progressWorker(done <-chan struct{}, fn ProgressFunc, interval time.Duration, attempts *atomic.Uint64, started time.Time) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			fn(Progress{
				Attempts: attempts.Load(),
				Elapsed:  time.Since(started),
			})
		}
	}
}
