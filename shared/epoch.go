package shared

import (
	"time"
)

// EpochState is a snapshot of the remote mine state. It is never mutated; a newer read
// supersedes it entirely.
type EpochState struct {
	TotalMined       uint64
	Difficulty       uint64
	Seed             Seed
	Epoch            uint64
	EpochStart       time.Time
	EpochEnd         time.Time
	SolutionsInEpoch uint64
	TotalSupply      uint64

	Mint           Identity
	CrankAuthority Identity
}

// Ended reports whether the epoch is over at the given time.
func (s *EpochState) Ended(now time.Time) bool {
	return !now.Before(s.EpochEnd)
}

// Remaining returns the time left in the epoch, or zero if it already ended.
func (s *EpochState) Remaining(now time.Time) time.Duration {
	if s.Ended(now) {
		return 0
	}
	return s.EpochEnd.Sub(now)
}
