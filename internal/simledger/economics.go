package simledger

import (
	"math/bits"
	"time"
)

// Parameters of the emulated program.
const (
	MaxSupply         uint64 = 100_000_000_000_000
	InitialReward     uint64 = 25_000_000
	HalvingInterval   uint64 = 2_000_000
	EpochDuration            = 600 * time.Second
	TargetSolutions   uint64 = 50
	InitialDifficulty uint64 = 8
	MaxDifficulty     uint64 = 250
	MinDifficulty     uint64 = 4
	MaxDifficultyAdj  uint64 = 5
	ClaimExpiry       uint64 = 500
	VestingDuration          = 30 * 24 * time.Hour
)

// Reward is the reward of the next claim after totalMined claims.
func Reward(totalMined uint64) uint64 {
	halvings := totalMined / HalvingInterval
	if halvings >= 64 {
		return 0
	}
	return InitialReward >> halvings
}

// AdjustDifficulty returns the difficulty of the next epoch given the solution count reported for
// the ended one.
func AdjustDifficulty(difficulty, solutionCount uint64) uint64 {
	target := TargetSolutions
	switch {
	case solutionCount > target+target/5:
		increase := clamp(log2Ceil(solutionCount/target), 1, MaxDifficultyAdj)
		return min(saturatingAdd(difficulty, increase), MaxDifficulty)
	case solutionCount == 0:
		return max(saturatingSub(difficulty, MaxDifficultyAdj), MinDifficulty)
	case solutionCount < target-target/5:
		decrease := clamp(log2Ceil(target/max(solutionCount, 1)), 1, MaxDifficultyAdj)
		return max(saturatingSub(difficulty, decrease), MinDifficulty)
	default:
		return difficulty
	}
}

func log2Ceil(n uint64) uint64 {
	if n <= 1 {
		return 0
	}
	return uint64(64 - bits.LeadingZeros64(n-1))
}

func clamp(v, lo, hi uint64) uint64 {
	return min(max(v, lo), hi)
}

func saturatingAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return ^uint64(0)
	}
	return sum
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

type vestingAccount struct {
	locked     uint64
	unlocked   uint64
	lastUpdate time.Time
}

// drip moves the share of the locked amount that vested since the last update to unlocked.
func (v *vestingAccount) drip(now time.Time) {
	if v.locked == 0 || !now.After(v.lastUpdate) {
		v.lastUpdate = now
		return
	}

	elapsed := int64(now.Sub(v.lastUpdate) / time.Second)
	duration := int64(VestingDuration / time.Second)
	release := v.locked
	if elapsed < duration {
		hi, lo := bits.Mul64(v.locked, uint64(elapsed))
		release, _ = bits.Div64(hi, lo, uint64(duration))
	}
	v.unlocked += release
	v.locked -= release
	v.lastUpdate = now
}
