package simledger

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/poi-miner/post-miner/shared"
)

type option struct {
	logger        *zap.Logger
	epochDuration time.Duration
	difficulty    uint64
	address       shared.Identity
	mint          shared.Identity
	authority     shared.Identity
}

func defaultOption() *option {
	return &option{
		logger:        zap.NewNop(),
		epochDuration: EpochDuration,
		difficulty:    InitialDifficulty,
	}
}

func (o *option) validate() error {
	if o.epochDuration < time.Second {
		return fmt.Errorf("epoch duration must be at least one second, got %s", o.epochDuration)
	}
	if o.difficulty > MaxDifficulty {
		return fmt.Errorf("initial difficulty %d exceeds maximum %d", o.difficulty, MaxDifficulty)
	}
	return nil
}

type OptionFunc func(*option) error

// WithLogger sets the logger of the program.
func WithLogger(logger *zap.Logger) OptionFunc {
	return func(o *option) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		o.logger = logger
		return nil
	}
}

// WithEpochDuration sets the length of each epoch. Whole seconds only.
func WithEpochDuration(d time.Duration) OptionFunc {
	return func(o *option) error {
		o.epochDuration = d.Truncate(time.Second)
		return nil
	}
}

// WithInitialDifficulty sets the difficulty of the first epoch.
func WithInitialDifficulty(d uint64) OptionFunc {
	return func(o *option) error {
		o.difficulty = d
		return nil
	}
}

// WithAddress sets the address of the mine state account. It seeds the first epoch.
func WithAddress(address shared.Identity) OptionFunc {
	return func(o *option) error {
		o.address = address
		return nil
	}
}

// WithMint sets the token mint and crank authority recorded in the mine state.
func WithMint(mint, authority shared.Identity) OptionFunc {
	return func(o *option) error {
		o.mint = mint
		o.authority = authority
		return nil
	}
}
