package epoch

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/poi-miner/post-miner/proving"
)

const (
	DefaultErrorBackoff  = 10 * time.Second
	DefaultMaxSleep      = 30 * time.Second
	DefaultEpochEndGrace = 2 * time.Second
	DefaultAdvanceSettle = 2 * time.Second
)

type option struct {
	logger   *zap.Logger
	clock    Clock
	recorder Recorder
	hook     func(Transition)

	threads          int
	maxAttempts      uint64
	progress         proving.ProgressFunc
	progressInterval time.Duration

	errorBackoff  time.Duration
	maxSleep      time.Duration
	epochEndGrace time.Duration
	advanceSettle time.Duration
}

func defaultOption() *option {
	return &option{
		logger:           zap.NewNop(),
		clock:            SystemClock{},
		threads:          1,
		progressInterval: proving.DefaultProgressInterval,
		errorBackoff:     DefaultErrorBackoff,
		maxSleep:         DefaultMaxSleep,
		epochEndGrace:    DefaultEpochEndGrace,
		advanceSettle:    DefaultAdvanceSettle,
	}
}

func (o *option) validate() error {
	if o.threads < 1 {
		return errors.New("`threads` must be at least 1")
	}
	if o.errorBackoff <= 0 {
		return errors.New("`errorBackoff` must be positive")
	}
	if o.maxSleep <= 0 {
		return errors.New("`maxSleep` must be positive")
	}
	if o.epochEndGrace < 0 || o.advanceSettle < 0 {
		return errors.New("grace and settle durations must not be negative")
	}
	return nil
}

type OptionFunc func(*option) error

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(o *option) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		o.logger = logger
		return nil
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) OptionFunc {
	return func(o *option) error {
		if clock == nil {
			return errors.New("clock is nil")
		}
		o.clock = clock
		return nil
	}
}

// WithRecorder sets a recorder for solutions and outcomes.
func WithRecorder(r Recorder) OptionFunc {
	return func(o *option) error {
		o.recorder = r
		return nil
	}
}

// WithTransitionHook registers fn to be called after every step.
func WithTransitionHook(fn func(Transition)) OptionFunc {
	return func(o *option) error {
		o.hook = fn
		return nil
	}
}

// WithSearch configures the nonce search. maxAttempts of zero bounds the search only by the end
// of the epoch.
func WithSearch(threads int, maxAttempts uint64) OptionFunc {
	return func(o *option) error {
		o.threads = threads
		o.maxAttempts = maxAttempts
		return nil
	}
}

// WithSearchProgress reports search progress to fn every interval.
func WithSearchProgress(fn proving.ProgressFunc, interval time.Duration) OptionFunc {
	return func(o *option) error {
		o.progress = fn
		o.progressInterval = interval
		return nil
	}
}

// WithErrorBackoff sets how long the coordinator waits in the Error state.
func WithErrorBackoff(d time.Duration) OptionFunc {
	return func(o *option) error {
		o.errorBackoff = d
		return nil
	}
}

// WithMaxSleep caps a single sleep while waiting for the epoch to end.
func WithMaxSleep(d time.Duration) OptionFunc {
	return func(o *option) error {
		o.maxSleep = d
		return nil
	}
}

// WithEpochEndGrace sets how long after the epoch end the coordinator wakes up to advance.
func WithEpochEndGrace(d time.Duration) OptionFunc {
	return func(o *option) error {
		o.epochEndGrace = d
		return nil
	}
}

// WithAdvanceSettle sets how long the coordinator waits for an advance to become visible before
// it tries to advance the same epoch again.
func WithAdvanceSettle(d time.Duration) OptionFunc {
	return func(o *option) error {
		o.advanceSettle = d
		return nil
	}
}
