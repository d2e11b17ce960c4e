package proving

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultProgressInterval is how often the progress callback fires when none is configured.
const DefaultProgressInterval = 5 * time.Second

type option struct {
	threads     int
	maxAttempts uint64

	logger *zap.Logger

	progress         ProgressFunc
	progressInterval time.Duration
}

func defaultOption() *option {
	return &option{
		threads:          1,
		logger:           zap.NewNop(),
		progressInterval: DefaultProgressInterval,
	}
}

func (o *option) validate() error {
	if o.threads < 1 {
		return errors.New("`threads` must be at least 1")
	}
	if o.progress != nil && o.progressInterval <= 0 {
		return errors.New("`progressInterval` must be positive")
	}
	return nil
}

type OptionFunc func(*option) error

// WithThreads sets the number of workers scanning disjoint nonce ranges.
func WithThreads(n int) OptionFunc {
	return func(o *option) error {
		o.threads = n
		return nil
	}
}

// WithMaxAttempts bounds the number of nonces tried. Zero means no bound; the search then runs
// until a nonce is found or the context is done.
func WithMaxAttempts(n uint64) OptionFunc {
	return func(o *option) error {
		o.maxAttempts = n
		return nil
	}
}

// WithLogger sets the logger to use.
func WithLogger(logger *zap.Logger) OptionFunc {
	return func(o *option) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		o.logger = logger
		return nil
	}
}

// WithProgress registers fn to be called every interval while the search runs.
func WithProgress(fn ProgressFunc, interval time.Duration) OptionFunc {
	return func(o *option) error {
		o.progress = fn
		o.progressInterval = interval
		return nil
	}
}
