package verifying

import (
	"errors"

	"go.uber.org/zap"
)

type option struct {
	rules  Rules
	logger *zap.Logger
}

func applyOpts(options ...OptionFunc) (*option, error) {
	opts := &option{
		rules:  DefaultRules(),
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if err := opt(opts); err != nil {
			return nil, err
		}
	}
	if err := opts.rules.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

type OptionFunc func(*option) error

// WithRules sets the structural rules texts are checked against.
func WithRules(rules Rules) OptionFunc {
	return func(o *option) error {
		o.rules = rules
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(o *option) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		o.logger = logger
		return nil
	}
}
