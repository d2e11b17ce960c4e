package verifying

import (
	"fmt"

	"github.com/poi-miner/post-miner/shared"
)

// Names of the structural rules a proof text is checked against.
const (
	RuleLength        = "length"
	RuleTerminator    = "terminator"
	RuleShortSentence = "short-sentence"
	RuleLongSentence  = "long-sentence"
	RuleQuestion      = "question"
	RuleWordOrder     = "word-order"
	RuleOwnSentence   = "own-sentence"
	RuleWordGap       = "word-gap"
	RuleExactlyOnce   = "exactly-once"
)

// Rules are the structural constraints on a proof text. Each protocol version fixes one set; the
// values are shared with the remote verifier and must not be tuned locally.
type Rules struct {
	// MinLen and MaxLen bound the text length in bytes, inclusive.
	MinLen int
	MaxLen int

	// At least one sentence must have at most MaxShortWords words.
	MaxShortWords int
	// At least one sentence must have at least MinLongWords words.
	MinLongWords int
	// LongQuestion requires the long sentence to also be a question. When false a question of any
	// length and a long sentence of any kind are required separately.
	LongQuestion bool

	// MinWordGap is the minimum number of bytes between the end of one required word and the
	// start of the next.
	MinWordGap int
	// ExactlyOnce requires every vocabulary word to occur exactly once as a whole word.
	ExactlyOnce bool
}

// DefaultRules are the rules of the current protocol.
func DefaultRules() Rules {
	return Rules{
		MinLen:        256,
		MaxLen:        800,
		MaxShortWords: 10,
		MinLongWords:  20,
		LongQuestion:  true,
		MinWordGap:    40,
		ExactlyOnce:   true,
	}
}

func (r Rules) Validate() error {
	if r.MinLen < 0 || r.MaxLen < r.MinLen {
		return fmt.Errorf("invalid length bounds [%d, %d]", r.MinLen, r.MaxLen)
	}
	if r.MaxShortWords < 1 {
		return fmt.Errorf("invalid `MaxShortWords` %d; expected: >= 1", r.MaxShortWords)
	}
	if r.MinLongWords <= r.MaxShortWords {
		return fmt.Errorf("invalid `MinLongWords` %d; expected: > %d", r.MinLongWords, r.MaxShortWords)
	}
	if r.MinWordGap < 0 {
		return fmt.Errorf("invalid `MinWordGap` %d; expected: >= 0", r.MinWordGap)
	}
	return nil
}

// RuleError reports the first structural rule a text violates.
type RuleError struct {
	Rule   string
	Detail string
}

func (e RuleError) Error() string {
	return fmt.Sprintf("%s: rule %q violated: %s", shared.ErrInvalidText, e.Rule, e.Detail)
}

func (e RuleError) Unwrap() error {
	return shared.ErrInvalidText
}
