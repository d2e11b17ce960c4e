// Package verifying checks proof texts and nonces the way the remote program does.
//
// It is used to re-check composer output before a search is started, by the simulated program to
// accept or reject submissions, and by the verify command.
package verifying

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/poi-miner/post-miner/proving"
	"github.com/poi-miner/post-miner/shared"
	"github.com/poi-miner/post-miner/vocabulary"
)

// VerifyText checks text against rules for the ordered vocabulary words.
// The returned error is a RuleError naming the first violated rule.
func VerifyText(text []byte, words vocabulary.Vocabulary, rules Rules) error {
	if len(text) < rules.MinLen || len(text) > rules.MaxLen {
		return RuleError{RuleLength, fmt.Sprintf("length %d outside [%d, %d]", len(text), rules.MinLen, rules.MaxLen)}
	}
	if !EndsOnTerminator(text) {
		return RuleError{RuleTerminator, "text does not end on a sentence terminator"}
	}

	sentences := Sentences(text)
	if err := verifySentences(text, sentences, rules); err != nil {
		return err
	}
	if err := verifyWords(text, sentences, words, rules); err != nil {
		return err
	}
	return nil
}

func verifySentences(text []byte, sentences []Sentence, rules Rules) error {
	var short, long, question, longQuestion bool
	for _, s := range sentences {
		isLong := s.Words >= rules.MinLongWords
		isQuestion := s.Question(text)

		short = short || s.Words <= rules.MaxShortWords
		long = long || isLong
		question = question || isQuestion
		longQuestion = longQuestion || isLong && isQuestion
	}

	if !short {
		return RuleError{RuleShortSentence, fmt.Sprintf("no sentence with at most %d words", rules.MaxShortWords)}
	}
	if rules.LongQuestion {
		if !longQuestion {
			return RuleError{RuleQuestion, fmt.Sprintf("no question with at least %d words", rules.MinLongWords)}
		}
		return nil
	}
	if !question {
		return RuleError{RuleQuestion, "no question"}
	}
	if !long {
		return RuleError{RuleLongSentence, fmt.Sprintf("no sentence with at least %d words", rules.MinLongWords)}
	}
	return nil
}

// verifyWords places every word at the earliest whole-word occurrence that follows the previous
// word, sits in a later sentence and keeps the minimum gap. Earliest placement is optimal, so a
// text is rejected only if no valid placement exists.
func verifyWords(text []byte, sentences []Sentence, words vocabulary.Vocabulary, rules Rules) error {
	prevEnd := -1
	prevSentence := -1

	for _, w := range words {
		occurrences := wordOccurrences(text, w)
		if rules.ExactlyOnce && len(occurrences) != 1 {
			return RuleError{RuleExactlyOnce, fmt.Sprintf("word %q occurs %d times", w, len(occurrences))}
		}

		placed := false
		reason := RuleError{RuleWordOrder, fmt.Sprintf("word %q missing or out of order", w)}
		for _, at := range occurrences {
			if at <= prevEnd {
				continue
			}
			sentence := sentenceAt(sentences, at)
			if sentence <= prevSentence {
				reason = RuleError{RuleOwnSentence, fmt.Sprintf("word %q shares a sentence with the previous word", w)}
				continue
			}
			if prevEnd >= 0 && at-prevEnd < rules.MinWordGap {
				reason = RuleError{RuleWordGap, fmt.Sprintf("word %q is %d bytes after the previous word, minimum is %d", w, at-prevEnd, rules.MinWordGap)}
				continue
			}
			prevEnd = at + len(w)
			prevSentence = sentence
			placed = true
			break
		}
		if !placed {
			return reason
		}
	}
	return nil
}

// VerifyProof recomputes the proof hash and checks it against difficulty.
func VerifyProof(seed shared.Seed, identity shared.Identity, text []byte, nonce, difficulty uint64) ([shared.HashSize]byte, error) {
	hash := proving.Hash(seed, identity, text, nonce)
	if !proving.CheckDifficulty(hash, difficulty) {
		return hash, fmt.Errorf("%w: %d leading zero bits, required %d", shared.ErrInsufficientDifficulty, proving.LeadingZeroBits(hash), difficulty)
	}
	return hash, nil
}

// Verify runs the full check the remote program applies to a submission: the vocabulary is
// derived from seed and difficulty, the text is checked against the configured rules and the
// proof hash against difficulty.
func Verify(seed shared.Seed, identity shared.Identity, text []byte, nonce, difficulty uint64, opts ...OptionFunc) ([shared.HashSize]byte, error) {
	options, err := applyOpts(opts...)
	if err != nil {
		return [shared.HashSize]byte{}, err
	}

	words := vocabulary.Derive(seed, difficulty)
	if err := VerifyText(text, words, options.rules); err != nil {
		options.logger.Debug("verifying: text rejected", zap.Stringer("words", words), zap.Error(err))
		return [shared.HashSize]byte{}, err
	}

	hash, err := VerifyProof(seed, identity, text, nonce, difficulty)
	if err != nil {
		options.logger.Debug("verifying: proof rejected", zap.Uint64("nonce", nonce), zap.Error(err))
		return hash, err
	}
	return hash, nil
}

// IsRuleError reports whether err carries a RuleError and returns it.
func IsRuleError(err error) (RuleError, bool) {
	var re RuleError
	ok := errors.As(err, &re)
	return re, ok
}
