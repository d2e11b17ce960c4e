// Package composing builds proof texts that embed a vocabulary in order and satisfy the structural
// rules of a protocol version.
package composing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/poi-miner/post-miner/verifying"
	"github.com/poi-miner/post-miner/vocabulary"
)

// ErrStructuralViolation is returned when no compliant text can be built for a vocabulary. It
// indicates a template or vocabulary defect and must not be retried.
var ErrStructuralViolation = errors.New("structural violation")

// Composer maps an ordered vocabulary to a proof text.
type Composer interface {
	Compose(words vocabulary.Vocabulary) ([]byte, error)
}

type sentence struct {
	text      string
	protected bool
	word      bool
}

// SlotComposer places the first word in a short sentence, the second in a long question and each
// remaining word in the next filler template. Pads are appended until the minimum length is met.
type SlotComposer struct {
	bank  Bank
	rules verifying.Rules
}

// NewSlotComposer returns a composer for bank whose output is checked against rules.
func NewSlotComposer(bank Bank, rules verifying.Rules) (*SlotComposer, error) {
	if err := bank.validate(); err != nil {
		return nil, err
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &SlotComposer{bank: bank, rules: rules}, nil
}

func (b Bank) validate() error {
	if strings.Count(b.Short, Slot) != 1 {
		return fmt.Errorf("short template must have exactly one slot: %q", b.Short)
	}
	if strings.Count(b.Question, Slot) != 1 {
		return fmt.Errorf("question template must have exactly one slot: %q", b.Question)
	}
	if len(b.Fillers) == 0 {
		return errors.New("bank has no filler templates")
	}
	for _, f := range b.Fillers {
		if strings.Count(f, Slot) != 1 {
			return fmt.Errorf("filler template must have exactly one slot: %q", f)
		}
	}
	if len(b.Pads) == 0 {
		return errors.New("bank has no pad sentences")
	}
	for _, p := range b.Pads {
		if strings.Contains(p, Slot) {
			return fmt.Errorf("pad sentence must not have a slot: %q", p)
		}
	}
	return nil
}

// Compose implements Composer.
func (c *SlotComposer) Compose(words vocabulary.Vocabulary) ([]byte, error) {
	if len(words) < 2 {
		return nil, fmt.Errorf("%w: %d words, need at least 2", ErrStructuralViolation, len(words))
	}

	parts := make([]sentence, 0, len(words)+len(c.bank.Pads))
	parts = append(parts,
		sentence{text: fill(c.bank.Short, words[0]), protected: true, word: true},
		sentence{text: fill(c.bank.Question, words[1]), protected: true, word: true},
	)
	for i, w := range words[2:] {
		parts = append(parts, sentence{text: fill(c.bank.Fillers[i%len(c.bank.Fillers)], w), word: true})
	}

	for i := 0; joinedLen(parts) < c.rules.MinLen; i++ {
		parts = append(parts, sentence{text: c.bank.Pads[i%len(c.bank.Pads)]})
	}

	// Only pads may be dropped to get under the ceiling; every word-carrying sentence is required.
	for joinedLen(parts) > c.rules.MaxLen {
		last := parts[len(parts)-1]
		if last.protected || last.word {
			return nil, fmt.Errorf("%w: %d bytes exceed %d with %d words", ErrStructuralViolation, joinedLen(parts), c.rules.MaxLen, len(words))
		}
		parts = parts[:len(parts)-1]
	}

	text := join(parts)
	if err := verifying.VerifyText(text, words, c.rules); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStructuralViolation, err)
	}
	return text, nil
}

// MainnetComposer reproduces the frozen mainnet layout: one long template per word except the
// last, a question carrying the last word and a closing sentence. It neither pads nor trims.
type MainnetComposer struct {
	rules verifying.Rules
}

// NewMainnetComposer returns the composer of the frozen mainnet layout.
func NewMainnetComposer(rules verifying.Rules) (*MainnetComposer, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &MainnetComposer{rules: rules}, nil
}

// Compose implements Composer.
func (c *MainnetComposer) Compose(words vocabulary.Vocabulary) ([]byte, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrStructuralViolation)
	}

	parts := make([]sentence, 0, len(words)+1)
	switch len(words) {
	case 1:
		parts = append(parts,
			sentence{text: fill(mainnetTemplates[0], words[0])},
			sentence{text: fill(mainnetQuestion, words[0])},
		)
	default:
		parts = append(parts, sentence{text: fill(mainnetTemplates[0], words[0])})
		for i := 1; i < len(words)-1; i++ {
			parts = append(parts, sentence{text: fill(mainnetTemplates[i%len(mainnetTemplates)], words[i])})
		}
		parts = append(parts, sentence{text: fill(mainnetQuestion, words[len(words)-1])})
	}
	parts = append(parts, sentence{text: mainnetCloser})

	text := join(parts)
	if err := verifying.VerifyText(text, words, c.rules); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStructuralViolation, err)
	}
	return text, nil
}

func fill(template, word string) string {
	return strings.Replace(template, Slot, word, 1)
}

func joinedLen(parts []sentence) int {
	if len(parts) == 0 {
		return 0
	}
	n := len(parts) - 1
	for _, p := range parts {
		n += len(p.text)
	}
	return n
}

func join(parts []sentence) []byte {
	buf := make([]byte, 0, joinedLen(parts))
	for i, p := range parts {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, p.text...)
	}
	return buf
}
