package composing

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poi-miner/post-miner/shared"
	"github.com/poi-miner/post-miner/verifying"
	"github.com/poi-miner/post-miner/vocabulary"
)

func mainnetRules() verifying.Rules {
	r := verifying.DefaultRules()
	r.LongQuestion = false
	r.ExactlyOnce = false
	return r
}

func newSlotComposer(t *testing.T) *SlotComposer {
	c, err := NewSlotComposer(DefaultBank, verifying.DefaultRules())
	require.NoError(t, err)
	return c
}

func TestSlotComposer_ZeroSeed(t *testing.T) {
	r := require.New(t)

	words := vocabulary.Derive(shared.ZeroSeed, 10)
	r.Equal(vocabulary.Vocabulary{"time", "life", "world"}, words)

	text, err := newSlotComposer(t).Compose(words)
	r.NoError(err)
	r.Equal("Nobody forgot that time mattered. "+
		"Why do so many of us keep coming back to life when the old rules no longer feel like the only way to go? "+
		"Old scholars wrote about world in books that sat for ages upon dusty wooden shelves. "+
		"The lamp by the door flickered as a cat slept on a warm woolen rug.", string(text))
	r.Len(text, 291)
}

func TestSlotComposer_AllDifficulties(t *testing.T) {
	c := newSlotComposer(t)
	rules := verifying.DefaultRules()

	for difficulty := uint64(0); difficulty <= 64; difficulty++ {
		for i := 0; i < 20; i++ {
			var seed shared.Seed
			_, err := rand.Read(seed[:])
			require.NoError(t, err)

			words := vocabulary.Derive(seed, difficulty)
			text, err := c.Compose(words)
			require.NoError(t, err, "words: %v", words)
			require.GreaterOrEqual(t, len(text), rules.MinLen)
			require.LessOrEqual(t, len(text), rules.MaxLen)
			require.NoError(t, verifying.VerifyText(text, words, rules))

			// every word is in place, in order.
			at := 0
			for _, w := range words {
				idx := strings.Index(string(text[at:]), w)
				require.GreaterOrEqual(t, idx, 0, "word %q", w)
				at += idx + len(w)
			}
		}
	}
}

// The longest words of the list stay under the length ceiling.
func TestSlotComposer_LongestWords(t *testing.T) {
	r := require.New(t)
	c := newSlotComposer(t)

	words := append([]string(nil), vocabulary.WordList[:]...)
	for i := 0; i < vocabulary.MaxWords; i++ {
		for j := i + 1; j < len(words); j++ {
			if len(words[j]) > len(words[i]) {
				words[i], words[j] = words[j], words[i]
			}
		}
	}

	text, err := c.Compose(vocabulary.Vocabulary(words[:vocabulary.MaxWords]))
	r.NoError(err)
	r.LessOrEqual(len(text), 800)
}

func TestSlotComposer_StructuralViolation(t *testing.T) {
	r := require.New(t)

	_, err := newSlotComposer(t).Compose(vocabulary.Vocabulary{"time"})
	r.ErrorIs(err, ErrStructuralViolation)

	// a word repeated in the vocabulary cannot occur exactly once per word.
	_, err = newSlotComposer(t).Compose(vocabulary.Vocabulary{"time", "life", "time"})
	r.ErrorIs(err, ErrStructuralViolation)
	r.ErrorIs(err, shared.ErrInvalidText)

	bank := DefaultBank
	bank.Fillers = []string{strings.Repeat("A very long filler sentence ", 30) + "about {w}."}
	c, err := NewSlotComposer(bank, verifying.DefaultRules())
	r.NoError(err)
	_, err = c.Compose(vocabulary.Vocabulary{"time", "life", "world"})
	r.ErrorIs(err, ErrStructuralViolation)
}

func TestNewSlotComposer_InvalidBank(t *testing.T) {
	tests := map[string]func(b *Bank){
		"short without slot":      func(b *Bank) { b.Short = "No slot." },
		"question with two slots": func(b *Bank) { b.Question = "Why {w} and {w}?" },
		"no fillers":              func(b *Bank) { b.Fillers = nil },
		"filler without slot":     func(b *Bank) { b.Fillers = []string{"No slot."} },
		"no pads":                 func(b *Bank) { b.Pads = nil },
		"pad with slot":           func(b *Bank) { b.Pads = []string{"A {w} pad."} },
	}
	for name, mutate := range tests {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			bank := DefaultBank
			mutate(&bank)
			_, err := NewSlotComposer(bank, verifying.DefaultRules())
			require.Error(t, err)
		})
	}
}

func TestMainnetComposer(t *testing.T) {
	r := require.New(t)

	c, err := NewMainnetComposer(mainnetRules())
	r.NoError(err)

	text, err := c.Compose(vocabulary.Vocabulary{"time", "life", "world"})
	r.NoError(err)
	r.Len(text, 475)
	r.True(strings.HasPrefix(string(text), "The concept of time is something"))
	r.True(strings.HasSuffix(string(text), "hidden world in the world around us? The answer remains unclear even today."))

	for _, words := range []vocabulary.Vocabulary{
		{"time"},
		{"time", "life"},
		{"time", "life", "world", "dream"},
	} {
		text, err := c.Compose(words)
		r.NoError(err, "words: %v", words)
		r.NoError(verifying.VerifyText(text, words, mainnetRules()))
	}
}

// The frozen mainnet layout has no room for five or more words.
func TestMainnetComposer_TooLong(t *testing.T) {
	r := require.New(t)

	c, err := NewMainnetComposer(mainnetRules())
	r.NoError(err)

	_, err = c.Compose(vocabulary.Vocabulary{"time", "life", "world", "dream", "truth"})
	r.ErrorIs(err, ErrStructuralViolation)

	_, err = c.Compose(nil)
	r.ErrorIs(err, ErrStructuralViolation)
}
