package verifying

import (
	"bytes"
)

// Sentence is a terminated run of text. Start and End are byte offsets into the text; End is
// exclusive and includes the terminator.
type Sentence struct {
	Start int
	End   int
	Words int
}

// Question reports whether the sentence ends with a question mark.
func (s Sentence) Question(text []byte) bool {
	return s.End > s.Start && text[s.End-1] == '?'
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// EndsOnTerminator reports whether the text ends on a sentence boundary.
func EndsOnTerminator(text []byte) bool {
	return len(text) > 0 && isTerminator(text[len(text)-1])
}

// Sentences splits text on terminators followed by whitespace or the end of the text. Leading
// whitespace is not part of a sentence. A trailing unterminated fragment is returned as the last
// sentence.
func Sentences(text []byte) []Sentence {
	var out []Sentence
	start := -1
	for i := 0; i < len(text); i++ {
		if start < 0 {
			if isSpace(text[i]) {
				continue
			}
			start = i
		}
		if isTerminator(text[i]) && (i+1 == len(text) || isSpace(text[i+1])) {
			out = append(out, newSentence(text, start, i+1))
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, newSentence(text, start, len(text)))
	}
	return out
}

func newSentence(text []byte, start, end int) Sentence {
	return Sentence{
		Start: start,
		End:   end,
		Words: len(bytes.Fields(text[start:end])),
	}
}

// sentenceAt returns the index of the sentence containing offset, or -1.
func sentenceAt(sentences []Sentence, offset int) int {
	for i, s := range sentences {
		if offset >= s.Start && offset < s.End {
			return i
		}
	}
	return -1
}

// wordOccurrences returns the offsets of every whole-word occurrence of word in text.
func wordOccurrences(text []byte, word string) []int {
	if word == "" {
		return nil
	}
	w := []byte(word)

	var out []int
	for from := 0; from < len(text); {
		i := bytes.Index(text[from:], w)
		if i < 0 {
			break
		}
		i += from
		end := i + len(w)
		if (i == 0 || !isWordByte(text[i-1])) && (end == len(text) || !isWordByte(text[end])) {
			out = append(out, i)
		}
		from = i + 1
	}
	return out
}
