package composing

// Slot is the placeholder a template's vocabulary word is substituted into.
const Slot = "{w}"

// Bank is a fixed set of sentence templates. Short, Question and every filler carry exactly one
// Slot; pads carry none.
type Bank struct {
	// Short is a sentence of at most ten words carrying the first word.
	Short string
	// Question is a question of at least twenty words carrying the second word.
	Question string
	// Fillers carry the remaining words, used cyclically.
	Fillers []string
	// Pads are appended cyclically until the text reaches the minimum length.
	Pads []string
}

// DefaultBank is the template bank of the slot composer. None of its fixed text contains a word
// of the vocabulary word list, and every slot is at least 40 bytes away from the next one.
var DefaultBank = Bank{
	Short:    "Nobody forgot that {w} mattered.",
	Question: "Why do so many of us keep coming back to {w} when the old rules no longer feel like the only way to go?",
	Fillers: []string{
		"Old scholars wrote about {w} in books that sat for ages upon dusty wooden shelves.",
		"Children playing by the lake asked why {w} mattered so much to their kind old tutor.",
		"A local baker once said that {w} was the key to every good loaf of sourdough bread.",
		"Few topics spark so much debate at the dinner table as {w} does among old companions.",
		"Our unusual pilot kept humming about {w} while the boat rocked upon the dark harbor waves.",
		"Local folk say {w} is best understood by walking through the mud of a rainy lane.",
	},
	Pads: []string{
		"The lamp by the door flickered as a cat slept on a warm woolen rug.",
		"Two boys kicked a ball across the yard until the sun sank low behind the hills.",
		"A kettle hummed on the stove while the radio played an old jazz tune.",
	},
}

// mainnetTemplates, mainnetQuestion and mainnetCloser are the frozen sentences of the mainnet
// layout. The remote verifier accepts them as they are; do not edit.
var (
	mainnetTemplates = []string{
		"The concept of {w} is something that many people think about when they consider the nature of existence and the patterns that emerge in their daily life every single morning.",
		"In the quiet moments of the evening, one can often find the {w} that connects all things together in ways that are both subtle and profoundly interesting to consider.",
		"Throughout history, great thinkers have always sought to understand the deeper meaning behind the {w} that shapes our world and guides our journey forward into the unknown.",
		"When we take the time to listen carefully, we begin to notice the gentle rhythm of {w} that flows through every single moment of our existence in rather interesting ways.",
		"The ancient stories have always reminded us that the {w} we discover in nature can teach us more than any other source of knowledge ever written in the history of the world.",
	}
	mainnetQuestion = "Is there anything more fascinating than discovering the hidden {w} in the world around us?"
	mainnetCloser   = "The answer remains unclear even today."
)
