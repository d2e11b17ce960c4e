package vocabulary

// WordList is the versioned word list shared with the on-chain verifier.
// Indices are part of the protocol: reordering or editing an entry changes every derived vocabulary.
var WordList = [...]string{
	"time", "life", "world", "place", "water", "light", "house", "music", "power", "dream",
	"heart", "earth", "ocean", "river", "cloud", "stone", "flame", "voice", "night", "field",
	"space", "brain", "truth", "peace", "storm", "tower", "plant", "metal", "glass", "wheel",
	"bridge", "forest", "garden", "market", "island", "desert", "silver", "shadow", "spirit", "nature",
	"energy", "future", "memory", "moment", "season", "winter", "summer", "signal", "system", "design",
	"method", "reason", "answer", "letter", "person", "animal", "flower", "morning", "evening", "journey",
	"history", "culture", "balance", "freedom", "pattern", "shelter", "surface", "chapter", "element", "silence",
	"think", "learn", "build", "write", "speak", "dance", "climb", "watch", "shine", "carry",
	"drive", "paint", "teach", "reach", "solve", "share", "trust", "guide", "shape", "craft",
	"chase", "drift", "weave", "bloom", "grasp", "shift", "sweep", "trace", "wander", "gather",
	"create", "follow", "listen", "notice", "wonder", "happen", "become", "remain", "travel", "return",
	"search", "reveal", "explore", "imagine", "connect", "protect", "reflect", "develop", "consider", "discover",
	"bright", "quiet", "gentle", "strong", "simple", "hidden", "golden", "silent", "frozen", "bitter",
	"tender", "vivid", "subtle", "fierce", "humble", "steady", "clever", "honest", "broken", "sacred",
	"unique", "global", "active", "native", "smooth", "narrow", "liquid", "mental", "social", "visual",
	"formal", "casual", "proper", "remote", "secure", "stable", "cosmic", "ancient", "modern", "natural",
	"digital", "central", "special", "private", "perfect", "strange", "careful", "curious", "distant", "endless",
	"often", "never", "always", "slowly", "deeply", "gently", "simply", "nearly", "barely", "mostly",
	"partly", "surely", "truly", "fully", "quite", "still", "maybe", "hence", "twice", "ahead",
	"apart", "aside", "along", "after", "again", "early", "later", "since", "almost", "around",
}
