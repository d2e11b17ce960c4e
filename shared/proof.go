package shared

// HashSize is the length of the proof hash (Keccak-256).
const HashSize = 32

// Solution is a nonce that satisfies the difficulty predicate for a text in an epoch.
// Once submitted the program holds the durable copy; the local value is advisory.
type Solution struct {
	Epoch uint64
	Nonce uint64
	Text  []byte
	Hash  [HashSize]byte
}

// TxResult describes the outcome of a remote mutation.
type TxResult struct {
	// Signature identifies the transaction on the remote side. Empty for simulated calls.
	Signature string
}
