// Package protocol selects the puzzle rules, text layout and payload format of a program version.
package protocol

import (
	"errors"
	"fmt"
	"sort"

	"github.com/poi-miner/post-miner/composing"
	"github.com/poi-miner/post-miner/ledger"
	"github.com/poi-miner/post-miner/shared"
	"github.com/poi-miner/post-miner/verifying"
	"github.com/poi-miner/post-miner/vocabulary"
)

const (
	// V2 is the slot template protocol without vesting.
	V2 = "v2.2"
	// V3 is the mainnet protocol: frozen templates, recipient in the submit payload and vested
	// rewards.
	V3 = "v3.0"

	// Default is the version used when none is configured.
	Default = V2
)

// WithdrawInterval is the number of successful submissions between withdrawals on V3.
const WithdrawInterval = 10

var ErrUnknownVersion = errors.New("unknown protocol version")

// Protocol is everything that differs between program versions. Vocabulary derivation, the proof
// hash and the epoch lifecycle are shared by all versions.
type Protocol interface {
	Version() string
	// Words derives the vocabulary for seed and difficulty.
	Words(seed shared.Seed, difficulty uint64) vocabulary.Vocabulary
	// Rules are the structural text rules the program enforces.
	Rules() verifying.Rules
	Composer() composing.Composer
	// SubmitPayload encodes the submit instruction data.
	SubmitPayload(text []byte, nonce uint64, recipient shared.Identity) []byte
	// WithdrawEvery is the number of successful submissions between withdrawals of vested
	// rewards. Zero means the version has no vesting.
	WithdrawEvery() int
}

type base struct {
	version  string
	rules    verifying.Rules
	composer composing.Composer
}

func (b *base) Version() string              { return b.version }
func (b *base) Rules() verifying.Rules       { return b.rules }
func (b *base) Composer() composing.Composer { return b.composer }
func (b *base) String() string               { return b.version }

func (b *base) Words(seed shared.Seed, difficulty uint64) vocabulary.Vocabulary {
	return vocabulary.Derive(seed, difficulty)
}

type slotProtocol struct {
	base
}

func (p *slotProtocol) SubmitPayload(text []byte, nonce uint64, _ shared.Identity) []byte {
	return ledger.EncodeSubmit(text, nonce, nil)
}

func (p *slotProtocol) WithdrawEvery() int { return 0 }

type mainnetProtocol struct {
	base
}

func (p *mainnetProtocol) SubmitPayload(text []byte, nonce uint64, recipient shared.Identity) []byte {
	return ledger.EncodeSubmit(text, nonce, &recipient)
}

func (p *mainnetProtocol) WithdrawEvery() int { return WithdrawInterval }

// MainnetRules are the structural rules of V3: a question and a long sentence are required
// separately and words may repeat.
func MainnetRules() verifying.Rules {
	r := verifying.DefaultRules()
	r.LongQuestion = false
	r.ExactlyOnce = false
	return r
}

func newSlotProtocol() (Protocol, error) {
	rules := verifying.DefaultRules()
	c, err := composing.NewSlotComposer(composing.DefaultBank, rules)
	if err != nil {
		return nil, err
	}
	return &slotProtocol{base{version: V2, rules: rules, composer: c}}, nil
}

func newMainnetProtocol() (Protocol, error) {
	rules := MainnetRules()
	c, err := composing.NewMainnetComposer(rules)
	if err != nil {
		return nil, err
	}
	return &mainnetProtocol{base{version: V3, rules: rules, composer: c}}, nil
}

var registry = map[string]func() (Protocol, error){
	V2: newSlotProtocol,
	V3: newMainnetProtocol,
}

// Lookup returns the protocol for version.
func Lookup(version string) (Protocol, error) {
	ctor, ok := registry[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %v)", ErrUnknownVersion, version, Versions())
	}
	return ctor()
}

// Versions lists the supported versions in ascending order.
func Versions() []string {
	out := make([]string, 0, len(registry))
	for v := range registry {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
