package epoch

import (
	"context"
	"errors"

	"github.com/poi-miner/post-miner/shared"
	"github.com/poi-miner/post-miner/vocabulary"
)

// Ledger is the remote program. Every call is blocking and fallible; retries are decided by the
// coordinator, never by the implementation.
type Ledger interface {
	ReadEpochState(ctx context.Context) (*shared.EpochState, error)
	Submit(ctx context.Context, text []byte, nonce, epoch uint64) (*shared.TxResult, error)
	AdvanceEpoch(ctx context.Context, solutionCount uint64) (*shared.TxResult, error)
	Claim(ctx context.Context, epoch uint64) (*shared.TxResult, error)
}

// Vesting is implemented by ledgers whose rewards vest over time.
type Vesting interface {
	// CreateVesting makes sure the vesting account of the miner exists. It succeeds if the
	// account already exists.
	CreateVesting(ctx context.Context) (*shared.TxResult, error)
	Withdraw(ctx context.Context) (*shared.TxResult, error)
}

// Actions recorded as outcomes.
const (
	ActionSubmit        = "submit"
	ActionAdvance       = "advance"
	ActionClaim         = "claim"
	ActionCreateVesting = "create_vesting"
	ActionWithdraw      = "withdraw"
)

// Outcome is the result of a remote mutation.
type Outcome struct {
	Action    string
	Epoch     uint64
	Signature string
	Err       error
}

// Recorder receives solutions and outcomes as they happen. Recorded data is advisory and never
// read back by the coordinator.
type Recorder interface {
	RecordSolution(ctx context.Context, sol *shared.Solution, words vocabulary.Vocabulary) error
	RecordOutcome(ctx context.Context, o Outcome) error
}

// IsDuplicate reports whether err means a solution for the epoch is already on record.
func IsDuplicate(err error) bool {
	return errors.Is(err, shared.ErrDuplicateSubmission)
}
