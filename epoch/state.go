package epoch

import "fmt"

// State is a state of the coordinator's lifecycle.
type State int

const (
	Idle State = iota
	AwaitingEpochEnd
	Solving
	Submitting
	WaitingForAdvance
	Advancing
	Claiming
	Error
)

var stateNames = [...]string{
	Idle:              "idle",
	AwaitingEpochEnd:  "awaiting-epoch-end",
	Solving:           "solving",
	Submitting:        "submitting",
	WaitingForAdvance: "waiting-for-advance",
	Advancing:         "advancing",
	Claiming:          "claiming",
	Error:             "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// CoordinatorState is the process-local bookkeeping of the coordinator. It is lost on restart;
// intent is then re-derived from remote state.
type CoordinatorState struct {
	// Submitted is set once a solution was accepted in this process; LastSubmittedEpoch is only
	// meaningful when it is.
	Submitted          bool
	LastSubmittedEpoch uint64

	// Tally is the number of solutions this process contributed to TallyEpoch.
	Tally      uint64
	TallyEpoch uint64

	// WithdrawCounter counts successful submissions for periodic withdrawal of vested rewards.
	WithdrawCounter uint64

	// PendingClaim is the epoch of a submitted solution that was not claimed yet.
	PendingClaim *uint64
}

// Transition describes one step of the coordinator.
type Transition struct {
	From  State
	To    State
	Epoch uint64
	Err   error
}
