package shared

import (
	"errors"
)

var (
	// ErrDuplicateSubmission is returned when a solution for (identity, epoch) is already on record.
	ErrDuplicateSubmission = errors.New("solution already submitted for this epoch")
	// ErrEpochEnded is returned when submitting into an epoch whose end time has passed.
	ErrEpochEnded = errors.New("epoch has ended")
	// ErrEpochNotEnded is returned when advancing or claiming before the epoch ended.
	ErrEpochNotEnded = errors.New("epoch has not ended")
	// ErrInvalidText is returned when the submitted text fails the structural rules.
	ErrInvalidText = errors.New("text verification failed")
	// ErrInsufficientDifficulty is returned when the proof hash lacks the required zero bits.
	ErrInsufficientDifficulty = errors.New("hash does not meet difficulty requirement")
	// ErrSolutionNotFound is returned when claiming without a solution on record.
	ErrSolutionNotFound = errors.New("solution not found")
	// ErrClaimExpired is returned when a solution is claimed too many epochs after submission.
	ErrClaimExpired = errors.New("solution claim period has expired")
	// ErrNothingToWithdraw is returned when no vested amount is available.
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
	// ErrMaxSupplyReached is returned when the token supply cap is exhausted.
	ErrMaxSupplyReached = errors.New("maximum token supply reached")
)
