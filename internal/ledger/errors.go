package ledger

import "errors"

// Every operation validates all of its preconditions before touching any
// store, so returning one of these sentinels always means zero state was
// mutated by the failed call.
var (
	// ErrInvalidAmount indicates a zero, negative or missing amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrTransferFailed indicates the external token transfer did not complete.
	ErrTransferFailed = errors.New("token transfer failed")

	// ErrNotFound indicates an unknown model, proposal or subscription id.
	ErrNotFound = errors.New("not found")

	// ErrModelInactive indicates the model has been deactivated.
	ErrModelInactive = errors.New("model is not active")

	// ErrInsufficientBalance indicates the user's credit balance cannot cover the cost.
	ErrInsufficientBalance = errors.New("insufficient credit balance")

	// ErrNothingToWithdraw indicates the developer has no accrued earnings.
	ErrNothingToWithdraw = errors.New("nothing to withdraw")

	// ErrUnauthorized indicates the caller is not the chain administrator.
	ErrUnauthorized = errors.New("caller is not authorized")

	// ErrBelowThreshold indicates the proposer's token balance is below the proposal threshold.
	ErrBelowThreshold = errors.New("token balance below proposal threshold")

	// ErrVotingNotYetOpen indicates the proposal's voting window has not opened.
	ErrVotingNotYetOpen = errors.New("voting has not yet opened")

	// ErrVotingClosed indicates the proposal's voting window has closed.
	ErrVotingClosed = errors.New("voting window has closed")

	// ErrAlreadyVoted indicates the voter already cast a vote on this proposal.
	ErrAlreadyVoted = errors.New("already voted on this proposal")

	// ErrInvalidVoteChoice indicates the vote choice is not for, against or abstain.
	ErrInvalidVoteChoice = errors.New("invalid vote choice")

	// ErrNoVotingPower indicates the voter holds no governance tokens.
	ErrNoVotingPower = errors.New("no voting power")

	// ErrVotingStillOpen indicates execution was attempted before the window closed.
	ErrVotingStillOpen = errors.New("voting window is still open")

	// ErrAlreadyExecuted indicates the proposal outcome has already been recorded.
	ErrAlreadyExecuted = errors.New("proposal already executed")
)
