package model

import "errors"

// Confirmation messages returned by the registry's state transitions.
// Clients match on these strings, so the spelling is part of the contract.
const (
	MsgVotingOpened = "Voting is opened now"
	MsgVotingClosed = "Voting is closed now"
	MsgOptionAdded  = "Option succesfull Added"
)

//nolint:stylecheck
var (
	ErrInvalidOption = errors.New("This option is invalid")
	ErrDuplicateVote = errors.New("This address has already voted")
	ErrVotingClosed  = errors.New("Voting is closed")
	ErrNoWinner      = errors.New("no votes have been cast")
)
