package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Ballot is a single vote request as it travels on the ballot stream.
type Ballot struct {
	Voter     common.Address `json:"voter"`
	OptionID  uint64         `json:"option_id"`
	Timestamp time.Time      `json:"timestamp"`
}

// Option is a registered choice together with its current tally.
type Option struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Votes uint64 `json:"votes"`
}

// TallyUpdate is pushed to watchers after every accepted vote.
type TallyUpdate struct {
	OptionID uint64         `json:"option_id"`
	Votes    uint64         `json:"votes"`
	Voter    common.Address `json:"voter"`
	Winner   string         `json:"winner,omitempty"`
}
