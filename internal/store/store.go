package store

import (
	"cmp"
	"context"
	"slices"

	"github.com/Guizzs26/voting_registry/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

// RegistryStore persists the registry's state. A fresh store is closed,
// has no options and no voters.
//
// CastVote is the only compound operation and must be atomic: it fails with
// model.ErrInvalidOption or model.ErrDuplicateVote without mutating anything,
// otherwise it records the voter and increments the option's tally.
type RegistryStore interface {
	SetClosed(ctx context.Context, closed bool) error
	IsClosed(ctx context.Context) (bool, error)

	// PutOption registers name under id. An existing id is renamed and keeps
	// its tally.
	PutOption(ctx context.Context, id uint64, name string) error
	OptionName(ctx context.Context, id uint64) (string, bool, error)
	// Options returns every registered option with its tally, ordered by id.
	Options(ctx context.Context) ([]model.Option, error)

	CastVote(ctx context.Context, voter common.Address, optionID uint64) (uint64, error)
	VoteCount(ctx context.Context, optionID uint64) (uint64, error)
	HasVoted(ctx context.Context, voter common.Address) (bool, error)

	Close() error
}

func sortOptions(opts []model.Option) {
	slices.SortFunc(opts, func(a, b model.Option) int {
		return cmp.Compare(a.ID, b.ID)
	})
}
