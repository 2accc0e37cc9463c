package store

import (
	"context"
	"sync"

	"github.com/Guizzs26/voting_registry/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

type MemoryStore struct {
	mu      sync.RWMutex
	closed  bool
	options map[uint64]string
	tally   map[uint64]uint64
	voters  map[common.Address]struct{}
}

var _ RegistryStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		closed:  true,
		options: make(map[uint64]string),
		tally:   make(map[uint64]uint64),
		voters:  make(map[common.Address]struct{}),
	}
}

func (ms *MemoryStore) SetClosed(_ context.Context, closed bool) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.closed = closed
	return nil
}

func (ms *MemoryStore) IsClosed(context.Context) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.closed, nil
}

func (ms *MemoryStore) PutOption(_ context.Context, id uint64, name string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.options[id] = name
	if _, ok := ms.tally[id]; !ok {
		ms.tally[id] = 0
	}
	return nil
}

func (ms *MemoryStore) OptionName(_ context.Context, id uint64) (string, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	name, ok := ms.options[id]
	return name, ok, nil
}

func (ms *MemoryStore) Options(context.Context) ([]model.Option, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	opts := make([]model.Option, 0, len(ms.options))
	for id, name := range ms.options {
		opts = append(opts, model.Option{ID: id, Name: name, Votes: ms.tally[id]})
	}
	sortOptions(opts)
	return opts, nil
}

func (ms *MemoryStore) CastVote(_ context.Context, voter common.Address, optionID uint64) (uint64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.options[optionID]; !ok {
		return 0, model.ErrInvalidOption
	}
	if _, ok := ms.voters[voter]; ok {
		return 0, model.ErrDuplicateVote
	}

	ms.voters[voter] = struct{}{}
	ms.tally[optionID]++
	return ms.tally[optionID], nil
}

func (ms *MemoryStore) VoteCount(_ context.Context, optionID uint64) (uint64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.tally[optionID], nil
}

func (ms *MemoryStore) HasVoted(_ context.Context, voter common.Address) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	_, ok := ms.voters[voter]
	return ok, nil
}

func (ms *MemoryStore) Close() error {
	return nil
}
