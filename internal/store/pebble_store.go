package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Guizzs26/voting_registry/internal/model"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/ethereum/go-ethereum/common"
)

var (
	closedKey    = []byte("closed")
	optionPrefix = []byte("option/")
	tallyPrefix  = []byte("tally/")
	voterPrefix  = []byte("voter/")
)

// PebbleStore keeps the registry on local disk. Reads go straight to the DB,
// writes go through an indexed batch serialized by wMutex.
type PebbleStore struct {
	db     *pebble.DB
	wMutex sync.Mutex
}

var _ RegistryStore = (*PebbleStore)(nil)

// NewPebbleStore opens a store at the given path
func NewPebbleStore(path string, logger pebble.Logger) (*PebbleStore, error) {
	return newPebbleStore(path, &pebble.Options{Logger: logger})
}

// NewMemPebbleStore opens a store backed by an in-memory filesystem
func NewMemPebbleStore() (*PebbleStore, error) {
	return newPebbleStore("", &pebble.Options{FS: vfs.NewMem()})
}

func newPebbleStore(path string, options *pebble.Options) (*PebbleStore, error) {
	db, err := pebble.Open(path, options)
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func optionKey(id uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte{}, optionPrefix...), id)
}

func tallyKey(id uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte{}, tallyPrefix...), id)
}

func voterKey(voter common.Address) []byte {
	return append(append([]byte{}, voterPrefix...), voter.Bytes()...)
}

type getter interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

// get copies the value out so the closer can be released immediately.
func get(r getter, key []byte) ([]byte, bool, error) {
	v, closer, err := r.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	return append([]byte{}, v...), true, nil
}

func readTally(r getter, id uint64) (uint64, error) {
	v, ok, err := get(r, tallyKey(id))
	if err != nil || !ok {
		return 0, err
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("corrupt tally for option %d", id)
	}
	return binary.BigEndian.Uint64(v), nil
}

func (ps *PebbleStore) SetClosed(_ context.Context, closed bool) error {
	v := []byte{0}
	if closed {
		v[0] = 1
	}
	if err := ps.db.Set(closedKey, v, pebble.Sync); err != nil {
		return fmt.Errorf("set voting state: %w", err)
	}
	return nil
}

func (ps *PebbleStore) IsClosed(context.Context) (bool, error) {
	v, ok, err := get(ps.db, closedKey)
	if err != nil {
		return false, fmt.Errorf("get voting state: %w", err)
	}
	if !ok || len(v) == 0 {
		return true, nil
	}
	return v[0] != 0, nil
}

func (ps *PebbleStore) update(fn func(b *pebble.Batch) error) error {
	ps.wMutex.Lock()
	defer ps.wMutex.Unlock()

	b := ps.db.NewIndexedBatch()
	defer b.Close()
	if err := fn(b); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (ps *PebbleStore) PutOption(_ context.Context, id uint64, name string) error {
	err := ps.update(func(b *pebble.Batch) error {
		if err := b.Set(optionKey(id), []byte(name), nil); err != nil {
			return err
		}
		_, ok, err := get(b, tallyKey(id))
		if err != nil || ok {
			return err
		}
		return b.Set(tallyKey(id), binary.BigEndian.AppendUint64(nil, 0), nil)
	})
	if err != nil {
		return fmt.Errorf("put option %d: %w", id, err)
	}
	return nil
}

func (ps *PebbleStore) OptionName(_ context.Context, id uint64) (string, bool, error) {
	v, ok, err := get(ps.db, optionKey(id))
	if err != nil {
		return "", false, fmt.Errorf("get option %d: %w", id, err)
	}
	return string(v), ok, nil
}

func (ps *PebbleStore) Options(context.Context) ([]model.Option, error) {
	snap := ps.db.NewSnapshot()
	defer snap.Close()

	upper := append([]byte{}, optionPrefix...)
	upper[len(upper)-1]++
	iter, err := snap.NewIter(&pebble.IterOptions{LowerBound: optionPrefix, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("iterate options: %w", err)
	}
	defer iter.Close()

	var opts []model.Option
	for iter.First(); iter.Valid(); iter.Next() {
		id := binary.BigEndian.Uint64(iter.Key()[len(optionPrefix):])
		votes, err := readTally(snap, id)
		if err != nil {
			return nil, fmt.Errorf("get tally %d: %w", id, err)
		}
		opts = append(opts, model.Option{ID: id, Name: string(iter.Value()), Votes: votes})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate options: %w", err)
	}
	return opts, nil
}

func (ps *PebbleStore) CastVote(_ context.Context, voter common.Address, optionID uint64) (uint64, error) {
	var count uint64
	err := ps.update(func(b *pebble.Batch) error {
		if _, ok, err := get(b, optionKey(optionID)); err != nil {
			return err
		} else if !ok {
			return model.ErrInvalidOption
		}
		if _, ok, err := get(b, voterKey(voter)); err != nil {
			return err
		} else if ok {
			return model.ErrDuplicateVote
		}

		current, err := readTally(b, optionID)
		if err != nil {
			return err
		}
		count = current + 1
		if err := b.Set(voterKey(voter), nil, nil); err != nil {
			return err
		}
		return b.Set(tallyKey(optionID), binary.BigEndian.AppendUint64(nil, count), nil)
	})
	if errors.Is(err, model.ErrInvalidOption) || errors.Is(err, model.ErrDuplicateVote) {
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("cast vote: %w", err)
	}
	return count, nil
}

func (ps *PebbleStore) VoteCount(_ context.Context, optionID uint64) (uint64, error) {
	count, err := readTally(ps.db, optionID)
	if err != nil {
		return 0, fmt.Errorf("get tally %d: %w", optionID, err)
	}
	return count, nil
}

func (ps *PebbleStore) HasVoted(_ context.Context, voter common.Address) (bool, error) {
	_, ok, err := get(ps.db, voterKey(voter))
	if err != nil {
		return false, fmt.Errorf("get voter: %w", err)
	}
	return ok, nil
}

func (ps *PebbleStore) Close() error {
	return ps.db.Close()
}
