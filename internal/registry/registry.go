// Package registry implements the voting registry: a voting window, a table of
// named options, one vote per voter identity and per-option tallies.
package registry

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/Guizzs26/voting_registry/internal/metrics"
	"github.com/Guizzs26/voting_registry/internal/model"
	"github.com/Guizzs26/voting_registry/internal/store"
	"github.com/ethereum/go-ethereum/common"
)

// TallyNotifier is told about every accepted vote.
type TallyNotifier interface {
	Notify(update model.TallyUpdate)
}

type VotingRegistry struct {
	// mu serializes operations so each call observes the effects of the
	// previous one, whatever the backend.
	mu    sync.Mutex
	store store.RegistryStore

	log           log.SimpleLogger
	metrics       *metrics.RegistryMetrics
	notifier      TallyNotifier
	enforceWindow bool
}

type Opt func(*VotingRegistry)

// WithVotingWindow rejects votes with model.ErrVotingClosed while voting is closed.
func WithVotingWindow() Opt {
	return func(r *VotingRegistry) { r.enforceWindow = true }
}

func WithLogger(l log.SimpleLogger) Opt {
	return func(r *VotingRegistry) { r.log = l }
}

func WithMetrics(m *metrics.RegistryMetrics) Opt {
	return func(r *VotingRegistry) { r.metrics = m }
}

func WithNotifier(n TallyNotifier) Opt {
	return func(r *VotingRegistry) { r.notifier = n }
}

func New(s store.RegistryStore, opts ...Opt) *VotingRegistry {
	r := &VotingRegistry{
		store: s,
		log:   log.NewNopZapLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *VotingRegistry) OpenVoting(ctx context.Context) (string, error) {
	return r.setClosed(ctx, false, model.MsgVotingOpened)
}

func (r *VotingRegistry) CloseVoting(ctx context.Context) (string, error) {
	return r.setClosed(ctx, true, model.MsgVotingClosed)
}

func (r *VotingRegistry) setClosed(ctx context.Context, closed bool, msg string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.SetClosed(ctx, closed); err != nil {
		return "", err
	}
	if r.metrics != nil {
		if closed {
			r.metrics.VotingOpen.Set(0)
		} else {
			r.metrics.VotingOpen.Set(1)
		}
	}
	r.log.Infow(msg, "closed", closed)
	return msg, nil
}

func (r *VotingRegistry) IsClosed(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.IsClosed(ctx)
}

// AddOption registers name under the caller-chosen id. Re-adding an id
// renames it and keeps its tally.
func (r *VotingRegistry) AddOption(ctx context.Context, id uint64, name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.PutOption(ctx, id, name); err != nil {
		return "", err
	}
	r.log.Infow("Option added", "id", id, "name", name)
	return model.MsgOptionAdded, nil
}

// Option returns the name registered under id.
func (r *VotingRegistry) Option(ctx context.Context, id uint64) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.OptionName(ctx, id)
}

// Vote counts one vote from voter for option id. The option must exist and
// the voter must never have voted before; on failure nothing changes.
func (r *VotingRegistry) Vote(ctx context.Context, voter common.Address, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.enforceWindow {
		closed, err := r.store.IsClosed(ctx)
		if err != nil {
			return err
		}
		if closed {
			r.reject(metrics.ReasonClosed, voter, id)
			return model.ErrVotingClosed
		}
	}

	count, err := r.store.CastVote(ctx, voter, id)
	switch {
	case errors.Is(err, model.ErrInvalidOption):
		r.reject(metrics.ReasonInvalidOption, voter, id)
		return err
	case errors.Is(err, model.ErrDuplicateVote):
		r.reject(metrics.ReasonDuplicate, voter, id)
		return err
	case err != nil:
		r.log.Errorw("Failed to cast vote", "voter", voter, "option", id, "err", err)
		return err
	}

	r.log.Debugw("Vote counted", "voter", voter, "option", id, "votes", count)
	if r.metrics != nil {
		r.metrics.VotesAccepted.WithLabelValues(strconv.FormatUint(id, 10)).Inc()
	}
	if r.notifier != nil {
		update := model.TallyUpdate{OptionID: id, Votes: count, Voter: voter}
		if opts, err := r.store.Options(ctx); err == nil {
			update.Winner, _ = winner(opts)
		}
		r.notifier.Notify(update)
	}
	return nil
}

func (r *VotingRegistry) reject(reason string, voter common.Address, id uint64) {
	r.log.Debugw("Vote rejected", "reason", reason, "voter", voter, "option", id)
	if r.metrics != nil {
		r.metrics.VotesRejected.WithLabelValues(reason).Inc()
	}
}

// VoteCount returns the tally for id, zero for ids that were never registered.
func (r *VotingRegistry) VoteCount(ctx context.Context, id uint64) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.VoteCount(ctx, id)
}

func (r *VotingRegistry) HasVoted(ctx context.Context, voter common.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.HasVoted(ctx, voter)
}

// Results returns every option with its tally, ordered by id.
func (r *VotingRegistry) Results(ctx context.Context) ([]model.Option, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Options(ctx)
}

// Winner returns the name of the option with the highest tally. Ties go to
// the lowest id. It fails with model.ErrNoWinner until a vote is counted.
func (r *VotingRegistry) Winner(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	opts, err := r.store.Options(ctx)
	if err != nil {
		return "", err
	}
	return winner(opts)
}

// winner expects opts ordered by id.
func winner(opts []model.Option) (string, error) {
	var (
		best  model.Option
		found bool
	)
	for _, o := range opts {
		if o.Votes > best.Votes {
			best = o
			found = true
		}
	}
	if !found {
		return "", model.ErrNoWinner
	}
	return best.Name, nil
}
