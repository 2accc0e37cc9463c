package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Guizzs26/voting_registry/internal/model"
	"github.com/Guizzs26/voting_registry/internal/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x00000000000000000000000000000000000ca201")
)

func newRedisStore(t *testing.T) store.RegistryStore {
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := store.NewRedisStoreWithClient(c, "registry")
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func newPebbleStore(t *testing.T) store.RegistryStore {
	s, err := store.NewMemPebbleStore()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func newMemoryStore(t *testing.T) store.RegistryStore {
	return store.NewMemoryStore()
}

var backends = map[string]func(t *testing.T) store.RegistryStore{
	"memory": newMemoryStore,
	"redis":  newRedisStore,
	"pebble": newPebbleStore,
}

func TestVotingState(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			closed, err := s.IsClosed(ctx)
			require.NoError(t, err)
			assert.True(t, closed)

			require.NoError(t, s.SetClosed(ctx, false))
			closed, err = s.IsClosed(ctx)
			require.NoError(t, err)
			assert.False(t, closed)

			require.NoError(t, s.SetClosed(ctx, true))
			closed, err = s.IsClosed(ctx)
			require.NoError(t, err)
			assert.True(t, closed)
		})
	}
}

func TestOptions(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, ok, err := s.OptionName(ctx, 1)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.PutOption(ctx, 2, "Option 2"))
			require.NoError(t, s.PutOption(ctx, 1, "Option 1"))

			got, ok, err := s.OptionName(ctx, 1)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "Option 1", got)

			opts, err := s.Options(ctx)
			require.NoError(t, err)
			assert.Equal(t, []model.Option{
				{ID: 1, Name: "Option 1"},
				{ID: 2, Name: "Option 2"},
			}, opts)
		})
	}
}

func TestRenameKeepsTally(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			require.NoError(t, s.PutOption(ctx, 1, "Option 1"))
			_, err := s.CastVote(ctx, alice, 1)
			require.NoError(t, err)

			require.NoError(t, s.PutOption(ctx, 1, "Renamed"))
			got, _, err := s.OptionName(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "Renamed", got)

			count, err := s.VoteCount(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), count)
		})
	}
}

func TestCastVote(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			require.NoError(t, s.PutOption(ctx, 1, "Option 1"))
			require.NoError(t, s.PutOption(ctx, 2, "Option 2"))

			t.Run("invalid option", func(t *testing.T) {
				_, err := s.CastVote(ctx, alice, 3)
				require.ErrorIs(t, err, model.ErrInvalidOption)

				voted, err := s.HasVoted(ctx, alice)
				require.NoError(t, err)
				assert.False(t, voted)

				count, err := s.VoteCount(ctx, 3)
				require.NoError(t, err)
				assert.Zero(t, count)
			})

			t.Run("first vote counts", func(t *testing.T) {
				count, err := s.CastVote(ctx, alice, 1)
				require.NoError(t, err)
				assert.Equal(t, uint64(1), count)

				voted, err := s.HasVoted(ctx, alice)
				require.NoError(t, err)
				assert.True(t, voted)
			})

			t.Run("second vote rejected for any option", func(t *testing.T) {
				_, err := s.CastVote(ctx, alice, 1)
				require.ErrorIs(t, err, model.ErrDuplicateVote)
				_, err = s.CastVote(ctx, alice, 2)
				require.ErrorIs(t, err, model.ErrDuplicateVote)

				count, err := s.VoteCount(ctx, 1)
				require.NoError(t, err)
				assert.Equal(t, uint64(1), count)
				count, err = s.VoteCount(ctx, 2)
				require.NoError(t, err)
				assert.Zero(t, count)
			})

			t.Run("tallies are additive", func(t *testing.T) {
				_, err := s.CastVote(ctx, bob, 2)
				require.NoError(t, err)
				count, err := s.CastVote(ctx, carol, 2)
				require.NoError(t, err)
				assert.Equal(t, uint64(2), count)

				opts, err := s.Options(ctx)
				require.NoError(t, err)
				assert.Equal(t, []model.Option{
					{ID: 1, Name: "Option 1", Votes: 1},
					{ID: 2, Name: "Option 2", Votes: 2},
				}, opts)
			})
		})
	}
}

func TestConcurrentDuplicateVotes(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			require.NoError(t, s.PutOption(ctx, 1, "Option 1"))

			const attempts = 20
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				accepted int
			)
			for range attempts {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := s.CastVote(ctx, alice, 1); err == nil {
						mu.Lock()
						accepted++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, accepted)
			count, err := s.VoteCount(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), count)
		})
	}
}
