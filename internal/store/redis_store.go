package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Guizzs26/voting_registry/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

const (
	castInvalidOption = -1
	castDuplicateVote = -2
)

// castVoteScript runs the option check, voter insert and tally increment as
// one atomic step on the server.
//
// KEYS[1] options hash, KEYS[2] voters set, KEYS[3] tally hash
// ARGV[1] option id, ARGV[2] voter address
var castVoteScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
	return -1
end
if redis.call('SADD', KEYS[2], ARGV[2]) == 0 then
	return -2
end
return redis.call('HINCRBY', KEYS[3], ARGV[1], 1)
`)

type RedisStore struct {
	client *redis.Client

	closedKey  string
	optionsKey string
	tallyKey   string
	votersKey  string
}

var _ RegistryStore = (*RedisStore)(nil)

func NewRedisStore(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	c := redis.NewClient(opts)

	if err := c.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	return NewRedisStoreWithClient(c, prefix), nil
}

func NewRedisStoreWithClient(c *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client:     c,
		closedKey:  prefix + ":closed",
		optionsKey: prefix + ":options",
		tallyKey:   prefix + ":tally",
		votersKey:  prefix + ":voters",
	}
}

func (rs *RedisStore) SetClosed(ctx context.Context, closed bool) error {
	v := "0"
	if closed {
		v = "1"
	}
	if err := rs.client.Set(ctx, rs.closedKey, v, 0).Err(); err != nil {
		return fmt.Errorf("error setting voting state: %w", err)
	}
	return nil
}

func (rs *RedisStore) IsClosed(ctx context.Context) (bool, error) {
	v, err := rs.client.Get(ctx, rs.closedKey).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("error getting voting state: %w", err)
	}
	return v != "0", nil
}

func (rs *RedisStore) PutOption(ctx context.Context, id uint64, name string) error {
	field := strconv.FormatUint(id, 10)
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, rs.optionsKey, field, name)
		pipe.HSetNX(ctx, rs.tallyKey, field, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error executing redis pipeline: %w", err)
	}
	return nil
}

func (rs *RedisStore) OptionName(ctx context.Context, id uint64) (string, bool, error) {
	name, err := rs.client.HGet(ctx, rs.optionsKey, strconv.FormatUint(id, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error getting option %d: %w", id, err)
	}
	return name, true, nil
}

func (rs *RedisStore) Options(ctx context.Context) ([]model.Option, error) {
	names, err := rs.client.HGetAll(ctx, rs.optionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("error getting options from redis: %w", err)
	}
	counts, err := rs.client.HGetAll(ctx, rs.tallyKey).Result()
	if err != nil {
		return nil, fmt.Errorf("error getting tally from redis: %w", err)
	}

	opts := make([]model.Option, 0, len(names))
	for field, name := range names {
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("error converting option id: %w", err)
		}
		var votes uint64
		if countStr, ok := counts[field]; ok {
			votes, err = strconv.ParseUint(countStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("error converting count: %w", err)
			}
		}
		opts = append(opts, model.Option{ID: id, Name: name, Votes: votes})
	}
	sortOptions(opts)
	return opts, nil
}

func (rs *RedisStore) CastVote(ctx context.Context, voter common.Address, optionID uint64) (uint64, error) {
	keys := []string{rs.optionsKey, rs.votersKey, rs.tallyKey}
	r, err := castVoteScript.Run(ctx, rs.client, keys, strconv.FormatUint(optionID, 10), voter.Hex()).Int64()
	if err != nil {
		return 0, fmt.Errorf("error casting vote: %w", err)
	}

	switch r {
	case castInvalidOption:
		return 0, model.ErrInvalidOption
	case castDuplicateVote:
		return 0, model.ErrDuplicateVote
	}
	return uint64(r), nil
}

func (rs *RedisStore) VoteCount(ctx context.Context, optionID uint64) (uint64, error) {
	countStr, err := rs.client.HGet(ctx, rs.tallyKey, strconv.FormatUint(optionID, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error getting vote count: %w", err)
	}

	count, err := strconv.ParseUint(countStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("error converting count to int: %w", err)
	}
	return count, nil
}

func (rs *RedisStore) HasVoted(ctx context.Context, voter common.Address) (bool, error) {
	ok, err := rs.client.SIsMember(ctx, rs.votersKey, voter.Hex()).Result()
	if err != nil {
		return false, fmt.Errorf("error checking voter: %w", err)
	}
	return ok, nil
}

func (rs *RedisStore) Close() error {
	if err := rs.client.Close(); err != nil {
		return fmt.Errorf("error closing redis client: %w", err)
	}
	return nil
}
