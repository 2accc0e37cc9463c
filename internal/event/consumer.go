package event

import (
	"context"
	"errors"

	"github.com/Guizzs26/voting_registry/internal/model"
)

// ErrMalformedBallot marks a message that could not be decoded. The consumer
// has moved past it, so the next read can be attempted right away.
var ErrMalformedBallot = errors.New("malformed ballot")

type BallotConsumer interface {
	ReadBallot(ctx context.Context) (model.Ballot, error)
	Close() error
}
