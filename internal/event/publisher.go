package event

import (
	"context"

	"github.com/Guizzs26/voting_registry/internal/model"
)

type BallotPublisher interface {
	Publish(ctx context.Context, ballot model.Ballot) error
	Close() error
}
