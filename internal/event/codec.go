package event

import (
	"encoding/json"
	"fmt"

	"github.com/Guizzs26/voting_registry/internal/model"
	"github.com/segmentio/kafka-go"
)

// ballotMessage keys the message on the voter so every ballot from the same
// voter lands on the same partition and is applied in publish order.
func ballotMessage(b model.Ballot) (kafka.Message, error) {
	vb, err := json.Marshal(b)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal ballot: %w", err)
	}
	return kafka.Message{
		Key:   b.Voter.Bytes(),
		Value: vb,
	}, nil
}

func decodeBallot(msg kafka.Message) (model.Ballot, error) {
	var b model.Ballot
	if err := json.Unmarshal(msg.Value, &b); err != nil {
		return model.Ballot{}, fmt.Errorf("%w at offset %d: %w", ErrMalformedBallot, msg.Offset, err)
	}
	return b, nil
}
