package event

import (
	"context"
	"fmt"
	"time"

	"github.com/Guizzs26/voting_registry/internal/model"
	"github.com/segmentio/kafka-go"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

var _ BallotPublisher = (*KafkaPublisher)(nil)

/*
Balancer: &kafka.Hash{} sends messages with the same key to the same
partition. Ballots are keyed by voter, so a voter's ballots keep their order
and the first one is the one that counts.

RequiredAcks: kafka.RequireAll waits for every in-sync replica before a
publish is considered done. A ballot acknowledged to the caller is not lost
if the leader goes down right after.

Compression: kafka.Snappy. Ballots are small JSON documents and compress well.
*/
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  5,
		Compression:  kafka.Snappy,
	}

	return &KafkaPublisher{writer: w}, nil
}

func (kp *KafkaPublisher) Publish(ctx context.Context, ballot model.Ballot) error {
	msg, err := ballotMessage(ballot)
	if err != nil {
		return err
	}

	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

func (kp *KafkaPublisher) Close() error {
	if err := kp.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}
