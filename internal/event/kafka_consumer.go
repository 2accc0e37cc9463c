package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/Guizzs26/voting_registry/internal/model"
	"github.com/segmentio/kafka-go"
)

type KafkaConsumer struct {
	reader *kafka.Reader
	log    log.SimpleLogger
}

var _ BallotConsumer = (*KafkaConsumer)(nil)

func NewKafkaConsumer(brokers []string, topic, groupID string, logger log.SimpleLogger) (*KafkaConsumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	rCfg := kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10kb
		MaxBytes: 10e6, // 10mb
		MaxWait:  1 * time.Second,
		// A new group replays the whole topic: the registry state is the fold
		// of every ballot ever published.
		StartOffset: kafka.FirstOffset,
	}
	r := kafka.NewReader(rCfg)

	return &KafkaConsumer{reader: r, log: logger}, nil
}

// ReadBallot blocks until a ballot arrives or ctx is cancelled.
func (kc *KafkaConsumer) ReadBallot(ctx context.Context) (model.Ballot, error) {
	msg, err := kc.reader.ReadMessage(ctx)
	if err != nil {
		// Cancellation and EOF mean shutdown, the caller stops its loop.
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return model.Ballot{}, err
		}
		kc.log.Errorw("Error reading message from Kafka", "err", err)
		return model.Ballot{}, err
	}

	ballot, err := decodeBallot(msg)
	if err != nil {
		kc.log.Warnw("Skipping malformed ballot", "partition", msg.Partition, "offset", msg.Offset, "err", err)
		return model.Ballot{}, err
	}

	return ballot, nil
}

func (kc *KafkaConsumer) Close() error {
	if err := kc.reader.Close(); err != nil {
		return fmt.Errorf("failed to close kafka reader: %w", err)
	}
	return nil
}
