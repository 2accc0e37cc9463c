package event

import (
	"testing"
	"time"

	"github.com/Guizzs26/voting_registry/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBallotMessageKeyedByVoter(t *testing.T) {
	voter := common.HexToAddress("0xdeadbeef00000000000000000000000000000001")
	ballot := model.Ballot{
		Voter:     voter,
		OptionID:  2,
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	msg, err := ballotMessage(ballot)
	require.NoError(t, err)
	assert.Equal(t, voter.Bytes(), msg.Key)
	assert.JSONEq(t, `{
		"voter": "0xdeadbeef00000000000000000000000000000001",
		"option_id": 2,
		"timestamp": "2024-05-01T12:00:00Z"
	}`, string(msg.Value))

	decoded, err := decodeBallot(msg)
	require.NoError(t, err)
	assert.Equal(t, ballot, decoded)
}

func TestDecodeMalformedBallot(t *testing.T) {
	_, err := decodeBallot(kafka.Message{Offset: 42, Value: []byte("not json")})
	require.ErrorContains(t, err, "offset 42")
	require.ErrorIs(t, err, ErrMalformedBallot)
}

func TestKafkaRequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "ballots")
	require.Error(t, err)
	_, err = NewKafkaConsumer(nil, "ballots", "group", nil)
	require.Error(t, err)
}
