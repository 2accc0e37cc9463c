package processing

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Guizzs26/voting_registry/internal/event"
	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/Guizzs26/voting_registry/internal/metrics"
	"github.com/Guizzs26/voting_registry/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sourcegraph/conc"
)

// Registry is the part of registry.VotingRegistry the processor drives.
type Registry interface {
	Vote(ctx context.Context, voter common.Address, id uint64) error
	Results(ctx context.Context) ([]model.Option, error)
}

// BallotProcessor applies ballots from the stream to the registry one at a
// time, in the order the consumer hands them out.
type BallotProcessor struct {
	consumer event.BallotConsumer
	registry Registry
	metrics  *metrics.ProcessorMetrics
	log      log.SimpleLogger

	reportInterval time.Duration
	retryDelay     time.Duration
}

const defaultRetryDelay = time.Second

func NewBallotProcessor(c event.BallotConsumer, r Registry, m *metrics.ProcessorMetrics,
	logger log.SimpleLogger, reportInterval time.Duration,
) *BallotProcessor {
	return &BallotProcessor{
		consumer:       c,
		registry:       r,
		metrics:        m,
		log:            logger,
		reportInterval: reportInterval,
		retryDelay:     defaultRetryDelay,
	}
}

// WithRetryDelay sets how long Run waits after a failed read before reading
// again.
func (bp *BallotProcessor) WithRetryDelay(d time.Duration) *BallotProcessor {
	bp.retryDelay = d
	return bp
}

func (bp *BallotProcessor) Run(ctx context.Context) error {
	var wg conc.WaitGroup
	defer wg.Wait()

	// stops the report loop on every return path
	reportCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if bp.reportInterval > 0 {
		wg.Go(func() { bp.reportLoop(reportCtx) })
	}

	for {
		b, err := bp.consumer.ReadBallot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				bp.log.Infow("Ballot processor received signal to stop")
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, event.ErrMalformedBallot) {
				continue
			}
			bp.log.Warnw("Error reading ballot", "err", err, "retryIn", bp.retryDelay)
			select {
			case <-ctx.Done():
				bp.log.Infow("Ballot processor received signal to stop")
				return nil
			case <-time.After(bp.retryDelay):
			}
			continue
		}
		bp.processBallot(ctx, b)
	}
}

func (bp *BallotProcessor) reportLoop(ctx context.Context) {
	ticker := time.NewTicker(bp.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bp.printResults(ctx)
		}
	}
}

func (bp *BallotProcessor) processBallot(ctx context.Context, b model.Ballot) {
	if bp.metrics != nil {
		bp.metrics.BallotsRead.Inc()
		start := time.Now()
		defer func() {
			bp.metrics.ProcessingTime.Observe(time.Since(start).Seconds())
		}()
	}

	err := bp.registry.Vote(ctx, b.Voter, b.OptionID)
	switch {
	case err == nil:
		bp.log.Infow("Valid vote", "voter", b.Voter, "option", b.OptionID)
	case errors.Is(err, model.ErrDuplicateVote):
		bp.log.Warnw("Duplicate vote", "voter", b.Voter, "option", b.OptionID)
	case errors.Is(err, model.ErrInvalidOption), errors.Is(err, model.ErrVotingClosed):
		bp.log.Warnw("Ballot rejected", "voter", b.Voter, "option", b.OptionID, "reason", err)
	default:
		bp.log.Errorw("Failed to apply ballot", "voter", b.Voter, "option", b.OptionID, "err", err)
	}
}

func (bp *BallotProcessor) printResults(ctx context.Context) {
	results, err := bp.registry.Results(ctx)
	if err != nil {
		bp.log.Warnw("Failed to read results", "err", err)
		return
	}

	if len(results) == 0 {
		bp.log.Infow("No options registered yet")
		return
	}
	for _, o := range results {
		bp.log.Infow("Current score", "option", o.ID, "name", o.Name, "votes", o.Votes)
	}
}
