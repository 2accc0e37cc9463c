package simulation

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/Guizzs26/voting_registry/internal/event"
	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/Guizzs26/voting_registry/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	OptionIDs []uint64
	Interval  time.Duration
	// Every DuplicateEvery-th ballot replays the previous voter.
	DuplicateEvery int
	// Every InvalidEvery-th ballot targets an option that is not registered.
	InvalidEvery int
	Seed         uint64
}

type Simulator struct {
	eventPublisher event.BallotPublisher
	cfg            Config
	rng            *rand.Rand
	log            log.SimpleLogger
}

func New(ep event.BallotPublisher, cfg Config, logger log.SimpleLogger) *Simulator {
	return &Simulator{
		eventPublisher: ep,
		cfg:            cfg,
		rng:            rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		log:            logger,
	}
}

func (s *Simulator) randomVoter() common.Address {
	var a common.Address
	for i := 0; i < len(a); i += 8 {
		v := s.rng.Uint64()
		for j := 0; j < 8 && i+j < len(a); j++ {
			a[i+j] = byte(v >> (8 * j))
		}
	}
	return a
}

func (s *Simulator) invalidOption() uint64 {
	var highest uint64
	for _, id := range s.cfg.OptionIDs {
		highest = max(highest, id)
	}
	return highest + 1
}

// next builds the n-th ballot (1-based).
func (s *Simulator) next(n int, last common.Address) model.Ballot {
	b := model.Ballot{Timestamp: time.Now()}

	switch {
	case s.cfg.DuplicateEvery > 0 && n%s.cfg.DuplicateEvery == 0 && last != (common.Address{}):
		b.Voter = last
	default:
		b.Voter = s.randomVoter()
	}

	switch {
	case s.cfg.InvalidEvery > 0 && n%s.cfg.InvalidEvery == 0, len(s.cfg.OptionIDs) == 0:
		b.OptionID = s.invalidOption()
	default:
		b.OptionID = s.cfg.OptionIDs[s.rng.IntN(len(s.cfg.OptionIDs))]
	}
	return b
}

func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	var (
		n    int
		last common.Address
	)
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("Simulator received shutdown signal")
			return nil

		case <-ticker.C:
			n++
			b := s.next(n, last)
			if b.Voter == last {
				s.log.Infow("Generating a duplicate ballot on purpose", "voter", b.Voter)
			}
			last = b.Voter

			publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			s.log.Debugw("Generating ballot", "voter", b.Voter, "option", b.OptionID)
			if err := s.eventPublisher.Publish(publishCtx, b); err != nil {
				s.log.Warnw("Failed to publish ballot", "err", err)
			}
			cancel()
		}
	}
}
