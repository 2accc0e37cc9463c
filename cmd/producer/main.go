package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Guizzs26/voting_registry/internal/event"
	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/Guizzs26/voting_registry/internal/simulation"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var (
		brokers  []string
		topic    string
		options  []uint
		simCfg   simulation.Config
		logLevel = log.INFO
	)

	cmd := &cobra.Command{
		Use:   "producer [flags]",
		Short: "Publishes simulated ballots, including duplicates and invalid options.",
	}
	cmd.Flags().StringSliceVar(&brokers, "kafka-brokers", []string{"localhost:9092"}, "Kafka brokers.")
	cmd.Flags().StringVar(&topic, "kafka-topic", "ballots", "Kafka topic carrying ballots.")
	cmd.Flags().UintSliceVar(&options, "options", []uint{1, 2, 3}, "Registered option ids to vote for.")
	cmd.Flags().DurationVar(&simCfg.Interval, "interval", 500*time.Millisecond, "Time between ballots.")
	cmd.Flags().IntVar(&simCfg.DuplicateEvery, "duplicate-every", 5, "Replay the previous voter every N ballots (0 disables).")
	cmd.Flags().IntVar(&simCfg.InvalidEvery, "invalid-every", 7, "Vote for an unregistered option every N ballots (0 disables).")
	cmd.Flags().Uint64Var(&simCfg.Seed, "seed", uint64(time.Now().UnixNano()), "Random seed.")
	cmd.Flags().Var(&logLevel, "log-level", "Options: debug, info, warn, error.")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		logger, err := log.NewZapLogger(logLevel, true)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		for _, id := range options {
			simCfg.OptionIDs = append(simCfg.OptionIDs, uint64(id))
		}

		kp, err := event.NewKafkaPublisher(brokers, topic)
		if err != nil {
			return fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		defer kp.Close()

		logger.Infow("Producer is running. Press Ctrl+C to exit", "topic", topic)
		if err := simulation.New(kp, simCfg, logger).Run(cmd.Context()); err != nil {
			return err
		}
		logger.Infow("Producer terminated")
		return nil
	}
	return cmd
}
