package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Guizzs26/voting_registry/internal/config"
	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/Guizzs26/voting_registry/internal/node"
	"github.com/spf13/cobra"
)

const (
	configF         = "config"
	logLevelF       = "log-level"
	metricsF        = "metrics"
	metricsHostF    = "metrics-host"
	metricsPortF    = "metrics-port"
	storeF          = "store"
	redisURLF       = "redis-url"
	redisPrefixF    = "redis-prefix"
	pebblePathF     = "pebble-path"
	kafkaBrokersF   = "kafka-brokers"
	kafkaTopicF     = "kafka-topic"
	kafkaGroupF     = "kafka-group"
	reportIntervalF = "report-interval"
	enforceF        = "enforce-voting-window"
)

// The consumer applies the ballot stream to a shared store without serving
// the HTTP API. Point it at the same redis instance as the registry nodes.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var cfgFile string
	defaults := config.Default()
	logLevel := defaults.LogLevel

	cmd := &cobra.Command{
		Use:   "consumer [flags]",
		Short: "Applies ballots from Kafka to the voting registry store.",
	}
	cmd.Flags().StringVar(&cfgFile, configF, "", "The yaml configuration file.")
	cmd.Flags().Var(&logLevel, logLevelF, "Options: debug, info, warn, error.")
	cmd.Flags().Bool(metricsF, defaults.Metrics, "Enables the prometheus metrics endpoint.")
	cmd.Flags().String(metricsHostF, defaults.MetricsHost, "The interface on which the metrics server listens.")
	cmd.Flags().Uint16(metricsPortF, defaults.MetricsPort, "The port on which the metrics server listens.")
	cmd.Flags().String(storeF, config.StoreRedis, "State backend shared with the registry nodes. Options: redis, pebble.")
	cmd.Flags().String(redisURLF, defaults.RedisURL, "Redis URL for the redis store.")
	cmd.Flags().String(redisPrefixF, defaults.RedisPrefix, "Key prefix for the redis store.")
	cmd.Flags().String(pebblePathF, defaults.PebblePath, "Directory of the pebble store.")
	cmd.Flags().StringSlice(kafkaBrokersF, defaults.KafkaBrokers, "Kafka brokers.")
	cmd.Flags().String(kafkaTopicF, defaults.KafkaTopic, "Kafka topic carrying ballots.")
	cmd.Flags().String(kafkaGroupF, defaults.KafkaGroupID, "Kafka consumer group.")
	cmd.Flags().Duration(reportIntervalF, defaults.ReportInterval, "How often the results are logged.")
	cmd.Flags().Bool(enforceF, defaults.EnforceVotingWindow, "Reject ballots while voting is closed.")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		v, err := config.NewViper(cfgFile)
		if err != nil {
			return err
		}
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}

		logger, err := log.NewZapLogger(cfg.LogLevel, cfg.Colour)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		logger.Infow("Starting consumer", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroupID, "store", cfg.Store)
		n, err := node.NewConsumer(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		if err := n.Run(cmd.Context()); err != nil {
			return err
		}
		logger.Infow("Consumer terminated")
		return nil
	}
	return cmd
}
