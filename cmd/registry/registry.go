package main

import (
	"github.com/Guizzs26/voting_registry/internal/config"
	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/Guizzs26/voting_registry/internal/node"
	"github.com/spf13/cobra"
)

var Version string

const (
	configF              = "config"
	logLevelF            = "log-level"
	colourF              = "colour"
	httpHostF            = "http-host"
	httpPortF            = "http-port"
	corsOriginsF         = "cors-origins"
	metricsF             = "metrics"
	metricsHostF         = "metrics-host"
	metricsPortF         = "metrics-port"
	storeF               = "store"
	redisURLF            = "redis-url"
	redisPrefixF         = "redis-prefix"
	pebblePathF          = "pebble-path"
	consumeF             = "consume"
	kafkaBrokersF        = "kafka-brokers"
	kafkaTopicF          = "kafka-topic"
	kafkaGroupF          = "kafka-group"
	reportIntervalF      = "report-interval"
	enforceVotingWindowF = "enforce-voting-window"

	configFlagUsage   = "The yaml configuration file."
	logLevelFlagUsage = "Options: debug, info, warn, error."
	storeUsage        = "State backend. Options: memory, redis, pebble."
	consumeUsage      = "Apply ballots from the Kafka topic to the registry."
	enforceUsage      = "Reject votes while voting is closed."
)

func NewCmd() *cobra.Command {
	var cfgFile string
	defaults := config.Default()
	logLevel := defaults.LogLevel

	cmd := &cobra.Command{
		Use:     "registry [flags]",
		Short:   "Voting registry: options, one vote per address, live tallies.",
		Version: Version,
	}

	cmd.Flags().StringVar(&cfgFile, configF, "", configFlagUsage)
	cmd.Flags().Var(&logLevel, logLevelF, logLevelFlagUsage)
	cmd.Flags().Bool(colourF, defaults.Colour, "Use `--colour=false` for plain log output.")
	cmd.Flags().String(httpHostF, defaults.HTTPHost, "The interface on which the HTTP API listens.")
	cmd.Flags().Uint16(httpPortF, defaults.HTTPPort, "The port on which the HTTP API listens.")
	cmd.Flags().StringSlice(corsOriginsF, defaults.CORSOrigins, "Origins allowed to call the API and open websockets.")
	cmd.Flags().Bool(metricsF, defaults.Metrics, "Enables the prometheus metrics endpoint.")
	cmd.Flags().String(metricsHostF, defaults.MetricsHost, "The interface on which the metrics server listens.")
	cmd.Flags().Uint16(metricsPortF, defaults.MetricsPort, "The port on which the metrics server listens.")
	cmd.Flags().String(storeF, defaults.Store, storeUsage)
	cmd.Flags().String(redisURLF, defaults.RedisURL, "Redis URL for the redis store.")
	cmd.Flags().String(redisPrefixF, defaults.RedisPrefix, "Key prefix for the redis store.")
	cmd.Flags().String(pebblePathF, defaults.PebblePath, "Directory of the pebble store.")
	cmd.Flags().Bool(consumeF, defaults.Consume, consumeUsage)
	cmd.Flags().StringSlice(kafkaBrokersF, defaults.KafkaBrokers, "Kafka brokers.")
	cmd.Flags().String(kafkaTopicF, defaults.KafkaTopic, "Kafka topic carrying ballots.")
	cmd.Flags().String(kafkaGroupF, defaults.KafkaGroupID, "Kafka consumer group.")
	cmd.Flags().Duration(reportIntervalF, defaults.ReportInterval, "How often the processor logs the results.")
	cmd.Flags().Bool(enforceVotingWindowF, defaults.EnforceVotingWindow, enforceUsage)

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

		n, err := node.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		return n.Run(cmd.Context())
	}

	return cmd
}
