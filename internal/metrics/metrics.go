package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

/*
Metrics Types:

- CounterVec: A counter with labels. Tracks accepted votes per option
  and rejected votes per reason (invalid_option, duplicate, closed).

- Gauge: The current voting window, 1 while open and 0 while closed.

- Histogram: Distribution of ballot processing time on the stream
  consumer, so we can read percentiles and not just the average.

Registration:
Collectors are registered against the Registerer handed to the
constructor. Production code passes prometheus.DefaultRegisterer, tests
pass a fresh prometheus.NewRegistry() so constructors can run repeatedly.
*/

// Rejection reasons used as the "reason" label of VotesRejected.
const (
	ReasonInvalidOption = "invalid_option"
	ReasonDuplicate     = "duplicate"
	ReasonClosed        = "closed"
)

type RegistryMetrics struct {
	VotesAccepted *prometheus.CounterVec
	VotesRejected *prometheus.CounterVec
	VotingOpen    prometheus.Gauge
}

func NewRegistryMetrics(reg prometheus.Registerer, namespace string) *RegistryMetrics {
	factory := promauto.With(reg)
	return &RegistryMetrics{
		VotesAccepted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "votes_accepted_total",
				Help:      "Total number of votes counted, per option",
			},
			[]string{"option_id"},
		),
		VotesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "votes_rejected_total",
				Help:      "Total number of votes rejected, per reason",
			},
			[]string{"reason"},
		),
		VotingOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "voting_open",
				Help:      "1 while the voting window is open",
			},
		),
	}
}

type ProcessorMetrics struct {
	BallotsRead    prometheus.Counter
	ProcessingTime prometheus.Histogram
}

func NewProcessorMetrics(reg prometheus.Registerer, namespace string) *ProcessorMetrics {
	factory := promauto.With(reg)
	return &ProcessorMetrics{
		BallotsRead: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "processor",
				Name:      "ballots_read_total",
				Help:      "Total number of ballots read from the stream",
			},
		),
		ProcessingTime: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "processor",
				Name:      "ballot_processing_time_seconds",
				Help:      "Histogram of ballot processing times",
				Buckets:   prometheus.LinearBuckets(0.001, 0.001, 10), // 10 buckets, 1ms to 10ms
			},
		),
	}
}
