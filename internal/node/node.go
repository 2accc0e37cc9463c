// Package node assembles the registry service from its configuration: state
// backend, registry, tally hub, HTTP API, metrics endpoint and, optionally,
// the Kafka ballot processor. NewConsumer builds the headless variant that
// only applies ballots.
package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/Guizzs26/voting_registry/internal/api"
	"github.com/Guizzs26/voting_registry/internal/config"
	"github.com/Guizzs26/voting_registry/internal/event"
	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/Guizzs26/voting_registry/internal/metrics"
	"github.com/Guizzs26/voting_registry/internal/processing"
	"github.com/Guizzs26/voting_registry/internal/pubsub"
	"github.com/Guizzs26/voting_registry/internal/registry"
	"github.com/Guizzs26/voting_registry/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sourcegraph/conc"
)

const metricsNamespace = "voting"

type service interface {
	Run(ctx context.Context) error
}

type namedService struct {
	name string
	service
}

type Node struct {
	cfg      *config.Config
	log      *log.ZapLogger
	store    store.RegistryStore
	registry *registry.VotingRegistry
	hub      *pubsub.Hub

	apiAddr     net.Addr
	metricsAddr net.Addr
	services    []namedService
	closers     []func() error
}

// NewStore opens the backend selected by cfg.Store.
func NewStore(ctx context.Context, cfg *config.Config, logger *log.ZapLogger) (store.RegistryStore, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreRedis:
		return store.NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case config.StorePebble:
		return store.NewPebbleStore(cfg.PebblePath, logger)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// RegistryOpts translates cfg into registry options.
func RegistryOpts(cfg *config.Config, logger log.SimpleLogger, m *metrics.RegistryMetrics) []registry.Opt {
	opts := []registry.Opt{registry.WithLogger(logger), registry.WithMetrics(m)}
	if cfg.EnforceVotingWindow {
		opts = append(opts, registry.WithVotingWindow())
	}
	return opts
}

func New(ctx context.Context, cfg *config.Config, logger *log.ZapLogger) (*Node, error) {
	n, reg, err := newNode(ctx, cfg, logger, true)
	if err != nil {
		return nil, err
	}

	apiListener, err := net.Listen("tcp", net.JoinHostPort(cfg.HTTPHost, strconv.Itoa(int(cfg.HTTPPort))))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("listen api: %w", err), n.close())
	}
	n.closers = append(n.closers, ignoreClosed(apiListener.Close))
	n.apiAddr = apiListener.Addr()
	app := &api.App{Registry: n.registry, Log: logger}
	n.services = append(n.services, namedService{"api", makeHTTP(apiListener, app.Router(n.hub, cfg.CORSOrigins))})

	if err := n.addMetrics(reg); err != nil {
		return nil, errors.Join(err, n.close())
	}
	if cfg.Consume {
		if err := n.addProcessor(reg); err != nil {
			return nil, errors.Join(err, n.close())
		}
	}
	return n, nil
}

// NewConsumer assembles a headless node: the Kafka ballot processor and, when
// enabled, the metrics endpoint. The store must outlive the process so the
// API nodes can read what the consumer applied.
func NewConsumer(ctx context.Context, cfg *config.Config, logger *log.ZapLogger) (*Node, error) {
	if cfg.Store == config.StoreMemory {
		return nil, fmt.Errorf("consumer needs a persistent store, got %q", cfg.Store)
	}

	n, reg, err := newNode(ctx, cfg, logger, false)
	if err != nil {
		return nil, err
	}
	if err := n.addMetrics(reg); err != nil {
		return nil, errors.Join(err, n.close())
	}
	if err := n.addProcessor(reg); err != nil {
		return nil, errors.Join(err, n.close())
	}
	return n, nil
}

func newNode(ctx context.Context, cfg *config.Config, logger *log.ZapLogger,
	withHub bool,
) (*Node, *prometheus.Registry, error) {
	n := &Node{cfg: cfg, log: logger}

	s, err := NewStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	n.store = s
	n.closers = append(n.closers, s.Close)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := RegistryOpts(cfg, logger, metrics.NewRegistryMetrics(reg, metricsNamespace))
	if withHub {
		n.hub = pubsub.NewHub(cfg.CORSOrigins, logger)
		opts = append(opts, registry.WithNotifier(n.hub))
	}
	n.registry = registry.New(s, opts...)
	return n, reg, nil
}

func (n *Node) addMetrics(reg *prometheus.Registry) error {
	if !n.cfg.Metrics {
		return nil
	}
	l, err := net.Listen("tcp", net.JoinHostPort(n.cfg.MetricsHost, strconv.Itoa(int(n.cfg.MetricsPort))))
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}
	n.closers = append(n.closers, ignoreClosed(l.Close))
	n.metricsAddr = l.Addr()
	n.services = append(n.services, namedService{"metrics", makeMetrics(l, reg)})
	return nil
}

func (n *Node) addProcessor(reg *prometheus.Registry) error {
	consumer, err := event.NewKafkaConsumer(n.cfg.KafkaBrokers, n.cfg.KafkaTopic, n.cfg.KafkaGroupID, n.log)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	n.closers = append(n.closers, consumer.Close)
	p := processing.NewBallotProcessor(consumer, n.registry,
		metrics.NewProcessorMetrics(reg, metricsNamespace), n.log, n.cfg.ReportInterval)
	n.services = append(n.services, namedService{"processor", p})
	return nil
}

// ignoreClosed wraps a listener's Close: the HTTP server closes it first on
// shutdown.
func ignoreClosed(closeFn func() error) func() error {
	return func() error {
		if err := closeFn(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	}
}

func (n *Node) Registry() *registry.VotingRegistry {
	return n.registry
}

// APIAddr is the address the HTTP API listens on.
func (n *Node) APIAddr() net.Addr {
	return n.apiAddr
}

// MetricsAddr is the address of the metrics endpoint, nil when disabled.
func (n *Node) MetricsAddr() net.Addr {
	return n.metricsAddr
}

// Run starts every service and blocks until ctx is cancelled or a service
// fails, in which case the others are stopped and the first error returned.
func (n *Node) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       conc.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)

	if n.hub != nil {
		wg.Go(func() { n.hub.Run(ctx) })
	}
	for _, s := range n.services {
		wg.Go(func() {
			n.log.Infow("Starting service", "service", s.name)
			if err := s.Run(ctx); err != nil {
				n.log.Errorw("Service stopped with error", "service", s.name, "err", err)
				errMu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", s.name, err)
				}
				errMu.Unlock()
				cancel()
			}
		})
	}
	if n.apiAddr != nil {
		n.log.Infow("Voting registry started", "api", n.apiAddr.String(), "store", n.cfg.Store)
	} else {
		n.log.Infow("Voting registry consumer started", "topic", n.cfg.KafkaTopic, "store", n.cfg.Store)
	}
	wg.Wait()

	if err := n.close(); err != nil {
		n.log.Errorw("Error while closing node", "err", err)
	}
	n.log.Infow("Voting registry stopped")
	return firstErr
}

func (n *Node) close() error {
	var errs []error
	for i := len(n.closers) - 1; i >= 0; i-- {
		errs = append(errs, n.closers[i]())
	}
	n.closers = nil
	return errors.Join(errs...)
}
