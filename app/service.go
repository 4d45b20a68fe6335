package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/homemind/api"
	"github.com/kilianp07/homemind/config"
	"github.com/kilianp07/homemind/core/actuator"
	"github.com/kilianp07/homemind/core/devicestatus"
	"github.com/kilianp07/homemind/core/dispatch"
	coremetrics "github.com/kilianp07/homemind/core/metrics"
	"github.com/kilianp07/homemind/core/monitor"
	coremon "github.com/kilianp07/homemind/core/monitoring"
	"github.com/kilianp07/homemind/core/telemetry"
	"github.com/kilianp07/homemind/core/topology"
	"github.com/kilianp07/homemind/infra/homeassistant"
	"github.com/kilianp07/homemind/infra/logger"
	"github.com/kilianp07/homemind/infra/metrics"
	"github.com/kilianp07/homemind/infra/monitoring"
	"github.com/kilianp07/homemind/infra/mqtt"
	"github.com/kilianp07/homemind/internal/eventbus"
)

// Service wires the robot components together. Background workers live
// until the context given to New is done.
type Service struct {
	Navigator *dispatch.Navigator
	Resolver  *topology.Resolver
	Telemetry *telemetry.HAReader
	Monitor   *monitor.Registry
	Actuators *actuator.Facade
	Tank      *actuator.Tank
	Store     *devicestatus.MemoryStore

	cfg     *config.Config
	bus     *eventbus.Bus
	sink    coremetrics.MetricsSink
	log     logger.Logger
	mqtt    *mqtt.PahoClient
	workers []<-chan struct{}
}

// New builds the service from cfg. ctx bounds the completion monitors and
// the event subscribers.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	client, err := homeassistant.NewClient(cfg.HomeAssistant, logger.New("homeassistant"))
	if err != nil {
		return nil, fmt.Errorf("home assistant client: %w", err)
	}
	resolver, err := topology.New(cfg.Topology)
	if err != nil {
		return nil, fmt.Errorf("topology: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	bus := eventbus.New()
	store := devicestatus.NewMemoryStore()
	reader := telemetry.NewReader(client, cfg.Robot)

	registry := monitor.NewRegistry(ctx, reader, cfg.Monitor,
		monitor.WithEventBus(bus),
		monitor.WithStore(store),
		monitor.WithLogger(logger.New("monitor")),
	)
	nav := dispatch.NewNavigator(cfg.Dispatch, cfg.Robot.VacuumEntity, resolver, client, reader, registry,
		dispatch.WithEventBus(bus),
		dispatch.WithStatusStore(store),
		dispatch.WithMetricsSink(sink),
		dispatch.WithLogger(logger.New("dispatch")),
	)
	facade, err := actuator.New(client, cfg.Actuators,
		actuator.WithMetricsSink(sink),
		actuator.WithLogger(logger.New("actuator")),
	)
	if err != nil {
		registry.Close()
		return nil, fmt.Errorf("actuators: %w", err)
	}

	s := &Service{
		Navigator: nav,
		Resolver:  resolver,
		Telemetry: reader,
		Monitor:   registry,
		Actuators: facade,
		Tank:      actuator.NewTank(client, cfg.Tank, logger.New("tank")),
		Store:     store,
		cfg:       cfg,
		bus:       bus,
		sink:      sink,
		log:       logg,
	}
	s.workers = append(s.workers, metrics.StartEventCollector(ctx, bus, sink, logger.New("metrics")))

	if cfg.MQTT.Enabled() {
		pc, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			registry.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.mqtt = pc
		pub := mqtt.NewEventPublisher(pc, cfg.MQTT.TopicPrefix, logger.New("mqtt"))
		s.workers = append(s.workers, pub.Start(ctx, bus))
	}
	return s, nil
}

// Run serves the HTTP API until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	srv := api.New(s.cfg.API.Listen, api.Deps{
		Navigator: s.Navigator,
		Telemetry: s.Telemetry,
		Actuators: s.Actuators,
		Tank:      s.Tank,
		Store:     s.Store,
		Sink:      s.sink,
		Gatherer:  prometheus.DefaultGatherer,
	}, logger.New("api"))
	return srv.Start(ctx)
}

// Close stops the monitors, drains the event subscribers and releases the
// outbound clients.
func (s *Service) Close() error {
	s.Monitor.Close()
	s.bus.Close()
	for _, done := range s.workers {
		<-done
	}
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	return nil
}
