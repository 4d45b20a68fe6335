// Package api exposes the tool endpoints called by the assistant layer and a
// few read-only views of the robot.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/homemind/core/actuator"
	"github.com/kilianp07/homemind/core/devicestatus"
	"github.com/kilianp07/homemind/core/dispatch"
	"github.com/kilianp07/homemind/core/metrics"
	"github.com/kilianp07/homemind/core/model"
	"github.com/kilianp07/homemind/core/telemetry"
	"github.com/kilianp07/homemind/infra/logger"
)

// Navigator runs navigation requests.
type Navigator interface {
	DeviceID() string
	Navigate(ctx context.Context, input string) dispatch.Result
}

// Actuators drives the generic actuators.
type Actuators interface {
	List() []actuator.Config
	SetState(ctx context.Context, name, value string) model.ActuatorOutcome
	State(ctx context.Context, name string) model.ActuatorOutcome
}

// Tank answers the read-only aquarium queries.
type Tank interface {
	TemperatureMessage(ctx context.Context) (string, error)
	StatusMessage(ctx context.Context) (actuator.TankReport, string, error)
}

// Deps are the components served by the API. Actuators, Tank, Store, Sink
// and Gatherer are optional.
type Deps struct {
	Navigator Navigator
	Telemetry telemetry.Reader
	Actuators Actuators
	Tank      Tank
	Store     devicestatus.Store
	Sink      metrics.MetricsSink
	Gatherer  prometheus.Gatherer
}

// Server is the HTTP tool server.
type Server struct {
	listen    string
	deps      Deps
	log       logger.Logger
	startedAt time.Time
	server    *http.Server
}

// New creates a server listening on listen.
func New(listen string, deps Deps, log logger.Logger) *Server {
	if log == nil {
		log = logger.NopLogger{}
	}
	if deps.Sink == nil {
		deps.Sink = metrics.NopSink{}
	}
	return &Server{listen: listen, deps: deps, log: log, startedAt: time.Now()}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Post("/tools/navigate", s.handleNavigate)
		r.Get("/tools/actuators", s.handleListActuators)
		r.Get("/tools/actuators/{name}", s.handleGetActuator)
		r.Post("/tools/actuators/{name}", s.handleSetActuator)
		r.Get("/tools/tank/temperature", s.handleTankTemperature)
		r.Get("/tools/tank/status", s.handleTankStatus)
		r.Get("/robot/state", s.handleRobotState)
		r.Get("/robot/status", s.handleRobotStatus)
	})
	if s.deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.log.Infof("api server listening on %s", s.listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}
