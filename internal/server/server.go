// Package server wires the admin HTTP facade (component G), the
// persistent intent store, and the flow orchestrator into a single
// running process.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"flowmanager/pkg/cluster/etcd"
	"flowmanager/pkg/eventbus"
	"flowmanager/pkg/intent"
	"flowmanager/pkg/ofswitch"
	"flowmanager/pkg/orchestrator"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Config holds the flow-manager server configuration.
type Config struct {
	// HTTPAddr is the address the admin API listens on.
	HTTPAddr string `mapstructure:"http_addr"`

	// Etcd configures the persistent intent store's backing client.
	Etcd etcd.Config `mapstructure:"etcd"`

	// Orchestrator configures the flow controller.
	Orchestrator orchestrator.Config `mapstructure:"orchestrator"`
}

// DefaultConfig returns the default flow-manager server configuration.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:     ":8181",
		Etcd:         etcd.DefaultConfig(),
		Orchestrator: orchestrator.DefaultConfig(),
	}
}

// Server is the flow-manager control process: the admin HTTP facade
// backed by the orchestrator, the switch registry, the event bus, and
// the persistent intent store.
type Server struct {
	config Config
	logger *zap.Logger

	httpServer *http.Server

	etcdClient  *etcd.Client
	intentStore *intent.Store
	bus         *eventbus.InProcess
	switches    *ofswitch.Registry
	controller  *orchestrator.Controller

	mu      sync.Mutex
	running bool
}

// New creates a flow-manager server and wires its components (spec §4.F,
// §4.G): a switch registry, an in-process event bus, a persistence
// client backed by etcd, the flow orchestrator, and the HTTP admin
// facade mounted on top of it.
func New(config Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	etcdClient, err := etcd.New(config.Etcd, logger.Named("etcd"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	intentStore := intent.New(etcdClient, logger.Named("intent"))
	bus := eventbus.New()
	switches := ofswitch.NewRegistry()
	controller := orchestrator.New(logger.Named("orchestrator"), bus, switches, intentStore, config.Orchestrator)

	subscribeBusEvents(bus, controller, logger)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(zapRequestLogger(logger.Named("http")))

	NewFlowHandler(controller).Routes(router)

	s := &Server{
		config:      config,
		logger:      logger,
		etcdClient:  etcdClient,
		intentStore: intentStore,
		bus:         bus,
		switches:    switches,
		controller:  controller,
		httpServer: &http.Server{
			Addr:    config.HTTPAddr,
			Handler: router,
		},
	}

	return s, nil
}

// subscribeBusEvents wires the inbound bus contracts of spec §6 to the
// orchestrator: switch handshake replay, consistency reconciliation on
// flow_stats, OpenFlow error correlation, and the flows.install/delete
// event-request path (spec §4.F operations 3-6). Without this wiring
// those operations are only reachable from direct Go calls, never from
// the event bus the real OpenFlow ingress layer publishes on.
func subscribeBusEvents(bus *eventbus.InProcess, controller *orchestrator.Controller, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	bus.Subscribe(eventbus.TopicHandshakeCompleted, func(ev eventbus.Event) {
		sw, ok := ev.Content["switch"].(*ofswitch.Switch)
		if !ok {
			logger.Warn("handshake.completed event missing switch", zap.Any("content", ev.Content))
			return
		}
		controller.OnHandshakeCompleted(sw)
	})
	bus.Subscribe(eventbus.TopicFlowStatsReceived, func(ev eventbus.Event) {
		sw, ok := ev.Content["switch"].(*ofswitch.Switch)
		if !ok {
			logger.Warn("flow_stats.received event missing switch", zap.Any("content", ev.Content))
			return
		}
		controller.OnFlowStats(sw)
	})
	bus.Subscribe(eventbus.TopicOpenFlowError, func(ev eventbus.Event) {
		errEvent, ok := ev.Content["error"].(orchestrator.OpenFlowErrorEvent)
		if !ok {
			logger.Warn("ofpt_error event missing error payload", zap.Any("content", ev.Content))
			return
		}
		controller.OnOpenFlowError(errEvent)
	})
	bus.Subscribe(eventbus.TopicFlowsInstall, func(ev eventbus.Event) {
		req, ok := ev.Content["request"].(orchestrator.FlowEventRequest)
		if !ok {
			logger.Warn("flows.install event missing request payload", zap.Any("content", ev.Content))
			return
		}
		if err := controller.OnEventRequest(eventbus.TopicFlowsInstall, req); err != nil {
			logger.Error("failed to process flows.install event", zap.Error(err))
		}
	})
	bus.Subscribe(eventbus.TopicFlowsDelete, func(ev eventbus.Event) {
		req, ok := ev.Content["request"].(orchestrator.FlowEventRequest)
		if !ok {
			logger.Warn("flows.delete event missing request payload", zap.Any("content", ev.Content))
			return
		}
		if err := controller.OnEventRequest(eventbus.TopicFlowsDelete, req); err != nil {
			logger.Error("failed to process flows.delete event", zap.Error(err))
		}
	})
}

// Switches returns the switch registry, exposed so the OpenFlow ingress
// layer (an external collaborator) can register and update switches.
func (s *Server) Switches() *ofswitch.Registry { return s.switches }

// Bus returns the event bus, exposed so the OpenFlow ingress layer can
// publish inbound handshake/stats/error events and subscribe to
// outbound FlowMod and notification events.
func (s *Server) Bus() *eventbus.InProcess { return s.bus }

// Controller returns the flow orchestrator, exposed for callers that
// invoke its operations directly; New already wires the inbound bus
// subscriptions to it.
func (s *Server) Controller() *orchestrator.Controller { return s.controller }

// Start loads stored intent and starts the HTTP admin facade.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	s.controller.LoadIntent(func() (intent.Map, error) {
		loadCtx, cancel := context.WithTimeout(ctx, intent.BoxRestoreAttempts*intent.BoxRestoreTimer*2)
		defer cancel()
		return s.intentStore.GetData(loadCtx)
	})

	s.logger.Info("starting admin HTTP facade", zap.String("addr", s.config.HTTPAddr))

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server and closes the etcd client.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("error shutting down HTTP server", zap.Error(err))
	}

	s.etcdClient.Close()

	s.logger.Info("server stopped")
	return nil
}

func zapRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
