// Package app wires the schedule store, the command dispatcher and the
// chat transport into a running bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apischedule "github.com/kilianp07/ptgbot/api/schedule"
	"github.com/kilianp07/ptgbot/config"
	"github.com/kilianp07/ptgbot/core/chat"
	"github.com/kilianp07/ptgbot/core/dispatch"
	"github.com/kilianp07/ptgbot/core/dispatch/logging"
	coremetrics "github.com/kilianp07/ptgbot/core/metrics"
	coremon "github.com/kilianp07/ptgbot/core/monitoring"
	"github.com/kilianp07/ptgbot/core/schedule"
	"github.com/kilianp07/ptgbot/infra/logger"
	"github.com/kilianp07/ptgbot/infra/metrics"
	"github.com/kilianp07/ptgbot/infra/monitoring"
	"github.com/kilianp07/ptgbot/infra/mqtt"
	"github.com/kilianp07/ptgbot/internal/eventbus"
)

// Transport carries channel traffic. *mqtt.Bridge implements it.
type Transport interface {
	chat.Replier
	chat.PrivilegeSource
	Run(ctx context.Context, h chat.Handler) error
	PublishSchedule(snap schedule.Snapshot) error
	Disconnect()
}

// Options adjusts how New builds the service.
type Options struct {
	// ConfigPath is re-read by ~reload. Empty reuses the loaded grid.
	ConfigPath string
	// Transport replaces the MQTT bridge built from cfg.Transport.
	Transport Transport
}

// Service owns the bot components.
type Service struct {
	Store      *schedule.Store
	Dispatcher *dispatch.Dispatcher

	transport Transport
	bus       *eventbus.Bus[schedule.Change]
	audit     logging.LogStore
	sink      coremetrics.MetricsSink
	cfg       *config.Config
	log       logger.Logger
}

// New creates a Service from the configuration. A *schedule.ConfigError
// is returned as is when the configured grid is inconsistent.
func New(cfg *config.Config, opts Options) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sink, err := newSink(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	backend, err := schedule.NewFileBackend(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("schedule storage: %w", err)
	}
	bus := eventbus.New[schedule.Change]()
	storeOpts := schedule.Options{
		Backend: backend,
		Retries: cfg.Storage.Retries(),
		Backoff: cfg.Storage.Backoff(),
		Logger:  logger.New("schedule"),
		Changes: bus,
	}
	if rec, ok := sink.(coremetrics.PersistRecorder); ok {
		storeOpts.Metrics = rec
	}
	store := schedule.New(storeOpts)
	if err := store.Initialize(cfg.Schedule.Grid()); err != nil {
		return nil, err
	}

	var audit logging.LogStore
	if cfg.Audit.Enabled {
		audit, err = logging.New(logging.Options{
			Backend:    cfg.Audit.Backend,
			Path:       cfg.Audit.Path,
			MaxSizeMB:  cfg.Audit.MaxSizeMB,
			MaxBackups: cfg.Audit.MaxBackups,
			MaxAgeDays: cfg.Audit.MaxAgeDays,
		})
		if err != nil {
			return nil, fmt.Errorf("audit log: %w", err)
		}
	}

	transport := opts.Transport
	if transport == nil {
		bridge, err := mqtt.NewBridge(cfg.Transport)
		if err != nil {
			closeAudit(audit)
			return nil, fmt.Errorf("mqtt bridge: %w", err)
		}
		transport = bridge
	}

	d, err := dispatch.NewDispatcher(cfg.Bot, store, transport, transport, logger.New("dispatch"))
	if err != nil {
		closeAudit(audit)
		return nil, fmt.Errorf("dispatcher: %w", err)
	}
	d.SetMetrics(sink)
	if audit != nil {
		d.SetLogStore(audit)
	}
	d.SetGridSource(gridSource(cfg, opts.ConfigPath))

	return &Service{
		Store:      store,
		Dispatcher: d,
		transport:  transport,
		bus:        bus,
		audit:      audit,
		sink:       sink,
		cfg:        cfg,
		log:        logg,
	}, nil
}

func newSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	var sinks []coremetrics.MetricsSink
	if cfg.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg))
	}
	return coremetrics.Combine(sinks...), nil
}

// gridSource re-reads the configuration file so ~reload picks up edits.
func gridSource(cfg *config.Config, path string) dispatch.GridSource {
	if path == "" {
		return func() (schedule.Grid, error) { return cfg.Schedule.Grid(), nil }
	}
	return func() (schedule.Grid, error) {
		fresh, err := config.Load(path)
		if err != nil {
			return schedule.Grid{}, err
		}
		return fresh.Schedule.Grid(), nil
	}
}

// Handle processes a single message as if it came from the transport.
func (s *Service) Handle(ctx context.Context, ev chat.Event) {
	s.Dispatcher.Handle(ctx, ev)
}

// Run starts the background publishers and servers, then handles channel
// messages until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	changes, unsubscribe := s.bus.Subscribe(4)
	defer unsubscribe()
	s.publish("initialize", s.Store.Snapshot())
	go func() {
		for ch := range changes {
			s.publish(ch.Op, ch.Snapshot)
		}
	}()

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.API.Enabled {
		go func() {
			if err := s.serveAPI(ctx); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}

	s.log.Infof("handling commands on %s", s.cfg.Bot.Channel)
	err := s.transport.Run(ctx, s.Dispatcher.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// publish pushes the schedule to the transport and the metrics sink.
func (s *Service) publish(op string, snap schedule.Snapshot) {
	if err := s.transport.PublishSchedule(snap); err != nil {
		s.log.Errorf("publish schedule after %s: %v", op, err)
	}
	rec, ok := s.sink.(coremetrics.ScheduleRecorder)
	if !ok {
		return
	}
	queued := 0
	for _, sessions := range snap.Next {
		queued += len(sessions)
	}
	if err := rec.RecordSchedule(coremetrics.ScheduleEvent{
		Op:       op,
		Tracks:   len(snap.Tracks),
		Bookings: len(snap.Bookings()),
		Now:      len(snap.Now),
		Next:     queued,
		Time:     time.Now(),
	}); err != nil {
		s.log.Warnf("record schedule metric: %v", err)
	}
}

func (s *Service) serveAPI(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.API.Address,
		Handler:           apischedule.NewMux(s.Store, s.audit, s.cfg.API.Token),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api server shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.transport.Disconnect()
	s.bus.Close()
	coremon.Flush(2 * time.Second)
	if s.audit != nil {
		return s.audit.Close()
	}
	return nil
}

func closeAudit(audit logging.LogStore) {
	if audit != nil {
		_ = audit.Close()
	}
}
