package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/ptgbot/core/metrics"
)

// PromSink records bot activity in Prometheus metrics.
type PromSink struct {
	commands *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	persist  *prometheus.HistogramVec
	failures *prometheus.CounterVec
	tracks   prometheus.Gauge
	bookings prometheus.Gauge
	live     prometheus.Gauge
}

// NewPromSink registers the bot metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptgbot_commands_total",
			Help: "Total number of handled chat commands",
		}, []string{"kind", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ptgbot_command_duration_seconds",
			Help:    "Time spent handling a chat command, replies included",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		persist: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ptgbot_persist_duration_seconds",
			Help:    "Time spent saving the schedule, retries included",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"op"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptgbot_persist_failures_total",
			Help: "Schedule saves that failed after all retries",
		}, []string{"op"}),
		tracks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ptgbot_tracks",
			Help: "Number of registered tracks",
		}),
		bookings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ptgbot_bookings",
			Help: "Number of booked room slots",
		}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ptgbot_live_tracks",
			Help: "Number of tracks with a current session",
		}),
	}
	var err error
	if s.commands, err = register(reg, s.commands); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	if s.persist, err = register(reg, s.persist); err != nil {
		return nil, err
	}
	if s.failures, err = register(reg, s.failures); err != nil {
		return nil, err
	}
	if s.tracks, err = register(reg, s.tracks); err != nil {
		return nil, err
	}
	if s.bookings, err = register(reg, s.bookings); err != nil {
		return nil, err
	}
	if s.live, err = register(reg, s.live); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the already registered collector when c was registered
// before, so several sinks can share the default registerer.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordCommand counts the command and observes its handling time.
func (s *PromSink) RecordCommand(ev coremetrics.CommandEvent) error {
	kind := ev.Kind
	if kind == "" {
		kind = "none"
	}
	s.commands.WithLabelValues(kind, ev.Outcome).Inc()
	s.latency.WithLabelValues(kind).Observe(ev.Duration.Seconds())
	return nil
}

// RecordPersist observes a schedule save.
func (s *PromSink) RecordPersist(ev coremetrics.PersistEvent) error {
	s.persist.WithLabelValues(ev.Op).Observe(ev.Duration.Seconds())
	if ev.Err != nil {
		s.failures.WithLabelValues(ev.Op).Inc()
	}
	return nil
}

// RecordSchedule sets the schedule gauges.
func (s *PromSink) RecordSchedule(ev coremetrics.ScheduleEvent) error {
	s.tracks.Set(float64(ev.Tracks))
	s.bookings.Set(float64(ev.Bookings))
	s.live.Set(float64(ev.Now))
	return nil
}
