package store

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/couchcryptid/wx-observation-etl/internal/observability"
)

// Maintainer periodically exports today's and yesterday's files for every
// store in a registry and trims expired observations.
type Maintainer struct {
	registry  *Registry
	scheduler *gocron.Scheduler
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewMaintainer creates a Maintainer running every interval. metrics may be nil.
func NewMaintainer(registry *Registry, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Maintainer {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Maintainer{
		registry:  registry,
		scheduler: s,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start schedules the maintenance job and returns immediately. The first run
// happens right away.
func (m *Maintainer) Start() error {
	if _, err := m.scheduler.Every(m.interval).Do(m.RunOnce); err != nil {
		return err
	}
	m.scheduler.StartAsync()
	m.logger.Info("store maintenance started", "interval", m.interval)
	return nil
}

// Stop halts the scheduler and runs a final pass so recent observations
// reach disk.
func (m *Maintainer) Stop() {
	m.scheduler.Stop()
	m.RunOnce()
	m.logger.Info("store maintenance stopped")
}

// RunOnce exports and trims every store. Errors are logged per station and do
// not stop the pass.
func (m *Maintainer) RunOnce() {
	for _, station := range m.registry.Stations() {
		s, ok := m.registry.Lookup(station)
		if !ok {
			continue
		}
		today := s.opts.Clock.Now()
		res, err := s.FullUpdate(nil, false, today)
		if err != nil {
			m.logger.Error("store export failed", "station", station, "error", err)
			m.countExport("error")
			continue
		}
		for range res.Exports {
			m.countExport("success")
		}
		if res.Trimmed > 0 {
			m.logger.Debug("store trimmed", "station", station, "removed", res.Trimmed)
		}
		if m.metrics != nil {
			m.metrics.Trimmed.Add(float64(res.Trimmed))
			m.metrics.StoreEntries.WithLabelValues(station).Set(float64(s.Len()))
		}
	}
}

func (m *Maintainer) countExport(outcome string) {
	if m.metrics != nil {
		m.metrics.Exports.WithLabelValues(outcome).Inc()
	}
}
