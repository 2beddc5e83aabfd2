package store

import (
	"context"
	"slices"
	"sync"

	"github.com/couchcryptid/wx-observation-etl/internal/domain"
	"github.com/couchcryptid/wx-observation-etl/internal/observability"
	"github.com/couchcryptid/wx-observation-etl/internal/observation"
)

// Registry owns one Store per station, creating them on first use.
// It implements pipeline.BatchLoader.
type Registry struct {
	opts    Options
	metrics *observability.Metrics

	mu     sync.RWMutex
	stores map[string]*Store
}

// NewRegistry creates a registry whose stores share opts. metrics may be nil.
func NewRegistry(opts Options, metrics *observability.Metrics) *Registry {
	return &Registry{
		opts:    opts,
		metrics: metrics,
		stores:  make(map[string]*Store),
	}
}

// Get returns the store for station, creating it if needed.
func (r *Registry) Get(station string) *Store {
	r.mu.RLock()
	s, ok := r.stores[station]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[station]; ok {
		return s
	}
	s = New(station, r.opts)
	r.stores[station] = s
	return s
}

// Lookup returns the store for station without creating one.
func (r *Registry) Lookup(station string) (*Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[station]
	return s, ok
}

// Stations lists known stations in name order.
func (r *Registry) Stations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LoadBatch adds each observation to its station's store, replacing any
// entry with the same capture time so redelivered messages converge.
func (r *Registry) LoadBatch(_ context.Context, events []domain.ProcessedObservation) error {
	byStation := make(map[string][]observation.Observation)
	for _, e := range events {
		byStation[e.Station()] = append(byStation[e.Station()], e.Observation)
	}
	for station, entries := range byStation {
		s := r.Get(station)
		s.Add(entries, true)
		r.observeSize(s)
	}
	return nil
}

func (r *Registry) observeSize(s *Store) {
	if r.metrics == nil {
		return
	}
	r.metrics.StoreEntries.WithLabelValues(s.Station()).Set(float64(s.Len()))
}
