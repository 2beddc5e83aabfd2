// Package store keeps a short in-memory history of observations per station
// and exports it as daily JSON files of projections.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wx-observation-etl/internal/observability"
	"github.com/couchcryptid/wx-observation-etl/internal/observation"
	"github.com/couchcryptid/wx-observation-etl/internal/projection"
)

// DefaultRetention is how long Trim keeps observations.
const DefaultRetention = 48 * time.Hour

const dayLayout = "2006-01-02"

// ErrUnsafeStation is returned by Export when the station name cannot be used
// as part of a file name inside Dir.
var ErrUnsafeStation = errors.New("station name is not a safe file name")

// Options configure a Store. Zero values select the defaults.
type Options struct {
	Dir         string
	Preferences projection.UnitPreferences
	Retention   time.Duration
	Clock       clockwork.Clock
	Cache       *projection.Cache
	Metrics     *observability.Metrics
}

// Store is one station's observations keyed by capture instant. It is safe
// for concurrent use.
type Store struct {
	station string
	opts    Options

	mu   sync.Mutex
	data map[time.Time]observation.Observation
}

// New creates an empty store for station.
func New(station string, opts Options) *Store {
	if opts.Dir == "" {
		opts.Dir = "data"
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Store{
		station: station,
		opts:    opts,
		data:    make(map[time.Time]observation.Observation),
	}
}

func (s *Store) Station() string { return s.station }

// Add inserts each observation under its capture time. Existing entries are
// kept unless replace is set. It returns how many entries were written.
func (s *Store) Add(entries []observation.Observation, replace bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	written := 0
	for _, o := range entries {
		key := o.Time().UTC()
		old, exists := s.data[key]
		if exists && !replace {
			continue
		}
		if exists && s.opts.Cache != nil {
			s.opts.Cache.Forget(old, s.opts.Preferences)
		}
		s.data[key] = o
		written++
	}
	return written
}

// Len reports the number of stored observations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Latest returns the most recent observation.
func (s *Store) Latest() (observation.Observation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		latest observation.Observation
		at     time.Time
	)
	for t, o := range s.data {
		if latest == nil || t.After(at) {
			latest, at = o, t
		}
	}
	return latest, latest != nil
}

// Day returns the observations captured on date's UTC calendar day, oldest
// first.
func (s *Store) Day(date time.Time) []observation.Observation {
	start := startOfDay(date)
	end := start.AddDate(0, 0, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []observation.Observation
	for _, t := range slices.SortedFunc(maps.Keys(s.data), time.Time.Compare) {
		if !t.Before(start) && t.Before(end) {
			out = append(out, s.data[t])
		}
	}
	return out
}

// ExportPath is the file Export writes for date.
func (s *Store) ExportPath(date time.Time) string {
	return filepath.Join(s.opts.Dir, fmt.Sprintf("%s_%s.json", s.station, startOfDay(date).Format(dayLayout)))
}

// Export writes the projections of date's observations to ExportPath as a
// JSON object keyed by RFC 3339 capture time. A day with no observations
// still produces an empty object. The file is replaced atomically.
func (s *Store) Export(date time.Time) (string, error) {
	if !safeStationName(s.station) {
		return "", fmt.Errorf("export %q: %w", s.station, ErrUnsafeStation)
	}
	doc, err := s.DayProjections(date)
	if err != nil {
		return "", fmt.Errorf("export %s: %w", s.station, err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("export %s: %w", s.station, err)
	}
	path := s.ExportPath(date)
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("export %s: %w", s.station, err)
	}
	return path, nil
}

func safeStationName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "/\\\x00") && !strings.Contains(name, "..")
}

// DayProjections projects date's observations, keyed by RFC 3339 capture
// time.
func (s *Store) DayProjections(date time.Time) (map[string]*projection.Projection, error) {
	day := s.Day(date)
	doc := make(map[string]*projection.Projection, len(day))
	for _, o := range day {
		p, err := s.project(o)
		if err != nil {
			return nil, err
		}
		doc[o.Time().UTC().Format(time.RFC3339)] = p
	}
	return doc, nil
}

// LatestProjection projects the most recent observation. ok is false when
// the store is empty.
func (s *Store) LatestProjection() (p *projection.Projection, ok bool, err error) {
	o, ok := s.Latest()
	if !ok {
		return nil, false, nil
	}
	p, err = s.project(o)
	return p, err == nil, err
}

func (s *Store) project(o observation.Observation) (*projection.Projection, error) {
	if s.opts.Cache == nil {
		return projection.Project(o, s.opts.Preferences)
	}
	p, hit, err := s.opts.Cache.Project(o, s.opts.Preferences)
	if s.opts.Metrics != nil && err == nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		s.opts.Metrics.ProjectionCache.WithLabelValues(result).Inc()
	}
	return p, err
}

// Trim drops observations older than the retention window and returns how
// many were removed.
func (s *Store) Trim() int {
	cutoff := s.opts.Clock.Now().Add(-s.opts.Retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for t, o := range s.data {
		if t.Before(cutoff) {
			if s.opts.Cache != nil {
				s.opts.Cache.Forget(o, s.opts.Preferences)
			}
			delete(s.data, t)
			removed++
		}
	}
	return removed
}

// UpdateResult reports what FullUpdate did.
type UpdateResult struct {
	Added   int
	Exports []string
	Trimmed int
}

// FullUpdate adds entries, exports date and the day before, then trims.
func (s *Store) FullUpdate(entries []observation.Observation, replace bool, date time.Time) (UpdateResult, error) {
	res := UpdateResult{Added: s.Add(entries, replace)}
	for _, d := range []time.Time{date, date.AddDate(0, 0, -1)} {
		path, err := s.Export(d)
		if err != nil {
			return res, err
		}
		res.Exports = append(res.Exports, path)
	}
	res.Trimmed = s.Trim()
	return res, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
