// Package influx writes projected observations to InfluxDB as time-series
// points, one per layer plus one for observation-wide attributes.
package influx

import (
	"context"
	"fmt"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/couchcryptid/wx-observation-etl/internal/config"
	"github.com/couchcryptid/wx-observation-etl/internal/domain"
	"github.com/couchcryptid/wx-observation-etl/internal/observability"
	"github.com/couchcryptid/wx-observation-etl/internal/observation"
	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

const measurement = "wx_observation"

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Sink implements pipeline.BatchLoader on top of the blocking write API.
// Field values are stored in fixed metric units whatever the display
// preferences.
type Sink struct {
	client  influxdb2.Client
	writer  pointWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSink connects to the configured InfluxDB instance. metrics may be nil.
func NewSink(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Sink {
	client := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	return &Sink{
		client:  client,
		writer:  client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness pings the server.
func (s *Sink) CheckReadiness(ctx context.Context) error {
	ok, err := s.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("influx ping: %w", err)
	}
	if !ok {
		return fmt.Errorf("influx ping: server not ready")
	}
	return nil
}

func (s *Sink) LoadBatch(ctx context.Context, events []domain.ProcessedObservation) error {
	var pts []*write.Point
	for _, e := range events {
		pts = append(pts, points(e)...)
	}
	if len(pts) == 0 {
		return nil
	}
	if err := s.writer.WritePoint(ctx, pts...); err != nil {
		s.count("error")
		return fmt.Errorf("write %d points: %w", len(pts), err)
	}
	s.count("success")
	s.logger.Debug("influx points written", "points", len(pts), "observations", len(events))
	return nil
}

func (s *Sink) count(outcome string) {
	if s.metrics != nil {
		s.metrics.SinkWrites.WithLabelValues("influx", outcome).Inc()
	}
}

func (s *Sink) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// points converts one observation. Points with no fields are skipped since
// InfluxDB rejects them.
func points(e domain.ProcessedObservation) []*write.Point {
	p := e.Projection
	if p == nil {
		return nil
	}
	station := e.Station()
	at := p.Time()

	var out []*write.Point
	for _, l := range p.Layers() {
		pl, ok := p.ProjectedLayer(l)
		if !ok {
			continue
		}
		pt := influxdb2.NewPointWithMeasurement(measurement).
			AddTag("station", station).
			AddTag("layer", l.String()).
			SetTime(at)
		f := fields{pt: pt}
		f.temperature("temperature_c", pl.Temperature(), units.Celsius)
		f.temperature("dewpoint_c", pl.Dewpoint(), units.Celsius)
		f.temperature("apparent_temperature_c", pl.ApparentTemp(), units.Celsius)
		f.temperature("theta_e_k", pl.ThetaE(), units.Kelvin)
		if rh := pl.RelativeHumidity(); rh != nil {
			f.add("relative_humidity_pct", rh.In(units.Percent))
		}
		if pr := pl.Pressure(); pr != nil {
			f.add("pressure_hpa", pr.In(units.Hectopascal))
		}
		if slp := pl.ProjectedSLP(); slp != nil {
			f.add("sea_level_pressure_hpa", slp.In(units.Hectopascal))
		}
		if v := pl.Visibility(); v != nil {
			f.add("visibility_m", v.In(units.Meter))
		}
		if w := pl.Wind(); w != nil {
			f.add("wind_speed_kts", w.Speed.In(units.Knots))
			if w.Direction != nil {
				f.add("wind_direction_deg", float64(w.Direction.Degrees()))
			}
		}
		if f.n > 0 {
			out = append(out, pt)
		}
	}

	pt := influxdb2.NewPointWithMeasurement(measurement).
		AddTag("station", station).
		AddTag("layer", observation.All.String()).
		SetTime(at)
	f := fields{pt: pt}
	if a := p.Altimeter(); a != nil {
		f.add("altimeter_hpa", a.In(units.Hectopascal))
	}
	if slp := p.BestSLP(); slp != nil {
		f.add("best_slp_hpa", slp.In(units.Hectopascal))
	}
	if c := p.CAPE(); c != nil {
		f.add("cape_jkg", c.In(units.JoulesPerKilogram))
	}
	if sc := p.SkyCover(); sc != nil {
		f.add("sky_oktas", int64(sc.Oktas()))
	}
	if c := p.Comfort(); c != nil {
		f.add("comfort_index", int64(c.Value))
		pt.AddTag("comfort_factor", c.Factor.String())
	}
	if f.n > 0 {
		out = append(out, pt)
	}
	return out
}

type fields struct {
	pt *write.Point
	n  int
}

func (f *fields) add(key string, v any) {
	f.pt.AddField(key, v)
	f.n++
}

func (f *fields) temperature(key string, t *units.Temperature, u units.TemperatureUnit) {
	if t != nil {
		f.add(key, t.In(u))
	}
}
