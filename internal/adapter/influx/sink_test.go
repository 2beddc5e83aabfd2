package influx

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wx-observation-etl/internal/domain"
	"github.com/couchcryptid/wx-observation-etl/internal/observability"
	"github.com/couchcryptid/wx-observation-etl/internal/projection"
	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

const testWire = `{
	"date_time": "2024-04-26T15:10:00Z",
	"station": {
		"name": "KAUS",
		"altitude": {"value": 165, "unit": "m"},
		"coords": {"latitude": 30.19, "longitude": -97.67},
		"time_zone": "America/Chicago"
	},
	"layers": {
		"near_surface": {
			"layer": "near_surface",
			"temperature": {"value": 28, "unit": "°C"},
			"dewpoint": {"value": 21, "unit": "°C"},
			"wind": {"speed": {"value": 15, "unit": "kts"}, "direction": {"degrees": 170}}
		},
		"agl:80": {
			"layer": "agl:80"
		}
	},
	"skycover": [{"coverage": "SCT", "height": 3000}],
	"altimeter": {"value": 29.92, "unit": "inHg"}
}`

type fakePointWriter struct {
	err    error
	points []*write.Point
}

func (f *fakePointWriter) WritePoint(_ context.Context, pts ...*write.Point) error {
	if f.err != nil {
		return f.err
	}
	f.points = append(f.points, pts...)
	return nil
}

func processed(t *testing.T, prefs projection.UnitPreferences) domain.ProcessedObservation {
	t.Helper()
	out, err := domain.ProcessRawEvent(domain.RawEvent{Value: []byte(testWire)}, prefs)
	require.NoError(t, err)
	return out
}

func tags(p *write.Point) map[string]string {
	m := map[string]string{}
	for _, tag := range p.TagList() {
		m[tag.Key] = tag.Value
	}
	return m
}

func fieldValues(p *write.Point) map[string]any {
	m := map[string]any{}
	for _, f := range p.FieldList() {
		m[f.Key] = f.Value
	}
	return m
}

func TestPoints(t *testing.T) {
	pts := points(processed(t, projection.DefaultPreferences()))

	// The empty agl:80 layer produces no point.
	require.Len(t, pts, 2)

	surface := pts[0]
	assert.Equal(t, measurement, surface.Name())
	assert.Equal(t, map[string]string{"station": "KAUS", "layer": "near_surface"}, tags(surface))
	assert.Equal(t, time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC), surface.Time().UTC())

	fv := fieldValues(surface)
	assert.InDelta(t, 28.0, fv["temperature_c"], 1e-9)
	assert.InDelta(t, 21.0, fv["dewpoint_c"], 1e-9)
	assert.InDelta(t, 15.0, fv["wind_speed_kts"], 1e-9)
	assert.InDelta(t, 170.0, fv["wind_direction_deg"], 1e-9)
	assert.Contains(t, fv, "relative_humidity_pct")
	assert.Contains(t, fv, "theta_e_k")
	assert.NotContains(t, fv, "pressure_hpa")

	all := pts[1]
	assert.Equal(t, "all", tags(all)["layer"])
	assert.NotEmpty(t, tags(all)["comfort_factor"])
	av := fieldValues(all)
	assert.InDelta(t, 1013.2, av["altimeter_hpa"], 0.1)
	assert.Equal(t, int64(3), av["sky_oktas"])
	assert.Contains(t, av, "comfort_index")
	assert.Contains(t, av, "best_slp_hpa")
}

func TestPoints_IndependentOfDisplayUnits(t *testing.T) {
	metric := projection.DefaultPreferences()
	metric.Temperature = units.Celsius

	a := fieldValues(points(processed(t, projection.DefaultPreferences()))[0])
	b := fieldValues(points(processed(t, metric))[0])
	assert.InDelta(t, a["temperature_c"], b["temperature_c"], 1e-9)
}

func TestPoints_NoProjection(t *testing.T) {
	assert.Empty(t, points(domain.ProcessedObservation{}))
}

func TestSink_LoadBatch(t *testing.T) {
	fw := &fakePointWriter{}
	metrics := observability.NewMetricsForTesting()
	s := &Sink{writer: fw, logger: slog.Default(), metrics: metrics}

	require.NoError(t, s.LoadBatch(context.Background(), nil))
	require.NoError(t, s.LoadBatch(context.Background(), []domain.ProcessedObservation{processed(t, projection.DefaultPreferences())}))
	assert.Len(t, fw.points, 2)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SinkWrites.WithLabelValues("influx", "success")), 0)

	fw.err = errors.New("unauthorized")
	err := s.LoadBatch(context.Background(), []domain.ProcessedObservation{processed(t, projection.DefaultPreferences())})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write 2 points")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SinkWrites.WithLabelValues("influx", "error")), 0)

	s.Close()
}
