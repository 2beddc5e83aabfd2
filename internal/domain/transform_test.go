package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wx-observation-etl/internal/observation"
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
			"pressure": {"value": 995.2, "unit": "hPa"},
			"wind": {"speed": {"value": 15, "unit": "kts"}, "direction": {"degrees": 170}}
		}
	},
	"wx_codes": ["VCTS"],
	"raw_metar": "KAUS 261510Z 17015KT 10SM VCTS SCT030CB 28/21 A2992"
}`

func TestParseRawEvent(t *testing.T) {
	t.Run("valid wire record", func(t *testing.T) {
		w, err := ParseRawEvent(RawEvent{Value: []byte(testWire)})
		require.NoError(t, err)
		assert.Equal(t, "KAUS", w.Station().Name())
		assert.Equal(t, time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC), w.Time())
		assert.Equal(t, []observation.Layer{observation.NearSurface}, w.Layers())
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseRawEvent(RawEvent{Value: []byte(`{not json`)})
		require.ErrorIs(t, err, observation.ErrInvalidWire)
		assert.ErrorContains(t, err, "parse raw event")
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := ParseRawEvent(RawEvent{})
		assert.Error(t, err)
	})
}

func TestProcessRawEvent(t *testing.T) {
	fixed := time.Date(2024, 4, 26, 15, 11, 30, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	defer SetClock(nil)

	raw := RawEvent{Value: []byte(testWire), Topic: "raw-observations"}
	out, err := ProcessRawEvent(raw, projection.DefaultPreferences())
	require.NoError(t, err)

	assert.Equal(t, fixed, out.ProcessedAt)
	assert.Equal(t, "KAUS", out.Station())
	assert.Equal(t, "KAUS|2024-04-26T15:10:00Z", out.Key())
	assert.Equal(t, raw.Value, out.RawPayload)

	l, ok := out.Projection.ProjectedLayer(observation.NearSurface)
	require.True(t, ok)
	assert.InDelta(t, 82.4, l.Temperature().In(units.Fahrenheit), 1e-9)
	assert.Equal(t, units.Fahrenheit, l.Temperature().Unit())
	require.NotNil(t, l.HeatIndexValid())
	assert.True(t, *l.HeatIndexValid())

	require.NotNil(t, out.Projection.Wx())
	assert.True(t, out.Projection.Wx().Thunderstorm)
}

func TestProcessRawEvent_Invalid(t *testing.T) {
	_, err := ProcessRawEvent(RawEvent{Value: []byte(`{"date_time": "2024-04-26T15:10:00Z"}`)}, projection.DefaultPreferences())
	require.ErrorIs(t, err, observation.ErrInvalidWire)
}
