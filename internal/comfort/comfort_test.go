package comfort

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wx-observation-etl/internal/observation"
	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

var (
	noon     = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	midnight = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
)

type reading struct {
	at       time.Time
	tempF    *float64
	dewF     *float64
	windMph  *float64
	sky      *observation.SkyCover
	wxCodes  []string
	noLayers bool
}

func build(t *testing.T, r reading) observation.Observation {
	t.Helper()
	s := observation.NewStation("TEST", units.New(0.0, units.Meter), observation.Coords{}, time.UTC)

	var f observation.LayerFields
	if r.tempF != nil {
		f.Temperature = ptr(units.NewTemperature(*r.tempF, units.Fahrenheit))
	}
	if r.dewF != nil {
		f.Dewpoint = ptr(units.NewTemperature(*r.dewF, units.Fahrenheit))
	}
	if r.windMph != nil {
		f.Wind = &observation.Wind{Speed: units.New(*r.windMph, units.Mph)}
	}
	var layers []*observation.LayerRecord
	if !r.noLayers {
		layers = append(layers, observation.NewLayerRecord(observation.NearSurface, s, f))
	}
	at := r.at
	if at.IsZero() {
		at = noon
	}
	rec, err := observation.NewRecord(at, s, layers, observation.RecordFields{SkyCover: r.sky, WxCodes: r.wxCodes})
	require.NoError(t, err)
	return rec
}

func few() *observation.SkyCover {
	return &observation.SkyCover{Layers: []observation.CloudLayer{{Coverage: observation.Few, Height: 5000}}}
}

func TestIndex(t *testing.T) {
	tests := []struct {
		name       string
		in         reading
		wantValue  uint8
		wantFactor Factor
	}{
		{
			name:       "ideal afternoon",
			in:         reading{tempF: ptr(70.0), dewF: ptr(50.0), sky: few()},
			wantValue:  10,
			wantFactor: Temperature,
		},
		{
			name:       "clear night is ideal",
			in:         reading{at: midnight, tempF: ptr(70.0), dewF: ptr(50.0), sky: &observation.SkyCover{}},
			wantValue:  10,
			wantFactor: Temperature,
		},
		{
			name:       "clear day loses a point to sun",
			in:         reading{tempF: ptr(70.0), dewF: ptr(50.0), sky: &observation.SkyCover{}},
			wantValue:  9,
			wantFactor: CloudCover,
		},
		{
			name:       "muggy",
			in:         reading{tempF: ptr(78.0), dewF: ptr(72.0)},
			wantValue:  5,
			wantFactor: Humidity,
		},
		{
			name:       "hot and humid",
			in:         reading{tempF: ptr(96.0), dewF: ptr(76.0)},
			wantValue:  0,
			wantFactor: HeatIndex,
		},
		{
			name:       "desert dry",
			in:         reading{tempF: ptr(70.0), dewF: ptr(10.0)},
			wantValue:  2,
			wantFactor: DryAir,
		},
		{
			name:       "wind chill",
			in:         reading{tempF: ptr(45.0), windMph: ptr(30.0)},
			wantValue:  5,
			wantFactor: WindChill,
		},
		{
			name:       "freezing rain",
			in:         reading{tempF: ptr(70.0), wxCodes: []string{"-FZRA"}},
			wantValue:  0,
			wantFactor: Rain,
		},
		{
			name:       "freezing rain nearby",
			in:         reading{tempF: ptr(70.0), wxCodes: []string{"VCFZRA"}},
			wantValue:  10,
			wantFactor: Temperature,
		},
		{
			name:       "mist",
			in:         reading{tempF: ptr(70.0), wxCodes: []string{"BR"}},
			wantValue:  9,
			wantFactor: Rain,
		},
		{
			name:       "heavy rain",
			in:         reading{tempF: ptr(70.0), wxCodes: []string{"+RA"}},
			wantValue:  5,
			wantFactor: Rain,
		},
		{
			name:       "thunder adds",
			in:         reading{tempF: ptr(70.0), wxCodes: []string{"TSRA"}},
			wantValue:  9,
			wantFactor: Rain,
		},
		{
			name:       "light snow adds",
			in:         reading{tempF: ptr(30.0), wxCodes: []string{"-SN"}},
			wantValue:  6,
			wantFactor: Temperature,
		},
		{
			name:       "snow squalls cap",
			in:         reading{tempF: ptr(30.0), wxCodes: []string{"SN", "SQ"}},
			wantValue:  10,
			wantFactor: Temperature,
		},
		{
			name:       "funnel cloud is clamped",
			in:         reading{tempF: ptr(100.0), wxCodes: []string{"+FC", "TS"}},
			wantValue:  10,
			wantFactor: Temperature,
		},
		{
			name:       "weather only",
			in:         reading{noLayers: true, wxCodes: []string{"-RA"}},
			wantValue:  6,
			wantFactor: Rain,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Index(build(t, tt.in))
			require.True(t, ok)
			assert.Equal(t, tt.wantValue, got.Value)
			assert.Equal(t, tt.wantFactor, got.Factor, "factor %s", got.Factor)
		})
	}
}

func TestIndex_NothingToScore(t *testing.T) {
	_, ok := Index(build(t, reading{noLayers: true}))
	assert.False(t, ok)

	_, ok = Index(build(t, reading{}))
	assert.False(t, ok)
}

func TestIndex_NeverExceedsCap(t *testing.T) {
	for _, codes := range [][]string{{"+FC"}, {"+FC", "TS"}, {"+TSSN", "FC", "SQ"}} {
		got, ok := Index(build(t, reading{tempF: ptr(70.0), wxCodes: codes}))
		require.True(t, ok)
		assert.LessOrEqual(t, got.Value, uint8(MaxScore))
	}
}

func TestTableLookup(t *testing.T) {
	assert.Equal(t, uint8(0), temperatureTable.lookup(105))
	assert.Equal(t, uint8(10), temperatureTable.lookup(65))
	assert.Equal(t, uint8(9), temperatureTable.lookup(64.9))
	assert.Equal(t, uint8(0), temperatureTable.lookup(-40))
	assert.Equal(t, uint8(2), dryAirTable.lookup(-1))
	assert.Equal(t, uint8(3), dewpointTable.lookup(-10))
}

func TestFactor_String(t *testing.T) {
	assert.Equal(t, "Cloud Cover", CloudCover.String())
	assert.Equal(t, "Dry Air", DryAir.String())
	b, err := WindChill.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Wind Chill", string(b))
}
