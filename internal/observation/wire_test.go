package observation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

const validWire = `{
	"date_time": "2024-07-04T15:00:00Z",
	"station": {
		"name": "KOKC",
		"altitude": {"value": 1000, "unit": "ft"},
		"coords": {"latitude": 35.39, "longitude": -97.6},
		"time_zone": "America/Chicago"
	},
	"layers": {
		"near_surface": {
			"layer": "near_surface",
			"temperature": {"value": 81, "unit": "°F"},
			"dewpoint": {"value": 65, "unit": "F"},
			"wind": {"speed": {"value": 10, "unit": "kts"}, "direction": {"degrees": 184}}
		},
		"agl:10": {
			"layer": "agl:10",
			"wind": {"speed": {"value": 12, "unit": "m/s"}}
		}
	},
	"skycover": [{"coverage": "FEW", "height": 2500}, {"coverage": "BKN", "height": 8000}],
	"wx_codes": ["-TSRA", "BR"],
	"raw_metar": "KOKC 041500Z 18010KT",
	"altimeter": {"value": 29.92, "unit": "inHg"},
	"precip": {"unknown": {"value": 0, "unit": "in"}, "rain": {"value": 0.25, "unit": "in"}, "snow": {"value": 0, "unit": "in"}}
}`

func TestDecodeWire(t *testing.T) {
	w, err := DecodeWire([]byte(validWire))
	require.NoError(t, err)

	assert.Equal(t, "KOKC", w.Station().Name())
	assert.Equal(t, "America/Chicago", w.Station().Location().String())
	assert.InDelta(t, 304.8, w.Station().Altitude().In(units.Meter), 1e-9)
	assert.Equal(t, 10, LocalTime(w).Hour())

	agl := AGL(units.New(10.0, units.Meter))
	assert.Equal(t, []Layer{NearSurface, agl}, w.Layers())

	surface, ok := w.Layer(NearSurface)
	require.True(t, ok)
	assert.InDelta(t, 82.82, ApparentTemperature(surface).In(units.Fahrenheit), 0.01)
	require.NotNil(t, WindDirection(surface))
	assert.Equal(t, uint16(180), WindDirection(surface).Degrees())

	upper, ok := w.Layer(agl)
	require.True(t, ok)
	assert.InDelta(t, 43.2, WindSpeed(upper).In(units.Kph), 1e-9)

	require.NotNil(t, w.SkyCover())
	assert.Equal(t, uint8(6), w.SkyCover().Oktas())
	assert.Equal(t, "KOKC 041500Z 18010KT", w.RawReport())
	assert.InDelta(t, 6.35, w.Precip().Rain.In(units.Millimeter), 1e-9)
	assert.Nil(t, w.PrecipToday())
	assert.Nil(t, w.CAPE())

	wx := PresentWeather(w)
	require.NotNil(t, wx)
	assert.True(t, wx.Thunderstorm)
	assert.True(t, wx.VisibilityInhibitor)
}

func TestDecodeWire_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantMsg string
	}{
		{
			name:    "unknown field",
			mutate:  func(s string) string { return strings.Replace(s, `"raw_metar"`, `"metar"`, 1) },
			wantMsg: "unknown field",
		},
		{
			name:    "unknown unit",
			mutate:  func(s string) string { return strings.Replace(s, `"inHg"`, `"furlongs"`, 1) },
			wantMsg: "furlongs",
		},
		{
			name:    "direction out of range",
			mutate:  func(s string) string { return strings.Replace(s, `"degrees": 184`, `"degrees": 400`, 1) },
			wantMsg: "direction",
		},
		{
			name:    "malformed layer key",
			mutate:  func(s string) string { return strings.ReplaceAll(s, `"agl:10"`, `"agl:high"`) },
			wantMsg: "invalid layer",
		},
		{
			name:    "key disagrees with tag",
			mutate:  func(s string) string { return strings.Replace(s, `"layer": "agl:10"`, `"layer": "agl:20"`, 1) },
			wantMsg: "disagrees",
		},
		{
			name:    "all is not a layer",
			mutate:  func(s string) string { return strings.ReplaceAll(s, `"agl:10"`, `"all"`) },
			wantMsg: "not a physical layer",
		},
		{
			name:    "malformed weather code",
			mutate:  func(s string) string { return strings.Replace(s, `"BR"]`, `"XYZZY"]`, 1) },
			wantMsg: "malformed present weather code",
		},
		{
			name:    "missing station name",
			mutate:  func(s string) string { return strings.Replace(s, `"name": "KOKC",`, ``, 1) },
			wantMsg: "Name",
		},
		{
			name:    "latitude out of range",
			mutate:  func(s string) string { return strings.Replace(s, `"latitude": 35.39`, `"latitude": 135.39`, 1) },
			wantMsg: "Latitude",
		},
		{
			name:    "unknown time zone",
			mutate:  func(s string) string { return strings.Replace(s, `America/Chicago`, `Mars/Olympus`, 1) },
			wantMsg: "time zone",
		},
		{
			name:    "missing timestamp",
			mutate:  func(s string) string { return strings.Replace(s, `"date_time": "2024-07-04T15:00:00Z",`, ``, 1) },
			wantMsg: "DateTime",
		},
		{
			name:    "missing station altitude",
			mutate:  func(s string) string { return strings.Replace(s, `"altitude": {"value": 1000, "unit": "ft"},`, ``, 1) },
			wantMsg: "Altitude",
		},
		{
			name:    "missing station coords",
			mutate:  func(s string) string { return strings.Replace(s, `"coords": {"latitude": 35.39, "longitude": -97.6},`, ``, 1) },
			wantMsg: "Coords",
		},
		{
			name:    "empty time zone",
			mutate:  func(s string) string { return strings.Replace(s, `"time_zone": "America/Chicago"`, `"time_zone": ""`, 1) },
			wantMsg: "TimeZone",
		},
		{
			name:    "quantity without value",
			mutate:  func(s string) string { return strings.Replace(s, `{"value": 29.92, "unit": "inHg"}`, `{"unit": "inHg"}`, 1) },
			wantMsg: "missing value",
		},
		{
			name:    "temperature without value",
			mutate:  func(s string) string { return strings.Replace(s, `{"value": 81, "unit": "°F"}`, `{"unit": "°F"}`, 1) },
			wantMsg: "missing value",
		},
		{
			name:    "station name with slash",
			mutate:  func(s string) string { return strings.Replace(s, `"name": "KOKC"`, `"name": "../escaped"`, 1) },
			wantMsg: "Name",
		},
		{
			name:    "station name with backslash",
			mutate:  func(s string) string { return strings.Replace(s, `"name": "KOKC"`, `"name": "ok\\escaped"`, 1) },
			wantMsg: "Name",
		},
		{
			name:    "station name is dot-dot",
			mutate:  func(s string) string { return strings.Replace(s, `"name": "KOKC"`, `"name": ".."`, 1) },
			wantMsg: "Name",
		},
		{
			name: "same layer under two keys",
			mutate: func(s string) string {
				return strings.Replace(s, `"agl:10": {`, `"agl:10.0": {"layer": "agl:10"}, "agl:10": {`, 1)
			},
			wantMsg: "more than one key",
		},
		{
			name:    "unknown cloud code",
			mutate:  func(s string) string { return strings.Replace(s, `"BKN"`, `"XXX"`, 1) },
			wantMsg: "unknown cloud cover code",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeWire([]byte(tt.mutate(validWire)))
			require.ErrorIs(t, err, ErrInvalidWire)
			assert.ErrorContains(t, err, tt.wantMsg)
		})
	}
}

func TestEncodeWire_RoundTrip(t *testing.T) {
	s := testStation(t)
	sp := NewSparse(testTime, s)
	require.NoError(t, sp.Put(NearSurface, ParamTemperature, TemperatureValue(units.NewTemperature(20, units.Celsius))))
	require.NoError(t, sp.Put(NearSurface, ParamRelativeHumidity, FractionValue(units.New(50.0, units.Percent))))
	require.NoError(t, sp.Put(NearSurface, ParamWindSpeed, SpeedValue(units.New(5.0, units.Knots))))
	require.NoError(t, sp.Put(All, ParamSkyCover, SkyCoverValue(SkyCover{})))
	require.NoError(t, sp.Put(All, ParamWxCodes, TextListValue([]string{"+SHRA"})))

	data, err := EncodeWire(sp)
	require.NoError(t, err)

	w, err := DecodeWire(data)
	require.NoError(t, err)
	assert.True(t, w.Time().Equal(testTime))
	assert.Equal(t, s.Name(), w.Station().Name())
	assert.Equal(t, []string{"+SHRA"}, w.WxCodes())
	require.NotNil(t, w.SkyCover())
	assert.True(t, w.SkyCover().Clear())

	surface, ok := w.Layer(NearSurface)
	require.True(t, ok)
	assert.Nil(t, nativeDewpoint(surface), "derived dewpoint is not encoded")
	assert.InDelta(t, 9.26, Dewpoint(surface).In(units.Celsius), 0.01)
	assert.Nil(t, WindDirection(surface))
}
