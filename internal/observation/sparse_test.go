package observation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

func TestValue_Getters(t *testing.T) {
	v := PressureValue(units.New(1013.0, units.Millibar))
	assert.Equal(t, KindPressure, v.Kind())
	require.NotNil(t, v.Pressure())
	assert.Nil(t, v.Temperature())
	assert.Nil(t, v.Text())

	var zero Value
	assert.Nil(t, zero.Temperature())
	assert.Nil(t, zero.TextList())
}

func TestValue_TextListIsCopied(t *testing.T) {
	codes := []string{"RA"}
	v := TextListValue(codes)
	codes[0] = "SN"
	assert.Equal(t, []string{"RA"}, v.TextList())
}

func TestSparse_Put(t *testing.T) {
	s := testStation(t)

	tests := []struct {
		name    string
		layer   Layer
		param   Param
		value   Value
		wantErr error
	}{
		{"layer reading", NearSurface, ParamTemperature, TemperatureValue(units.NewTemperature(20, units.Celsius)), nil},
		{"observation-wide", All, ParamAltimeter, PressureValue(units.New(30.0, units.InchesMercury)), nil},
		{"kind mismatch", NearSurface, ParamTemperature, PressureValue(units.New(1000.0, units.Millibar)), ErrKindMismatch},
		{"zero value", NearSurface, ParamPressure, Value{}, ErrKindMismatch},
		{"wide param on physical layer", NearSurface, ParamAltimeter, PressureValue(units.New(1000.0, units.Millibar)), ErrInvalidLayer},
		{"layer param on all", All, ParamPressure, PressureValue(units.New(1000.0, units.Millibar)), ErrInvalidLayer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := NewSparse(testTime, s)
			err := sp.Put(tt.layer, tt.param, tt.value)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				_, ok := sp.Get(tt.layer, tt.param)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			got, ok := sp.Get(tt.layer, tt.param)
			require.True(t, ok)
			assert.Equal(t, tt.value.Kind(), got.Kind())
		})
	}

	t.Run("unknown parameter", func(t *testing.T) {
		sp := NewSparse(testTime, s)
		assert.Error(t, sp.Put(NearSurface, Param(200), TextValue("x")))
	})
}

func TestSparse_Observation(t *testing.T) {
	s := testStation(t)
	sp := NewSparse(testTime, s)
	agl := AGL(units.New(10.0, units.Meter))

	require.NoError(t, sp.Put(NearSurface, ParamTemperature, TemperatureValue(units.NewTemperature(32, units.Fahrenheit))))
	require.NoError(t, sp.Put(NearSurface, ParamDewpoint, TemperatureValue(units.NewTemperature(20, units.Fahrenheit))))
	require.NoError(t, sp.Put(NearSurface, ParamWindSpeed, SpeedValue(units.New(10.0, units.Knots))))
	require.NoError(t, sp.Put(NearSurface, ParamWindDirection, DirectionValue(units.MustDirection(270))))
	require.NoError(t, sp.Put(agl, ParamWind, WindValue(Wind{Speed: units.New(15.0, units.Knots)})))
	require.NoError(t, sp.Put(agl, ParamWindSpeed, SpeedValue(units.New(99.0, units.Knots))))
	require.NoError(t, sp.Put(All, ParamWxCodes, TextListValue([]string{"-SN"})))
	require.NoError(t, sp.Put(All, ParamRawReport, TextValue("KOKC 041500Z 27010KT")))

	assert.Equal(t, []Layer{NearSurface, agl}, sp.Layers())
	assert.Equal(t, []string{"-SN"}, sp.WxCodes())
	assert.Equal(t, "KOKC 041500Z 27010KT", sp.RawReport())
	assert.Nil(t, sp.Altimeter())
	assert.Nil(t, sp.SkyCover())

	_, ok := sp.Layer(All)
	assert.False(t, ok)
	_, ok = sp.Layer(Indoor)
	assert.False(t, ok)

	surface, ok := sp.Layer(NearSurface)
	require.True(t, ok)
	w := surface.Wind()
	require.NotNil(t, w)
	assert.InDelta(t, 10.0, w.Speed.In(units.Knots), 1e-9)
	require.NotNil(t, w.Direction)
	assert.Equal(t, uint16(270), w.Direction.Degrees())
	assert.Nil(t, surface.Pressure())
	assert.InDelta(t, 23.0, WindChill(surface).In(units.Fahrenheit), 0.01)
	assert.NotNil(t, RelativeHumidity(surface))

	upper, ok := sp.Layer(agl)
	require.True(t, ok)
	assert.InDelta(t, 15.0, upper.Wind().Speed.In(units.Knots), 1e-9, "whole wind value wins over speed")
	assert.Nil(t, upper.Wind().Direction)
}
