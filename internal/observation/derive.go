package observation

import (
	"time"

	"github.com/couchcryptid/wx-observation-etl/internal/formulas"
	"github.com/couchcryptid/wx-observation-etl/internal/units"
	"github.com/couchcryptid/wx-observation-etl/internal/wx"
)

// Validity thresholds for the NWS comfort temperatures.
const (
	windChillMaxTempF    = 50.0
	windChillMinSpeedMph = 3.0
	heatIndexMinTempF    = 80.0
	heatIndexMinRHPct    = 40.0
)

// Dewpoint returns the layer's measured dewpoint, or derives it from
// temperature and measured relative humidity.
func Dewpoint(l LayerData) *units.Temperature {
	if r, ok := l.(DewpointReader); ok {
		if td := r.Dewpoint(); td != nil {
			return td
		}
	}
	t := l.Temperature()
	rh := nativeHumidity(l)
	if t == nil || rh == nil || rh.Value() <= 0 {
		return nil
	}
	return ptr(formulas.DewpointFromRH(*t, *rh))
}

// RelativeHumidity returns the layer's measured relative humidity, or
// derives it from temperature and measured dewpoint.
func RelativeHumidity(l LayerData) *units.Fraction {
	if rh := nativeHumidity(l); rh != nil {
		return rh
	}
	t := l.Temperature()
	td := nativeDewpoint(l)
	if t == nil || td == nil {
		return nil
	}
	return ptr(formulas.RHFromDewpoint(*t, *td))
}

func nativeDewpoint(l LayerData) *units.Temperature {
	if r, ok := l.(DewpointReader); ok {
		return r.Dewpoint()
	}
	return nil
}

func nativeHumidity(l LayerData) *units.Fraction {
	if r, ok := l.(HumidityReader); ok {
		return r.RelativeHumidity()
	}
	return nil
}

func WindSpeed(l LayerData) *units.Speed {
	w := l.Wind()
	if w == nil {
		return nil
	}
	return ptr(w.Speed)
}

func WindDirection(l LayerData) *units.Direction {
	w := l.Wind()
	if w == nil {
		return nil
	}
	return w.Direction
}

// HeightAboveGround resolves the layer tag against the station altitude.
func HeightAboveGround(l LayerData) *units.Distance {
	return l.Layer().HeightAboveGround(l.Station().Altitude())
}

// HeightAboveSeaLevel is the height above ground plus station altitude,
// unless the layer reports its own height.
func HeightAboveSeaLevel(l LayerData) *units.Distance {
	if r, ok := l.(HeightReader); ok {
		if h := r.HeightAboveSeaLevel(); h != nil {
			return h
		}
	}
	agl := HeightAboveGround(l)
	if agl == nil {
		return nil
	}
	return ptr(agl.Add(l.Station().Altitude()))
}

// SeaLevelPressure reduces the layer pressure to sea level. It needs
// pressure, temperature and a defined height.
func SeaLevelPressure(l LayerData) *units.Pressure {
	p := l.Pressure()
	t := l.Temperature()
	h := HeightAboveSeaLevel(l)
	if p == nil || t == nil || h == nil {
		return nil
	}
	return ptr(formulas.ReduceToSeaLevel(*p, *t, *h, l.Station().Coords().Latitude))
}

// WindChillValid reports whether wind chill is defined: below 50°F with wind
// above 3 mph. It is false at or above 50°F whatever the wind, and nil when
// the inputs needed to decide are missing.
func WindChillValid(l LayerData) *bool {
	t := l.Temperature()
	if t == nil {
		return nil
	}
	if t.In(units.Fahrenheit) >= windChillMaxTempF {
		return ptr(false)
	}
	v := WindSpeed(l)
	if v == nil {
		return nil
	}
	return ptr(v.In(units.Mph) > windChillMinSpeedMph)
}

func WindChill(l LayerData) *units.Temperature {
	if valid := WindChillValid(l); valid == nil || !*valid {
		return nil
	}
	t := l.Temperature().In(units.Fahrenheit)
	mph := WindSpeed(l).In(units.Mph)
	return ptr(units.NewTemperature(formulas.WindChillF(t, mph), units.Fahrenheit))
}

// HeatIndexValid reports whether heat index is defined: above 80°F with
// relative humidity above 40%. It is false at or below 80°F, and nil when
// the inputs needed to decide are missing.
func HeatIndexValid(l LayerData) *bool {
	t := l.Temperature()
	if t == nil {
		return nil
	}
	if t.In(units.Fahrenheit) <= heatIndexMinTempF {
		return ptr(false)
	}
	rh := RelativeHumidity(l)
	if rh == nil {
		return nil
	}
	return ptr(rh.In(units.Percent) > heatIndexMinRHPct)
}

func HeatIndex(l LayerData) *units.Temperature {
	if valid := HeatIndexValid(l); valid == nil || !*valid {
		return nil
	}
	t := l.Temperature().In(units.Fahrenheit)
	rh := RelativeHumidity(l).In(units.Percent)
	return ptr(units.NewTemperature(formulas.HeatIndexF(t, rh), units.Fahrenheit))
}

// ApparentTemperature picks heat index when valid, else wind chill when
// valid, else the air temperature when both are determinately invalid. If
// either validity is unknown and neither is valid the result is nil.
func ApparentTemperature(l LayerData) *units.Temperature {
	hi := HeatIndexValid(l)
	wc := WindChillValid(l)
	switch {
	case hi != nil && *hi:
		return HeatIndex(l)
	case wc != nil && *wc:
		return WindChill(l)
	case hi != nil && wc != nil:
		return l.Temperature()
	default:
		return nil
	}
}

// ThetaE computes equivalent potential temperature. Pressure comes from the
// layer, or failing that from the altimeter setting reduced to the layer's
// height.
func ThetaE(l LayerData, altimeter *units.Pressure) *units.Temperature {
	p := l.Pressure()
	if p == nil && altimeter != nil {
		if h := HeightAboveSeaLevel(l); h != nil {
			p = ptr(formulas.AltimeterToStation(*altimeter, *h))
		}
	}
	t := l.Temperature()
	td := Dewpoint(l)
	if p == nil || t == nil || td == nil {
		return nil
	}
	return ptr(formulas.ThetaE(*t, *td, *p))
}

// PresentWeather folds the observation's weather codes. It is nil when no
// codes were reported.
func PresentWeather(o Observation) *wx.Wx {
	return wx.ParseCodes(o.WxCodes())
}

// StationPressureFromAltimeter recovers station pressure at the station's
// altitude from the altimeter setting.
func StationPressureFromAltimeter(o Observation) *units.Pressure {
	a := o.Altimeter()
	if a == nil {
		return nil
	}
	return ptr(formulas.AltimeterToStation(*a, o.Station().Altitude()))
}

// MSLPFromAltimeter reduces the altimeter setting to sea level using the
// near-surface temperature.
func MSLPFromAltimeter(o Observation) *units.Pressure {
	a := o.Altimeter()
	if a == nil {
		return nil
	}
	surface, ok := o.Layer(NearSurface)
	if !ok {
		return nil
	}
	t := surface.Temperature()
	if t == nil {
		return nil
	}
	return ptr(formulas.AltimeterToSLP(*a, o.Station().Altitude(), *t))
}

// BestSeaLevelPressure returns the most accurate sea-level pressure
// available, trying in order: a measured sea-level reading, the reduced
// near-surface pressure, the reduced indoor pressure, and the altimeter
// setting reduced with the near-surface temperature.
func BestSeaLevelPressure(o Observation) *units.Pressure {
	if l, ok := o.Layer(SeaLevel); ok {
		if p := l.Pressure(); p != nil {
			return p
		}
	}
	for _, layer := range []Layer{NearSurface, Indoor} {
		if l, ok := o.Layer(layer); ok {
			if p := SeaLevelPressure(l); p != nil {
				return p
			}
		}
	}
	return MSLPFromAltimeter(o)
}

// LocalTime is the observation time in the station's time zone.
func LocalTime(o Observation) time.Time {
	return o.Time().In(o.Station().Location())
}

func Latitude(o Observation) float64 {
	return o.Station().Coords().Latitude
}

// Surface returns the near-surface layer, the one most comfort and display
// calculations read from.
func Surface(o Observation) (LayerData, bool) {
	return o.Layer(NearSurface)
}
