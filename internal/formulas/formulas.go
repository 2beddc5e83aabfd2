// Package formulas implements the meteorological equations used to derive
// secondary quantities from raw observations. Every function is pure; inputs
// are converted to Kelvin, Celsius, hPa and meters at the boundary and results
// are returned as unit-typed values.
package formulas

import (
	"math"

	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

// Physical constants.
const (
	GasConstant         = 8.314462618 // J/mol/K
	DryAirMolarMass     = 28.96546e-3 // kg/mol
	DryAirGasConstant   = GasConstant / DryAirMolarMass
	StandardGravity     = 9.80665 // m/s^2
	StandardLapseRate   = 6.5e-3  // K/m
	StandardTempK       = 288.0   // K
	StandardPressure    = 1013.25 // hPa
	EarthRadiusKm       = 6371.0  // spherical approximation used by DistanceBetweenCoords
	StationPressureBias = 0.3     // hPa, added by AltimeterToStation to match station-pressure tables
)

// Magnus coefficients (Sonntag 1990) shared by the dewpoint/humidity pair.
const (
	magnusBeta   = 17.62
	magnusLambda = 243.12 // °C
)

// DewpointFromRH returns the Magnus-form dewpoint for temperature t and
// relative humidity rh, on t's scale.
func DewpointFromRH(t units.Temperature, rh units.Fraction) units.Temperature {
	tc := t.In(units.Celsius)
	gamma := math.Log(rh.In(units.Decimal)) + magnusBeta*tc/(magnusLambda+tc)
	td := magnusLambda * gamma / (magnusBeta - gamma)
	return units.NewTemperature(td, units.Celsius).Convert(t.Unit())
}

// RHFromDewpoint is the inverse of DewpointFromRH. The result is in percent.
func RHFromDewpoint(t, td units.Temperature) units.Fraction {
	tc := t.In(units.Celsius)
	tdc := td.In(units.Celsius)
	rh := math.Exp(magnusBeta*tdc/(magnusLambda+tdc) - magnusBeta*tc/(magnusLambda+tc))
	return units.New(rh, units.Decimal).Convert(units.Percent)
}

// VaporPressure returns the saturation vapor pressure over water at t
// (Bolton 1980, eq. 10). Pass a dewpoint to get the actual vapor pressure.
func VaporPressure(t units.Temperature) units.Pressure {
	tc := t.In(units.Celsius)
	return units.New(6.112*math.Exp(17.67*tc/(tc+243.5)), units.Hectopascal)
}

// MixingRatio returns the saturation mixing ratio (kg/kg) at temperature t and
// total pressure p.
func MixingRatio(t units.Temperature, p units.Pressure) units.Fraction {
	e := VaporPressure(t).In(units.Hectopascal)
	return units.New(0.622*e/(p.In(units.Hectopascal)-e), units.Decimal)
}

// LCLTemperature returns the temperature at the lifting condensation level
// (Bolton 1980, eq. 15), in Kelvin.
func LCLTemperature(t, td units.Temperature) units.Temperature {
	tk := t.In(units.Kelvin)
	tdk := td.In(units.Kelvin)
	tl := 1/(1/(tdk-56)+math.Log(tk/tdk)/800) + 56
	return units.NewTemperature(tl, units.Kelvin)
}

// ThetaE returns the equivalent potential temperature (Bolton 1980, eq. 43),
// in Kelvin.
func ThetaE(t, td units.Temperature, p units.Pressure) units.Temperature {
	tk := t.In(units.Kelvin)
	ph := p.In(units.Hectopascal)
	r := MixingRatio(td, p).In(units.Decimal) * 1000 // g/kg
	tl := LCLTemperature(t, td).In(units.Kelvin)

	theta := tk * math.Pow(1000/ph, 0.2854*(1-0.00028*r))
	return units.NewTemperature(theta*math.Exp((3.376/tl-0.00254)*r*(1+0.00081*r)), units.Kelvin)
}

// AltimeterToStation inverts the standard-atmosphere altimeter equation to
// recover station pressure at height h above sea level. The result is in
// the altimeter's unit.
func AltimeterToStation(altimeter units.Pressure, h units.Distance) units.Pressure {
	n := StandardLapseRate * DryAirGasConstant / StandardGravity
	a := altimeter.In(units.Hectopascal)
	hm := h.In(units.Meter)

	p := math.Pow(math.Pow(a, n)-math.Pow(StandardPressure, n)*StandardLapseRate*hm/StandardTempK, 1/n)
	return units.New(p+StationPressureBias, units.Hectopascal).Convert(altimeter.Unit())
}

// AltimeterToSLP reduces the altimeter-derived station pressure to sea level
// with a hypsometric scale height taken from the surface temperature t.
func AltimeterToSLP(altimeter units.Pressure, h units.Distance, t units.Temperature) units.Pressure {
	scaleHeight := t.In(units.Kelvin) * DryAirGasConstant / StandardGravity
	station := AltimeterToStation(altimeter, h)
	return station.Scale(math.Exp(h.In(units.Meter) / scaleHeight))
}

// ReduceToSeaLevel reduces station pressure p measured at height h (above sea
// level) with temperature t at latitude lat (degrees). It applies the
// column-temperature, humidity, latitude and gravity corrections as one
// correction on log10 pressure. The result is in p's unit.
func ReduceToSeaLevel(p units.Pressure, t units.Temperature, h units.Distance, lat float64) units.Pressure {
	const (
		columnPressure = 1013.25   // hPa
		barometricK    = 18400.0   // m
		thermalAlpha   = 0.0037    // 1/°C
		obliquityK     = 0.0026
		earthRadiusM   = 6367324.0 // m
		lapse          = 0.005     // °C/m
	)

	hm := h.In(units.Meter)
	phi := lat * math.Pi / 180
	column := t.In(units.Celsius) + lapse*hm/2
	e := 6.1078 * math.Pow(10, 7.5*column/(237.3+column))

	term1 := 1 + thermalAlpha*column
	term2 := 1 / (1 - 0.378*e/columnPressure)
	term3 := 1 / (1 - obliquityK*math.Cos(2*phi))
	term4 := 1 + hm/earthRadiusM
	correction := hm / (barometricK * term1 * term2 * term3 * term4)

	mslp := math.Pow(10, math.Log10(p.In(units.Millibar))+correction)
	return units.New(mslp, units.Millibar).Convert(p.Unit())
}

// WindChillF is the NWS wind chill equation. Inputs are °F and mph.
func WindChillF(tempF, mph float64) float64 {
	v := math.Pow(mph, 0.16)
	return 35.74 + 0.6215*tempF - 35.75*v + 0.4275*tempF*v
}

// heatIndexCoefficients are the Rothfusz regression coefficients.
var heatIndexCoefficients = [9]float64{
	-42.379, 2.04901523, 10.14333127, -0.22475541, -0.00683783,
	-0.05481717, 0.00122874, 0.00085282, -0.00000199,
}

// HeatIndexF is the Rothfusz heat index regression. Inputs are °F and
// relative humidity in percent.
func HeatIndexF(tempF, rhPct float64) float64 {
	c := heatIndexCoefficients
	t, r := tempF, rhPct
	return c[0] + c[1]*t + c[2]*r + c[3]*t*r + c[4]*t*t +
		c[5]*r*r + c[6]*t*t*r + c[7]*t*r*r + c[8]*t*t*r*r
}

// DistanceBetweenCoords returns the Haversine great-circle distance between
// two points given in decimal degrees, in kilometers.
func DistanceBetweenCoords(lat1, lon1, lat2, lon2 float64) units.Distance {
	toRad := math.Pi / 180
	phi1 := lat1 * toRad
	phi2 := lat2 * toRad
	dPhi := (lat2 - lat1) * toRad
	dLambda := (lon2 - lon1) * toRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return units.New(EarthRadiusKm*c, units.Kilometer)
}
