package units

import (
	"errors"
	"fmt"
)

// ErrUnknownUnit is returned when a unit symbol cannot be parsed.
var ErrUnknownUnit = errors.New("unknown unit")

// unitDef describes one variant of a unit enum. Enums index into a slice of
// these, so variant order must match the const block.
type unitDef struct {
	symbol      string
	coefficient float64
	aliases     []string
}

func lookupUnit(defs []unitDef, family, s string) (int, error) {
	for i, d := range defs {
		if d.symbol == s {
			return i, nil
		}
		for _, a := range d.aliases {
			if a == s {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %s %q", ErrUnknownUnit, family, s)
}

// SpeedUnit enumerates speed units. The reference unit is kph.
type SpeedUnit uint8

const (
	Kph SpeedUnit = iota
	Mph
	Knots
	MetersPerSecond
)

var speedUnits = []unitDef{
	Kph:             {symbol: "kph", coefficient: 1, aliases: []string{"k/h", "km/h"}},
	Mph:             {symbol: "mph", coefficient: 1.609344},
	Knots:           {symbol: "kts", coefficient: 1.852, aliases: []string{"kt", "knots", "kn"}},
	MetersPerSecond: {symbol: "m/s", coefficient: 3.6, aliases: []string{"mps"}},
}

func (u SpeedUnit) Coefficient() float64 { return speedUnits[u].coefficient }
func (u SpeedUnit) String() string       { return speedUnits[u].symbol }

func (u SpeedUnit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *SpeedUnit) UnmarshalText(b []byte) error {
	i, err := lookupUnit(speedUnits, "speed", string(b))
	if err != nil {
		return err
	}
	*u = SpeedUnit(i)
	return nil
}

// PressureUnit enumerates pressure units. The reference unit is hPa.
type PressureUnit uint8

const (
	Hectopascal PressureUnit = iota
	Millibar
	InchesMercury
	PSI
	Atmosphere
)

var pressureUnits = []unitDef{
	Hectopascal:   {symbol: "hPa", coefficient: 1, aliases: []string{"hpa"}},
	Millibar:      {symbol: "mb", coefficient: 1, aliases: []string{"mbar"}},
	InchesMercury: {symbol: "inHg", coefficient: 33.86389, aliases: []string{"inhg"}},
	PSI:           {symbol: "psi", coefficient: 68.94757},
	Atmosphere:    {symbol: "atm", coefficient: 1013.25},
}

func (u PressureUnit) Coefficient() float64 { return pressureUnits[u].coefficient }
func (u PressureUnit) String() string       { return pressureUnits[u].symbol }

func (u PressureUnit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *PressureUnit) UnmarshalText(b []byte) error {
	i, err := lookupUnit(pressureUnits, "pressure", string(b))
	if err != nil {
		return err
	}
	*u = PressureUnit(i)
	return nil
}

// DistanceUnit enumerates length units, used for both visibility and
// altitude. The reference unit is the meter.
type DistanceUnit uint8

const (
	Meter DistanceUnit = iota
	Kilometer
	Foot
	Mile
	NauticalMile
)

var distanceUnits = []unitDef{
	Meter:        {symbol: "m", coefficient: 1},
	Kilometer:    {symbol: "km", coefficient: 1000},
	Foot:         {symbol: "ft", coefficient: 0.3048},
	Mile:         {symbol: "mi", coefficient: 1609.344, aliases: []string{"mile"}},
	NauticalMile: {symbol: "nmi", coefficient: 1852},
}

func (u DistanceUnit) Coefficient() float64 { return distanceUnits[u].coefficient }
func (u DistanceUnit) String() string       { return distanceUnits[u].symbol }

func (u DistanceUnit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *DistanceUnit) UnmarshalText(b []byte) error {
	i, err := lookupUnit(distanceUnits, "distance", string(b))
	if err != nil {
		return err
	}
	*u = DistanceUnit(i)
	return nil
}

// PrecipUnit enumerates precipitation depth units. The reference unit is mm.
type PrecipUnit uint8

const (
	Millimeter PrecipUnit = iota
	Centimeter
	Inch
)

var precipUnits = []unitDef{
	Millimeter: {symbol: "mm", coefficient: 1},
	Centimeter: {symbol: "cm", coefficient: 10},
	Inch:       {symbol: "in", coefficient: 25.4},
}

func (u PrecipUnit) Coefficient() float64 { return precipUnits[u].coefficient }
func (u PrecipUnit) String() string       { return precipUnits[u].symbol }

func (u PrecipUnit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *PrecipUnit) UnmarshalText(b []byte) error {
	i, err := lookupUnit(precipUnits, "precipitation", string(b))
	if err != nil {
		return err
	}
	*u = PrecipUnit(i)
	return nil
}

// FractionUnit enumerates dimensionless ratio units. The reference unit is a
// plain decimal fraction, whose symbol is empty.
type FractionUnit uint8

const (
	Decimal FractionUnit = iota
	Percent
	PerMille
)

var fractionUnits = []unitDef{
	Decimal:  {symbol: "", coefficient: 1},
	Percent:  {symbol: "%", coefficient: 0.01},
	PerMille: {symbol: "‰", coefficient: 0.001, aliases: []string{"1/1000"}},
}

func (u FractionUnit) Coefficient() float64 { return fractionUnits[u].coefficient }
func (u FractionUnit) String() string       { return fractionUnits[u].symbol }

func (u FractionUnit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *FractionUnit) UnmarshalText(b []byte) error {
	i, err := lookupUnit(fractionUnits, "fraction", string(b))
	if err != nil {
		return err
	}
	*u = FractionUnit(i)
	return nil
}

// SpecEnergyUnit enumerates specific energy units (CAPE).
type SpecEnergyUnit uint8

const (
	JoulesPerKilogram SpecEnergyUnit = iota
	SquareMetersPerSecondSquared
)

var specEnergyUnits = []unitDef{
	JoulesPerKilogram:            {symbol: "J/kg", coefficient: 1},
	SquareMetersPerSecondSquared: {symbol: "m²/s²", coefficient: 1, aliases: []string{"m2/s2"}},
}

func (u SpecEnergyUnit) Coefficient() float64 { return specEnergyUnits[u].coefficient }
func (u SpecEnergyUnit) String() string       { return specEnergyUnits[u].symbol }

func (u SpecEnergyUnit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *SpecEnergyUnit) UnmarshalText(b []byte) error {
	i, err := lookupUnit(specEnergyUnits, "specific energy", string(b))
	if err != nil {
		return err
	}
	*u = SpecEnergyUnit(i)
	return nil
}
