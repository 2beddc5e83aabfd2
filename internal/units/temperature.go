package units

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TemperatureUnit enumerates temperature scales.
type TemperatureUnit uint8

const (
	Kelvin TemperatureUnit = iota
	Celsius
	Fahrenheit
)

const absoluteZeroC = 273.15

var temperatureUnits = []unitDef{
	Kelvin:     {symbol: "K", aliases: []string{"°K"}},
	Celsius:    {symbol: "°C", aliases: []string{"C"}},
	Fahrenheit: {symbol: "°F", aliases: []string{"F"}},
}

func (u TemperatureUnit) String() string { return temperatureUnits[u].symbol }

func (u TemperatureUnit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *TemperatureUnit) UnmarshalText(b []byte) error {
	i, err := lookupUnit(temperatureUnits, "temperature", string(b))
	if err != nil {
		return err
	}
	*u = TemperatureUnit(i)
	return nil
}

// Temperature is an affine quantity. Conversions pass through Kelvin.
type Temperature struct {
	value float64
	unit  TemperatureUnit
}

// NewTemperature returns v on scale u.
func NewTemperature(v float64, u TemperatureUnit) Temperature {
	return Temperature{value: v, unit: u}
}

func (t Temperature) Value() float64        { return t.value }
func (t Temperature) Unit() TemperatureUnit { return t.unit }

func (t Temperature) kelvin() float64 {
	switch t.unit {
	case Celsius:
		return t.value + absoluteZeroC
	case Fahrenheit:
		return (t.value-32)*5/9 + absoluteZeroC
	default:
		return t.value
	}
}

func fromKelvin(k float64, to TemperatureUnit) float64 {
	switch to {
	case Celsius:
		return k - absoluteZeroC
	case Fahrenheit:
		return (k-absoluteZeroC)*9/5 + 32
	default:
		return k
	}
}

// Convert re-expresses t on scale to.
func (t Temperature) Convert(to TemperatureUnit) Temperature {
	if t.unit == to {
		return t
	}
	return Temperature{value: fromKelvin(t.kelvin(), to), unit: to}
}

// In returns the numeric value of t on scale to.
func (t Temperature) In(to TemperatureUnit) float64 {
	return t.Convert(to).value
}

// Equal reports whether t and o are the same temperature once o is expressed
// on t's scale.
func (t Temperature) Equal(o Temperature) bool {
	return t.value == o.In(t.unit)
}

// Less reports whether t is colder than o.
func (t Temperature) Less(o Temperature) bool {
	return t.value < o.In(t.unit)
}

func (t Temperature) String() string {
	return formatValue(t.value, t.unit.String())
}

type temperatureJSON struct {
	Value *float64         `json:"value"`
	Unit  *TemperatureUnit `json:"unit"`
}

func (t Temperature) MarshalJSON() ([]byte, error) {
	v, u := t.value, t.unit
	return json.Marshal(temperatureJSON{Value: &v, Unit: &u})
}

func (t *Temperature) UnmarshalJSON(b []byte) error {
	var raw temperatureJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode temperature: %w", err)
	}
	if raw.Value == nil {
		return errors.New("decode temperature: missing value")
	}
	if raw.Unit == nil {
		return errors.New("decode temperature: missing unit")
	}
	*t = Temperature{value: *raw.Value, unit: *raw.Unit}
	return nil
}
