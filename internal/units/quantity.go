package units

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Proportional is satisfied by every unit enum whose family converts by
// pure scaling.
type Proportional interface {
	comparable
	Coefficient() float64
	String() string
}

// Quantity is a value tagged with a proportional unit. The zero value is zero
// in the family's reference unit.
type Quantity[U Proportional] struct {
	value float64
	unit  U
}

type (
	Speed        = Quantity[SpeedUnit]
	Pressure     = Quantity[PressureUnit]
	Distance     = Quantity[DistanceUnit]
	PrecipAmount = Quantity[PrecipUnit]
	Fraction     = Quantity[FractionUnit]
	SpecEnergy   = Quantity[SpecEnergyUnit]
)

// New returns v expressed in unit u.
func New[U Proportional](v float64, u U) Quantity[U] {
	return Quantity[U]{value: v, unit: u}
}

func (q Quantity[U]) Value() float64 { return q.value }
func (q Quantity[U]) Unit() U        { return q.unit }

// Convert re-expresses q in unit to. Conversion never fails.
func (q Quantity[U]) Convert(to U) Quantity[U] {
	if q.unit == to {
		return q
	}
	return Quantity[U]{value: q.value * q.unit.Coefficient() / to.Coefficient(), unit: to}
}

// In returns the numeric value of q expressed in unit to.
func (q Quantity[U]) In(to U) float64 {
	return q.Convert(to).value
}

// Add returns q + o in q's unit.
func (q Quantity[U]) Add(o Quantity[U]) Quantity[U] {
	return Quantity[U]{value: q.value + o.In(q.unit), unit: q.unit}
}

// Sub returns q - o in q's unit.
func (q Quantity[U]) Sub(o Quantity[U]) Quantity[U] {
	return Quantity[U]{value: q.value - o.In(q.unit), unit: q.unit}
}

// Scale multiplies q by a dimensionless factor.
func (q Quantity[U]) Scale(f float64) Quantity[U] {
	return Quantity[U]{value: q.value * f, unit: q.unit}
}

// Ratio returns q / o as a plain number.
func (q Quantity[U]) Ratio(o Quantity[U]) float64 {
	return q.value / o.In(q.unit)
}

// Equal reports whether q and o denote the same amount after o is converted
// into q's unit.
func (q Quantity[U]) Equal(o Quantity[U]) bool {
	return q.value == o.In(q.unit)
}

// Less reports whether q is strictly smaller than o.
func (q Quantity[U]) Less(o Quantity[U]) bool {
	return q.value < o.In(q.unit)
}

func (q Quantity[U]) String() string {
	return formatValue(q.value, q.unit.String())
}

type quantityJSON[U Proportional] struct {
	Value *float64 `json:"value"`
	Unit  *U       `json:"unit"`
}

func (q Quantity[U]) MarshalJSON() ([]byte, error) {
	v, u := q.value, q.unit
	return json.Marshal(quantityJSON[U]{Value: &v, Unit: &u})
}

func (q *Quantity[U]) UnmarshalJSON(b []byte) error {
	var raw quantityJSON[U]
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode quantity: %w", err)
	}
	if raw.Value == nil {
		return errors.New("decode quantity: missing value")
	}
	if raw.Unit == nil {
		return errors.New("decode quantity: missing unit")
	}
	*q = Quantity[U]{value: *raw.Value, unit: *raw.Unit}
	return nil
}

func formatValue(v float64, symbol string) string {
	if symbol == "" {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.1f %s", v, symbol)
}
