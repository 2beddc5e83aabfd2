package units

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidDirection is returned for compass headings outside [0, 360].
var ErrInvalidDirection = errors.New("invalid direction")

// Direction is a compass heading quantized to 10 degree steps in [0, 350].
// The zero value is north.
type Direction struct {
	degrees uint16
}

// cardinals is indexed by quantized degrees / 10.
var cardinals = [36]string{
	"N", "N", "NNE", "NNE", "NE", "NE", "ENE", "ENE", "E", "E",
	"E", "ESE", "ESE", "SE", "SE", "SSE", "SSE", "S", "S", "S",
	"SSW", "SSW", "SW", "SW", "WSW", "WSW", "W", "W", "W", "WNW",
	"WNW", "NW", "NW", "NNW", "NNW", "N",
}

// NewDirection quantizes deg to the nearest multiple of 10 (halves round up)
// and wraps 360 to 0. Headings below 0 or above 360 are rejected.
func NewDirection(deg float64) (Direction, error) {
	if math.IsNaN(deg) || deg < 0 || deg > 360 {
		return Direction{}, fmt.Errorf("%w: %v degrees", ErrInvalidDirection, deg)
	}
	q := math.Floor((deg+5)/10) * 10
	return Direction{degrees: uint16(q) % 360}, nil
}

// MustDirection is NewDirection for constant headings. It panics on error.
func MustDirection(deg float64) Direction {
	d, err := NewDirection(deg)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Direction) Degrees() uint16 { return d.degrees }

// Cardinal returns the 16-point compass label, e.g. "WSW".
func (d Direction) Cardinal() string { return cardinals[d.degrees/10] }

func (d Direction) String() string {
	return fmt.Sprintf("%d° %s", d.degrees, d.Cardinal())
}

type directionJSON struct {
	Degrees  *float64 `json:"degrees"`
	Cardinal string   `json:"cardinal"`
}

func (d Direction) MarshalJSON() ([]byte, error) {
	deg := float64(d.degrees)
	return json.Marshal(directionJSON{Degrees: &deg, Cardinal: d.Cardinal()})
}

// UnmarshalJSON reads the degrees field and re-validates it. The cardinal
// label is derived, so any supplied value is ignored.
func (d *Direction) UnmarshalJSON(b []byte) error {
	var raw directionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode direction: %w", err)
	}
	if raw.Degrees == nil {
		return errors.New("decode direction: missing degrees")
	}
	v, err := NewDirection(*raw.Degrees)
	if err != nil {
		return fmt.Errorf("decode direction: %w", err)
	}
	*d = v
	return nil
}
