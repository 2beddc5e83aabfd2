package observation

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

// ErrInvalidLayer is returned when a layer key cannot be parsed.
var ErrInvalidLayer = errors.New("invalid layer")

// LayerKind tags the vertical reference a Layer denotes.
type LayerKind uint8

const (
	KindAll LayerKind = iota
	KindIndoor
	KindNearSurface
	KindSeaLevel
	KindAGL
	KindMSL
	KindMBAR
)

// Layer identifies the vertical level a reading belongs to. AGL and MSL
// layers carry a height in meters; MBAR layers carry a pressure in mb.
// Layers are comparable and usable as map keys.
type Layer struct {
	kind  LayerKind
	value float64
}

// Fixed layers. All holds observation-wide attributes and has no height.
var (
	All         = Layer{kind: KindAll}
	Indoor      = Layer{kind: KindIndoor}
	NearSurface = Layer{kind: KindNearSurface}
	SeaLevel    = Layer{kind: KindSeaLevel}
)

// AGL returns the layer h above ground level.
func AGL(h units.Distance) Layer { return Layer{kind: KindAGL, value: h.In(units.Meter)} }

// MSL returns the layer h above mean sea level.
func MSL(h units.Distance) Layer { return Layer{kind: KindMSL, value: h.In(units.Meter)} }

// MBAR returns the isobaric layer at pressure p.
func MBAR(p units.Pressure) Layer { return Layer{kind: KindMBAR, value: p.In(units.Millibar)} }

func (l Layer) Kind() LayerKind { return l.kind }

// HeightAboveGround resolves the layer's canonical height for a station at
// altitude stationAlt. All and MBAR have no defined height and return nil.
func (l Layer) HeightAboveGround(stationAlt units.Distance) *units.Distance {
	var h units.Distance
	switch l.kind {
	case KindIndoor:
		h = units.New(1.0, units.Meter)
	case KindNearSurface:
		h = units.New(2.0, units.Meter)
	case KindSeaLevel:
		h = stationAlt.Scale(-1)
	case KindAGL:
		h = units.New(l.value, units.Meter)
	case KindMSL:
		h = units.New(l.value, units.Meter).Sub(stationAlt)
	default:
		return nil
	}
	return &h
}

// Compare orders layers by kind, then by value.
func (l Layer) Compare(o Layer) int {
	if c := cmp.Compare(l.kind, o.kind); c != 0 {
		return c
	}
	return cmp.Compare(l.value, o.value)
}

var layerNames = map[LayerKind]string{
	KindAll:         "all",
	KindIndoor:      "indoor",
	KindNearSurface: "near_surface",
	KindSeaLevel:    "sea_level",
	KindAGL:         "agl",
	KindMSL:         "msl",
	KindMBAR:        "mbar",
}

// String returns the key form, e.g. "near_surface" or "agl:10".
func (l Layer) String() string {
	name := layerNames[l.kind]
	switch l.kind {
	case KindAGL, KindMSL, KindMBAR:
		return name + ":" + strconv.FormatFloat(l.value, 'f', -1, 64)
	}
	return name
}

// Display returns a human label such as "Near Surface" or "33 ft AGL".
func (l Layer) Display() string {
	switch l.kind {
	case KindAll:
		return "All"
	case KindIndoor:
		return "Indoor"
	case KindNearSurface:
		return "Near Surface"
	case KindSeaLevel:
		return "Sea Level"
	case KindAGL:
		return fmt.Sprintf("%.0f ft AGL", units.New(l.value, units.Meter).In(units.Foot))
	case KindMSL:
		return fmt.Sprintf("%.0f ft MSL", units.New(l.value, units.Meter).In(units.Foot))
	default:
		return fmt.Sprintf("%.0f mb", l.value)
	}
}

// ParseLayer parses the key form produced by String.
func ParseLayer(s string) (Layer, error) {
	name, arg, hasArg := strings.Cut(s, ":")
	for kind, n := range layerNames {
		if n != name {
			continue
		}
		switch kind {
		case KindAGL, KindMSL, KindMBAR:
			if !hasArg {
				return Layer{}, fmt.Errorf("%w: %q needs a value", ErrInvalidLayer, s)
			}
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return Layer{}, fmt.Errorf("%w: %q: %w", ErrInvalidLayer, s, err)
			}
			return Layer{kind: kind, value: v}, nil
		default:
			if hasArg {
				return Layer{}, fmt.Errorf("%w: %q takes no value", ErrInvalidLayer, s)
			}
			return Layer{kind: kind}, nil
		}
	}
	return Layer{}, fmt.Errorf("%w: %q", ErrInvalidLayer, s)
}

func (l Layer) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Layer) UnmarshalText(b []byte) error {
	v, err := ParseLayer(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
