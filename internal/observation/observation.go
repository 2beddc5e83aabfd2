package observation

import (
	"errors"
	"time"

	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

// ErrLayerMissing means an observation listed a layer in Layers() that its
// own Layer lookup could not return.
var ErrLayerMissing = errors.New("declared layer missing")

// LayerData is the per-layer accessor surface. Optional readings return nil
// when absent. Dewpoint, humidity, heights, sea-level pressure and the
// comfort temperatures are computed from these by the package-level
// functions, so a backing only supplies what it measured.
type LayerData interface {
	Layer() Layer
	Station() *Station

	Temperature() *units.Temperature
	Pressure() *units.Pressure
	Visibility() *units.Distance
	Wind() *Wind
}

// DewpointReader is implemented by layers that carry a measured dewpoint.
// Dewpoint prefers it over the humidity-derived value.
type DewpointReader interface {
	Dewpoint() *units.Temperature
}

// HumidityReader is implemented by layers that carry a measured relative
// humidity. RelativeHumidity prefers it over the dewpoint-derived value.
type HumidityReader interface {
	RelativeHumidity() *units.Fraction
}

// HeightReader is implemented by layers that know their own height above
// sea level better than the layer tag and station altitude do.
type HeightReader interface {
	HeightAboveSeaLevel() *units.Distance
}

// Observation is one timestamped reading from a station. Observation-wide
// attributes return nil (or an empty value) when absent.
type Observation interface {
	Time() time.Time
	Station() *Station
	Layer(l Layer) (LayerData, bool)
	// Layers lists the physical layers present. It never includes All.
	Layers() []Layer

	SkyCover() *SkyCover
	WxCodes() []string
	RawReport() string
	PrecipToday() *Precip
	Precip() *Precip
	PrecipProbability() *units.Fraction
	Altimeter() *units.Pressure
	CAPE() *units.SpecEnergy
}

// NoReadings supplies absent defaults for the optional LayerData readings.
// Embed it in a layer type that only measures some of them.
type NoReadings struct{}

func (NoReadings) Temperature() *units.Temperature { return nil }
func (NoReadings) Pressure() *units.Pressure       { return nil }
func (NoReadings) Visibility() *units.Distance     { return nil }
func (NoReadings) Wind() *Wind                     { return nil }

// NoAttributes supplies absent defaults for the optional Observation
// attributes.
type NoAttributes struct{}

func (NoAttributes) SkyCover() *SkyCover                { return nil }
func (NoAttributes) WxCodes() []string                  { return nil }
func (NoAttributes) RawReport() string                  { return "" }
func (NoAttributes) PrecipToday() *Precip               { return nil }
func (NoAttributes) Precip() *Precip                    { return nil }
func (NoAttributes) PrecipProbability() *units.Fraction { return nil }
func (NoAttributes) Altimeter() *units.Pressure         { return nil }
func (NoAttributes) CAPE() *units.SpecEnergy            { return nil }

func ptr[T any](v T) *T { return &v }
