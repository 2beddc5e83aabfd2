package observation

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

// ErrKindMismatch is returned by Sparse.Put when a value's kind does not
// match the parameter it is stored under.
var ErrKindMismatch = errors.New("value kind does not match parameter")

// Param names one attribute slot of an observation.
type Param uint8

const (
	ParamTemperature Param = iota
	ParamPressure
	ParamVisibility
	ParamWind
	ParamWindSpeed
	ParamWindDirection
	ParamDewpoint
	ParamRelativeHumidity

	// Observation-wide parameters, stored under the All layer.
	ParamSkyCover
	ParamWxCodes
	ParamRawReport
	ParamPrecipToday
	ParamPrecip
	ParamPrecipProbability
	ParamAltimeter
	ParamCAPE
)

// ValueKind tags the concrete type held by a Value. The zero Value has no
// kind and every getter returns nil.
type ValueKind uint8

const (
	kindNone ValueKind = iota
	KindTemperature
	KindPressure
	KindDistance
	KindSpeed
	KindDirection
	KindWind
	KindFraction
	KindPrecip
	KindSpecEnergy
	KindSkyCover
	KindText
	KindTextList
)

var paramKinds = [...]ValueKind{
	ParamTemperature:       KindTemperature,
	ParamPressure:          KindPressure,
	ParamVisibility:        KindDistance,
	ParamWind:              KindWind,
	ParamWindSpeed:         KindSpeed,
	ParamWindDirection:     KindDirection,
	ParamDewpoint:          KindTemperature,
	ParamRelativeHumidity:  KindFraction,
	ParamSkyCover:          KindSkyCover,
	ParamWxCodes:           KindTextList,
	ParamRawReport:         KindText,
	ParamPrecipToday:       KindPrecip,
	ParamPrecip:            KindPrecip,
	ParamPrecipProbability: KindFraction,
	ParamAltimeter:         KindPressure,
	ParamCAPE:              KindSpecEnergy,
}

// Kind returns the value kind the parameter accepts.
func (p Param) Kind() ValueKind { return paramKinds[p] }

// ObservationWide reports whether p belongs under the All layer.
func (p Param) ObservationWide() bool { return p >= ParamSkyCover }

// Value is a closed tagged union over every attribute type. Build one with
// the XxxValue constructors; read it back with the typed getters, which
// return nil on a kind mismatch.
type Value struct {
	kind ValueKind

	temperature units.Temperature
	pressure    units.Pressure
	distance    units.Distance
	speed       units.Speed
	direction   units.Direction
	wind        Wind
	fraction    units.Fraction
	precip      Precip
	specEnergy  units.SpecEnergy
	skyCover    SkyCover
	text        string
	textList    []string
}

func TemperatureValue(v units.Temperature) Value { return Value{kind: KindTemperature, temperature: v} }
func PressureValue(v units.Pressure) Value       { return Value{kind: KindPressure, pressure: v} }
func DistanceValue(v units.Distance) Value       { return Value{kind: KindDistance, distance: v} }
func SpeedValue(v units.Speed) Value             { return Value{kind: KindSpeed, speed: v} }
func DirectionValue(v units.Direction) Value     { return Value{kind: KindDirection, direction: v} }
func WindValue(v Wind) Value                     { return Value{kind: KindWind, wind: v} }
func FractionValue(v units.Fraction) Value       { return Value{kind: KindFraction, fraction: v} }
func PrecipValue(v Precip) Value                 { return Value{kind: KindPrecip, precip: v} }
func SpecEnergyValue(v units.SpecEnergy) Value   { return Value{kind: KindSpecEnergy, specEnergy: v} }
func SkyCoverValue(v SkyCover) Value             { return Value{kind: KindSkyCover, skyCover: v} }
func TextValue(v string) Value                   { return Value{kind: KindText, text: v} }
func TextListValue(v []string) Value {
	return Value{kind: KindTextList, textList: slices.Clone(v)}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) Temperature() *units.Temperature { return pick(v, KindTemperature, v.temperature) }
func (v Value) Pressure() *units.Pressure       { return pick(v, KindPressure, v.pressure) }
func (v Value) Distance() *units.Distance       { return pick(v, KindDistance, v.distance) }
func (v Value) Speed() *units.Speed             { return pick(v, KindSpeed, v.speed) }
func (v Value) Direction() *units.Direction     { return pick(v, KindDirection, v.direction) }
func (v Value) Wind() *Wind                     { return pick(v, KindWind, v.wind) }
func (v Value) Fraction() *units.Fraction       { return pick(v, KindFraction, v.fraction) }
func (v Value) Precip() *Precip                 { return pick(v, KindPrecip, v.precip) }
func (v Value) SpecEnergy() *units.SpecEnergy   { return pick(v, KindSpecEnergy, v.specEnergy) }
func (v Value) SkyCover() *SkyCover             { return pick(v, KindSkyCover, v.skyCover) }
func (v Value) Text() *string                   { return pick(v, KindText, v.text) }
func (v Value) TextList() []string {
	if v.kind != KindTextList {
		return nil
	}
	return v.textList
}

func pick[T any](v Value, want ValueKind, field T) *T {
	if v.kind != want {
		return nil
	}
	return &field
}

type sparseKey struct {
	layer Layer
	param Param
}

// Sparse is the dynamically populated backing: adapters Put only what they
// observed. Put must not be called once the observation has been handed to
// readers.
type Sparse struct {
	time    time.Time
	station *Station
	values  map[sparseKey]Value
}

// NewSparse starts an empty observation.
func NewSparse(t time.Time, s *Station) *Sparse {
	return &Sparse{time: t, station: s, values: make(map[sparseKey]Value)}
}

// Put stores v under (layer, param). Observation-wide parameters must use
// the All layer and per-layer parameters must not.
func (s *Sparse) Put(layer Layer, param Param, v Value) error {
	if int(param) >= len(paramKinds) {
		return fmt.Errorf("put: unknown parameter %d", param)
	}
	if param.Kind() != v.kind {
		return fmt.Errorf("put %s/%d: %w", layer, param, ErrKindMismatch)
	}
	if param.ObservationWide() != (layer == All) {
		return fmt.Errorf("put %s/%d: %w: wrong layer for parameter", layer, param, ErrInvalidLayer)
	}
	s.values[sparseKey{layer, param}] = v
	return nil
}

// Get returns the raw value stored under (layer, param).
func (s *Sparse) Get(layer Layer, param Param) (Value, bool) {
	v, ok := s.values[sparseKey{layer, param}]
	return v, ok
}

func (s *Sparse) get(layer Layer, param Param) Value {
	return s.values[sparseKey{layer, param}]
}

func (s *Sparse) Time() time.Time   { return s.time }
func (s *Sparse) Station() *Station { return s.station }

func (s *Sparse) Layer(l Layer) (LayerData, bool) {
	if l == All {
		return nil, false
	}
	for k := range s.values {
		if k.layer == l {
			return sparseLayer{s: s, layer: l}, true
		}
	}
	return nil, false
}

func (s *Sparse) Layers() []Layer {
	seen := make(map[Layer]struct{})
	for k := range s.values {
		if k.layer != All {
			seen[k.layer] = struct{}{}
		}
	}
	return slices.SortedFunc(maps.Keys(seen), Layer.Compare)
}

func (s *Sparse) SkyCover() *SkyCover { return s.get(All, ParamSkyCover).SkyCover() }
func (s *Sparse) WxCodes() []string   { return s.get(All, ParamWxCodes).TextList() }

func (s *Sparse) RawReport() string {
	if t := s.get(All, ParamRawReport).Text(); t != nil {
		return *t
	}
	return ""
}

func (s *Sparse) PrecipToday() *Precip { return s.get(All, ParamPrecipToday).Precip() }
func (s *Sparse) Precip() *Precip      { return s.get(All, ParamPrecip).Precip() }
func (s *Sparse) PrecipProbability() *units.Fraction {
	return s.get(All, ParamPrecipProbability).Fraction()
}
func (s *Sparse) Altimeter() *units.Pressure { return s.get(All, ParamAltimeter).Pressure() }
func (s *Sparse) CAPE() *units.SpecEnergy    { return s.get(All, ParamCAPE).SpecEnergy() }

// sparseLayer is a read view of one layer of a Sparse observation.
type sparseLayer struct {
	s     *Sparse
	layer Layer
}

func (l sparseLayer) Layer() Layer      { return l.layer }
func (l sparseLayer) Station() *Station { return l.s.station }

func (l sparseLayer) Temperature() *units.Temperature {
	return l.s.get(l.layer, ParamTemperature).Temperature()
}

func (l sparseLayer) Pressure() *units.Pressure {
	return l.s.get(l.layer, ParamPressure).Pressure()
}

func (l sparseLayer) Visibility() *units.Distance {
	return l.s.get(l.layer, ParamVisibility).Distance()
}

// Wind prefers a whole Wind value, else composes one from a stored speed and
// optional direction.
func (l sparseLayer) Wind() *Wind {
	if w := l.s.get(l.layer, ParamWind).Wind(); w != nil {
		return w
	}
	speed := l.s.get(l.layer, ParamWindSpeed).Speed()
	if speed == nil {
		return nil
	}
	return &Wind{Speed: *speed, Direction: l.s.get(l.layer, ParamWindDirection).Direction()}
}

func (l sparseLayer) Dewpoint() *units.Temperature {
	return l.s.get(l.layer, ParamDewpoint).Temperature()
}

func (l sparseLayer) RelativeHumidity() *units.Fraction {
	return l.s.get(l.layer, ParamRelativeHumidity).Fraction()
}
