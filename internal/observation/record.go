package observation

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

// LayerFields are the optional readings of one layer. Nil means absent.
type LayerFields struct {
	Temperature      *units.Temperature
	Pressure         *units.Pressure
	Visibility       *units.Distance
	Wind             *Wind
	Dewpoint         *units.Temperature
	RelativeHumidity *units.Fraction
	HeightMSL        *units.Distance
}

// LayerRecord is the dense per-layer backing: every reading is an explicit
// slot. It is immutable once built.
type LayerRecord struct {
	layer   Layer
	station *Station
	f       LayerFields
}

// NewLayerRecord builds a layer for station s.
func NewLayerRecord(layer Layer, s *Station, f LayerFields) *LayerRecord {
	return &LayerRecord{layer: layer, station: s, f: f}
}

func (r *LayerRecord) Layer() Layer                      { return r.layer }
func (r *LayerRecord) Station() *Station                 { return r.station }
func (r *LayerRecord) Temperature() *units.Temperature   { return r.f.Temperature }
func (r *LayerRecord) Pressure() *units.Pressure         { return r.f.Pressure }
func (r *LayerRecord) Visibility() *units.Distance       { return r.f.Visibility }
func (r *LayerRecord) Wind() *Wind                       { return r.f.Wind }
func (r *LayerRecord) Dewpoint() *units.Temperature      { return r.f.Dewpoint }
func (r *LayerRecord) RelativeHumidity() *units.Fraction { return r.f.RelativeHumidity }
func (r *LayerRecord) HeightAboveSeaLevel() *units.Distance {
	return r.f.HeightMSL
}

// Fields returns a copy of the layer's readings.
func (r *LayerRecord) Fields() LayerFields { return r.f }

// RecordFields are the optional observation-wide attributes.
type RecordFields struct {
	SkyCover          *SkyCover
	WxCodes           []string
	RawReport         string
	PrecipToday       *Precip
	Precip            *Precip
	PrecipProbability *units.Fraction
	Altimeter         *units.Pressure
	CAPE              *units.SpecEnergy
}

// Record is the dense observation backing.
type Record struct {
	time    time.Time
	station *Station
	layers  map[Layer]*LayerRecord
	f       RecordFields
}

// NewRecord assembles an observation. It rejects nil layers, the All layer,
// duplicate layers and layers that reference a different station.
func NewRecord(t time.Time, s *Station, layers []*LayerRecord, f RecordFields) (*Record, error) {
	if s == nil {
		return nil, fmt.Errorf("new record: station is required")
	}
	m := make(map[Layer]*LayerRecord, len(layers))
	for i, l := range layers {
		switch {
		case l == nil:
			return nil, fmt.Errorf("new record: layer %d is nil", i)
		case l.station == nil:
			return nil, fmt.Errorf("new record: layer %s has no station", l.layer)
		case l.layer == All:
			return nil, fmt.Errorf("new record: %w: all is not a physical layer", ErrInvalidLayer)
		case l.station != s:
			return nil, fmt.Errorf("new record: layer %s belongs to station %q", l.layer, l.station.Name())
		}
		if _, dup := m[l.layer]; dup {
			return nil, fmt.Errorf("new record: duplicate layer %s", l.layer)
		}
		m[l.layer] = l
	}
	f.WxCodes = slices.Clone(f.WxCodes)
	return &Record{time: t, station: s, layers: m, f: f}, nil
}

func (r *Record) Time() time.Time   { return r.time }
func (r *Record) Station() *Station { return r.station }

func (r *Record) Layer(l Layer) (LayerData, bool) {
	lr, ok := r.layers[l]
	if !ok {
		return nil, false
	}
	return lr, true
}

func (r *Record) Layers() []Layer {
	return slices.SortedFunc(maps.Keys(r.layers), Layer.Compare)
}

func (r *Record) SkyCover() *SkyCover                { return r.f.SkyCover }
func (r *Record) WxCodes() []string                  { return r.f.WxCodes }
func (r *Record) RawReport() string                  { return r.f.RawReport }
func (r *Record) PrecipToday() *Precip               { return r.f.PrecipToday }
func (r *Record) Precip() *Precip                    { return r.f.Precip }
func (r *Record) PrecipProbability() *units.Fraction { return r.f.PrecipProbability }
func (r *Record) Altimeter() *units.Pressure         { return r.f.Altimeter }
func (r *Record) CAPE() *units.SpecEnergy            { return r.f.CAPE }

// Fields returns a copy of the observation-wide attributes.
func (r *Record) Fields() RecordFields { return r.f }

// LayerRecordFrom materializes any LayerData, pulling both halves of the
// dewpoint/humidity pair.
func LayerRecordFrom(l LayerData) *LayerRecord {
	f := LayerFields{
		Temperature:      l.Temperature(),
		Pressure:         l.Pressure(),
		Visibility:       l.Visibility(),
		Wind:             l.Wind(),
		Dewpoint:         Dewpoint(l),
		RelativeHumidity: RelativeHumidity(l),
	}
	if r, ok := l.(HeightReader); ok {
		f.HeightMSL = r.HeightAboveSeaLevel()
	}
	return NewLayerRecord(l.Layer(), l.Station(), f)
}

// ToRecord copies any observation into a dense Record. It fails only when a
// layer listed by Layers() cannot be looked up.
func ToRecord(o Observation) (*Record, error) {
	if r, ok := o.(*Record); ok {
		return r, nil
	}
	declared := o.Layers()
	layers := make([]*LayerRecord, 0, len(declared))
	for _, l := range declared {
		ld, ok := o.Layer(l)
		if !ok {
			return nil, fmt.Errorf("to record: %w: %s", ErrLayerMissing, l)
		}
		lr := LayerRecordFrom(ld)
		lr.station = o.Station()
		layers = append(layers, lr)
	}
	return NewRecord(o.Time(), o.Station(), layers, RecordFields{
		SkyCover:          o.SkyCover(),
		WxCodes:           o.WxCodes(),
		RawReport:         o.RawReport(),
		PrecipToday:       o.PrecipToday(),
		Precip:            o.Precip(),
		PrecipProbability: o.PrecipProbability(),
		Altimeter:         o.Altimeter(),
		CAPE:              o.CAPE(),
	})
}
