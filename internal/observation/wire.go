package observation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/wx-observation-etl/internal/units"
	"github.com/couchcryptid/wx-observation-etl/internal/wx"
)

// ErrInvalidWire wraps every structural problem found by DecodeWire.
var ErrInvalidWire = errors.New("invalid wire record")

var validate = validator.New(validator.WithRequiredStructEnabled())

// wireRecord is the serialized observation accepted on the ingestion topic.
type wireRecord struct {
	DateTime          time.Time            `json:"date_time" validate:"required"`
	Station           stationJSON          `json:"station"`
	Layers            map[string]wireLayer `json:"layers" validate:"required,dive"`
	SkyCover          *SkyCover            `json:"skycover,omitempty"`
	WxCodes           []string             `json:"wx_codes,omitempty" validate:"omitempty,dive,required"`
	RawReport         string               `json:"raw_metar,omitempty"`
	PrecipToday       *Precip              `json:"precip_today,omitempty"`
	Precip            *Precip              `json:"precip,omitempty"`
	PrecipProbability *units.Fraction      `json:"precip_probability,omitempty"`
	Altimeter         *units.Pressure      `json:"altimeter,omitempty"`
	CAPE              *units.SpecEnergy    `json:"cape,omitempty"`
}

type wireLayer struct {
	Layer            Layer              `json:"layer"`
	Temperature      *units.Temperature `json:"temperature,omitempty"`
	Pressure         *units.Pressure    `json:"pressure,omitempty"`
	Visibility       *units.Distance    `json:"visibility,omitempty"`
	Wind             *Wind              `json:"wind,omitempty"`
	Dewpoint         *units.Temperature `json:"dewpoint,omitempty"`
	RelativeHumidity *units.Fraction    `json:"relative_humidity,omitempty"`
}

// Wire is an observation decoded from its serialized form. Use DecodeWire to
// build one.
type Wire struct {
	rec     wireRecord
	station *Station
	layers  map[Layer]*wireLayer
}

// DecodeWire parses and validates a serialized observation. Unknown fields,
// missing required fields, malformed layer keys or codes, unknown unit
// symbols and out-of-range directions are all rejected.
func DecodeWire(data []byte) (*Wire, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var rec wireRecord
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWire, err)
	}
	if err := validate.Struct(rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWire, err)
	}

	loc, err := time.LoadLocation(rec.Station.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: station time zone: %w", ErrInvalidWire, err)
	}
	station := NewStation(rec.Station.Name, *rec.Station.Altitude, *rec.Station.Coords, loc)

	layers := make(map[Layer]*wireLayer, len(rec.Layers))
	for key, wl := range rec.Layers {
		l, err := ParseLayer(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidWire, err)
		}
		if l == All {
			return nil, fmt.Errorf("%w: layer %q is not a physical layer", ErrInvalidWire, key)
		}
		if wl.Layer != l {
			return nil, fmt.Errorf("%w: layer key %q disagrees with tag %q", ErrInvalidWire, key, wl.Layer)
		}
		if _, dup := layers[l]; dup {
			return nil, fmt.Errorf("%w: layer %s appears under more than one key", ErrInvalidWire, l)
		}
		layers[l] = &wl
	}

	for _, code := range rec.WxCodes {
		if err := wx.ValidateCode(code); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidWire, err)
		}
	}

	return &Wire{rec: rec, station: station, layers: layers}, nil
}

func (w *Wire) Time() time.Time   { return w.rec.DateTime }
func (w *Wire) Station() *Station { return w.station }

func (w *Wire) Layer(l Layer) (LayerData, bool) {
	wl, ok := w.layers[l]
	if !ok {
		return nil, false
	}
	return wireLayerView{wl: wl, station: w.station}, true
}

func (w *Wire) Layers() []Layer {
	return slices.SortedFunc(maps.Keys(w.layers), Layer.Compare)
}

func (w *Wire) SkyCover() *SkyCover                { return w.rec.SkyCover }
func (w *Wire) WxCodes() []string                  { return w.rec.WxCodes }
func (w *Wire) RawReport() string                  { return w.rec.RawReport }
func (w *Wire) PrecipToday() *Precip               { return w.rec.PrecipToday }
func (w *Wire) Precip() *Precip                    { return w.rec.Precip }
func (w *Wire) PrecipProbability() *units.Fraction { return w.rec.PrecipProbability }
func (w *Wire) Altimeter() *units.Pressure         { return w.rec.Altimeter }
func (w *Wire) CAPE() *units.SpecEnergy            { return w.rec.CAPE }

type wireLayerView struct {
	wl      *wireLayer
	station *Station
}

func (v wireLayerView) Layer() Layer                      { return v.wl.Layer }
func (v wireLayerView) Station() *Station                 { return v.station }
func (v wireLayerView) Temperature() *units.Temperature   { return v.wl.Temperature }
func (v wireLayerView) Pressure() *units.Pressure         { return v.wl.Pressure }
func (v wireLayerView) Visibility() *units.Distance       { return v.wl.Visibility }
func (v wireLayerView) Wind() *Wind                       { return v.wl.Wind }
func (v wireLayerView) Dewpoint() *units.Temperature      { return v.wl.Dewpoint }
func (v wireLayerView) RelativeHumidity() *units.Fraction { return v.wl.RelativeHumidity }

// EncodeWire serializes any observation into the form DecodeWire accepts.
func EncodeWire(o Observation) ([]byte, error) {
	rec := wireRecord{
		DateTime:          o.Time().UTC(),
		Station:           o.Station().toJSON(),
		Layers:            make(map[string]wireLayer),
		SkyCover:          o.SkyCover(),
		WxCodes:           o.WxCodes(),
		RawReport:         o.RawReport(),
		PrecipToday:       o.PrecipToday(),
		Precip:            o.Precip(),
		PrecipProbability: o.PrecipProbability(),
		Altimeter:         o.Altimeter(),
		CAPE:              o.CAPE(),
	}
	for _, l := range o.Layers() {
		ld, ok := o.Layer(l)
		if !ok {
			return nil, fmt.Errorf("encode wire: %w: %s", ErrLayerMissing, l)
		}
		rec.Layers[l.String()] = wireLayer{
			Layer:            l,
			Temperature:      ld.Temperature(),
			Pressure:         ld.Pressure(),
			Visibility:       ld.Visibility(),
			Wind:             ld.Wind(),
			Dewpoint:         nativeDewpoint(ld),
			RelativeHumidity: nativeHumidity(ld),
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode wire: %w", err)
	}
	return data, nil
}
