// Package projection materializes an observation into a flat, unit-converted
// form for export. Every derived quantity is computed once at projection
// time and stored alongside the measured ones, so consumers of the JSON
// never need the formulas.
package projection

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/couchcryptid/wx-observation-etl/internal/comfort"
	"github.com/couchcryptid/wx-observation-etl/internal/observation"
	"github.com/couchcryptid/wx-observation-etl/internal/units"
	"github.com/couchcryptid/wx-observation-etl/internal/wx"
)

// UnitPreferences selects the display unit per quantity family. Relative
// humidity is always projected in percent.
type UnitPreferences struct {
	Temperature units.TemperatureUnit `json:"temperature"`
	Pressure    units.PressureUnit    `json:"pressure"`
	Distance    units.DistanceUnit    `json:"distance"`
	Speed       units.SpeedUnit       `json:"speed"`
	ThetaE      units.TemperatureUnit `json:"theta_e"`
}

// DefaultPreferences returns °F, mb, miles, knots and Kelvin for theta-e.
func DefaultPreferences() UnitPreferences {
	return UnitPreferences{
		Temperature: units.Fahrenheit,
		Pressure:    units.Millibar,
		Distance:    units.Mile,
		Speed:       units.Knots,
		ThetaE:      units.Kelvin,
	}
}

// Layer is one projected layer. All values are already converted.
type Layer struct {
	layer   observation.Layer
	station *observation.Station
	v       layerValues
}

type layerValues struct {
	Temperature      *units.Temperature `json:"temperature,omitempty"`
	Pressure         *units.Pressure    `json:"pressure,omitempty"`
	Visibility       *units.Distance    `json:"visibility,omitempty"`
	Wind             *observation.Wind  `json:"wind,omitempty"`
	Dewpoint         *units.Temperature `json:"dewpoint,omitempty"`
	RelativeHumidity *units.Fraction    `json:"relative_humidity,omitempty"`
	ProjectedSLP     *units.Pressure    `json:"projected_slp,omitempty"`
	WindChillValid   *bool              `json:"wind_chill_valid,omitempty"`
	WindChill        *units.Temperature `json:"wind_chill,omitempty"`
	HeatIndexValid   *bool              `json:"heat_index_valid,omitempty"`
	HeatIndex        *units.Temperature `json:"heat_index,omitempty"`
	ApparentTemp     *units.Temperature `json:"apparent_temp,omitempty"`
	ThetaE           *units.Temperature `json:"theta_e,omitempty"`
}

// Projection is a read-only, unit-converted observation. It satisfies
// observation.Observation, so the derived functions still work on it.
type Projection struct {
	time    time.Time
	local   time.Time
	station *observation.Station
	layers  map[observation.Layer]*Layer

	skyCover          *observation.SkyCover
	wxCodes           []string
	wx                *wx.Wx
	rawReport         string
	precipToday       *observation.Precip
	precip            *observation.Precip
	precipProbability *units.Fraction
	altimeter         *units.Pressure
	cape              *units.SpecEnergy
	bestSLP           *units.Pressure
	comfort           *comfort.Result
}

// Project converts o into prefs. It fails when o lists a layer it cannot
// return.
func Project(o observation.Observation, prefs UnitPreferences) (*Projection, error) {
	p := &Projection{
		time:              o.Time(),
		local:             observation.LocalTime(o),
		station:           o.Station(),
		layers:            make(map[observation.Layer]*Layer),
		skyCover:          o.SkyCover(),
		wxCodes:           slices.Clone(o.WxCodes()),
		wx:                observation.PresentWeather(o),
		rawReport:         o.RawReport(),
		precipToday:       o.PrecipToday(),
		precip:            o.Precip(),
		precipProbability: o.PrecipProbability(),
		altimeter:         o.Altimeter(),
		cape:              o.CAPE(),
		bestSLP:           convert(observation.BestSeaLevelPressure(o), prefs.Pressure),
	}
	if r, ok := comfort.Index(o); ok {
		p.comfort = &r
	}

	for _, l := range o.Layers() {
		ld, ok := o.Layer(l)
		if !ok {
			return nil, fmt.Errorf("project %s: %w: %s", o.Station().Name(), observation.ErrLayerMissing, l)
		}
		p.layers[l] = projectLayer(ld, o.Altimeter(), prefs)
	}
	return p, nil
}

func projectLayer(l observation.LayerData, altimeter *units.Pressure, prefs UnitPreferences) *Layer {
	var wind *observation.Wind
	if w := l.Wind(); w != nil {
		wind = &observation.Wind{Speed: w.Speed.Convert(prefs.Speed), Direction: w.Direction}
	}
	return &Layer{layer: l.Layer(), station: l.Station(), v: layerValues{
		Temperature:      convertTemp(l.Temperature(), prefs.Temperature),
		Pressure:         convert(l.Pressure(), prefs.Pressure),
		Visibility:       convert(l.Visibility(), prefs.Distance),
		Wind:             wind,
		Dewpoint:         convertTemp(observation.Dewpoint(l), prefs.Temperature),
		RelativeHumidity: convert(observation.RelativeHumidity(l), units.Percent),
		ProjectedSLP:     convert(observation.SeaLevelPressure(l), prefs.Pressure),
		WindChillValid:   observation.WindChillValid(l),
		WindChill:        convertTemp(observation.WindChill(l), prefs.Temperature),
		HeatIndexValid:   observation.HeatIndexValid(l),
		HeatIndex:        convertTemp(observation.HeatIndex(l), prefs.Temperature),
		ApparentTemp:     convertTemp(observation.ApparentTemperature(l), prefs.Temperature),
		ThetaE:           convertTemp(observation.ThetaE(l, altimeter), prefs.ThetaE),
	}}
}

func convert[U units.Proportional](q *units.Quantity[U], to U) *units.Quantity[U] {
	if q == nil {
		return nil
	}
	c := q.Convert(to)
	return &c
}

func convertTemp(t *units.Temperature, to units.TemperatureUnit) *units.Temperature {
	if t == nil {
		return nil
	}
	c := t.Convert(to)
	return &c
}

func (l *Layer) Layer() observation.Layer          { return l.layer }
func (l *Layer) Station() *observation.Station     { return l.station }
func (l *Layer) Temperature() *units.Temperature   { return l.v.Temperature }
func (l *Layer) Pressure() *units.Pressure         { return l.v.Pressure }
func (l *Layer) Visibility() *units.Distance       { return l.v.Visibility }
func (l *Layer) Wind() *observation.Wind           { return l.v.Wind }
func (l *Layer) Dewpoint() *units.Temperature      { return l.v.Dewpoint }
func (l *Layer) RelativeHumidity() *units.Fraction { return l.v.RelativeHumidity }

// ProjectedSLP is the layer pressure reduced to sea level.
func (l *Layer) ProjectedSLP() *units.Pressure { return l.v.ProjectedSLP }

func (l *Layer) WindChillValid() *bool            { return l.v.WindChillValid }
func (l *Layer) WindChill() *units.Temperature    { return l.v.WindChill }
func (l *Layer) HeatIndexValid() *bool            { return l.v.HeatIndexValid }
func (l *Layer) HeatIndex() *units.Temperature    { return l.v.HeatIndex }
func (l *Layer) ApparentTemp() *units.Temperature { return l.v.ApparentTemp }
func (l *Layer) ThetaE() *units.Temperature       { return l.v.ThetaE }

func (l *Layer) MarshalJSON() ([]byte, error) { return json.Marshal(l.v) }

func (p *Projection) Time() time.Time               { return p.time }
func (p *Projection) Station() *observation.Station { return p.station }

func (p *Projection) Layer(l observation.Layer) (observation.LayerData, bool) {
	pl, ok := p.layers[l]
	if !ok {
		return nil, false
	}
	return pl, true
}

func (p *Projection) Layers() []observation.Layer {
	return slices.SortedFunc(maps.Keys(p.layers), observation.Layer.Compare)
}

func (p *Projection) SkyCover() *observation.SkyCover    { return p.skyCover }
func (p *Projection) WxCodes() []string                  { return p.wxCodes }
func (p *Projection) RawReport() string                  { return p.rawReport }
func (p *Projection) PrecipToday() *observation.Precip   { return p.precipToday }
func (p *Projection) Precip() *observation.Precip        { return p.precip }
func (p *Projection) PrecipProbability() *units.Fraction { return p.precipProbability }
func (p *Projection) Altimeter() *units.Pressure         { return p.altimeter }
func (p *Projection) CAPE() *units.SpecEnergy            { return p.cape }

// ProjectedLayer returns the concrete projected layer, with its derived
// values.
func (p *Projection) ProjectedLayer(l observation.Layer) (*Layer, bool) {
	pl, ok := p.layers[l]
	return pl, ok
}

// LocalTime is the observation time in the station's zone.
func (p *Projection) LocalTime() time.Time { return p.local }

// Wx is the folded present weather, nil when no codes were reported.
func (p *Projection) Wx() *wx.Wx { return p.wx }

// BestSLP is the best available sea-level pressure in the preferred unit.
func (p *Projection) BestSLP() *units.Pressure { return p.bestSLP }

// Comfort is the comfort index, nil when nothing could be scored.
func (p *Projection) Comfort() *comfort.Result { return p.comfort }

type projectionJSON struct {
	DateTime          time.Time                    `json:"date_time"`
	DateTimeLocal     time.Time                    `json:"date_time_local"`
	Station           *observation.Station         `json:"station"`
	Layers            map[observation.Layer]*Layer `json:"layers"`
	SkyCover          *observation.SkyCover        `json:"skycover,omitempty"`
	WxCodes           []string                     `json:"wx_codes,omitempty"`
	Wx                *wx.Wx                       `json:"wx,omitempty"`
	RawReport         string                       `json:"raw_metar,omitempty"`
	PrecipToday       *observation.Precip          `json:"precip_today,omitempty"`
	Precip            *observation.Precip          `json:"precip,omitempty"`
	PrecipProbability *units.Fraction              `json:"precip_probability,omitempty"`
	Altimeter         *units.Pressure              `json:"altimeter,omitempty"`
	CAPE              *units.SpecEnergy            `json:"cape,omitempty"`
	BestSLP           *units.Pressure              `json:"best_slp,omitempty"`
	Comfort           *comfort.Result              `json:"comfort,omitempty"`
}

func (p *Projection) MarshalJSON() ([]byte, error) {
	return json.Marshal(projectionJSON{
		DateTime:          p.time.UTC(),
		DateTimeLocal:     p.local,
		Station:           p.station,
		Layers:            p.layers,
		SkyCover:          p.skyCover,
		WxCodes:           p.wxCodes,
		Wx:                p.wx,
		RawReport:         p.rawReport,
		PrecipToday:       p.precipToday,
		Precip:            p.precip,
		PrecipProbability: p.precipProbability,
		Altimeter:         p.altimeter,
		CAPE:              p.cape,
		BestSLP:           p.bestSLP,
		Comfort:           p.comfort,
	})
}
