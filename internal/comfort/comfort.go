// Package comfort scores how pleasant an observation's conditions are on a
// 0 to 10 scale, where 10 is ideal.
//
// Seven signals are each looked up in their own table: temperature, cloud
// cover, heat index, wind chill, rain, dry air (low relative humidity) and
// humidity (high dewpoint). Signals the observation cannot supply are left
// out. The lowest sub-score wins and names the limiting Factor; equal scores
// go to the factor declared first. Thunder, snow and funnel cloud modifiers
// are then added and the total is capped at 10.
package comfort

import (
	"math"

	"github.com/couchcryptid/wx-observation-etl/internal/observation"
	"github.com/couchcryptid/wx-observation-etl/internal/units"
	"github.com/couchcryptid/wx-observation-etl/internal/wx"
)

// MaxScore is the ideal and the cap applied after modifiers.
const MaxScore = 10

// Factor names the signal that limited the score. Declaration order is the
// tie-break order.
type Factor uint8

const (
	Temperature Factor = iota
	CloudCover
	HeatIndex
	WindChill
	Rain
	DryAir
	Humidity
)

var factorNames = [...]string{"Temperature", "Cloud Cover", "Heat Index", "Wind Chill", "Rain", "Dry Air", "Humidity"}

func (f Factor) String() string { return factorNames[f] }

func (f Factor) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// Result is a comfort score and the factor that limited it.
type Result struct {
	Value  uint8  `json:"value"`
	Factor Factor `json:"factor"`
}

// step maps every value at or above min to score.
type step struct {
	min   float64
	score uint8
}

// table is ordered by descending min. Values below every row take the last
// row's score.
type table []step

func (t table) lookup(v float64) uint8 {
	for _, s := range t {
		if v >= s.min {
			return s.score
		}
	}
	return t[len(t)-1].score
}

var lowest = math.Inf(-1)

var (
	temperatureTable = table{
		{105, 0}, {95, 2}, {90, 4}, {85, 5}, {77, 8}, {65, 10}, {55, 9},
		{45, 7}, {38, 4}, {35, 3}, {27, 4}, {20, 2}, {10, 1}, {lowest, 0},
	}
	cloudDayTable   = table{{7, 8}, {5, 9}, {1, 10}, {lowest, 9}}
	cloudNightTable = table{{7, 8}, {5, 9}, {1, 10}, {lowest, 10}}
	heatIndexTable  = table{{105, 0}, {100, 1}, {95, 3}, {85, 5}, {80, 8}, {lowest, 10}}
	windChillTable  = table{{65, 10}, {45, 8}, {35, 5}, {27, 4}, {22, 3}, {15, 2}, {5, 1}, {lowest, 0}}
	dryAirTable     = table{{20, 10}, {10, 5}, {0, 2}}
	dewpointTable   = table{{75, 2}, {70, 5}, {65, 8}, {20, 10}, {0, 8}, {lowest, 3}}
)

// Daylight hours, station-local, for picking the cloud table.
const (
	dayStartHour = 6
	dayEndHour   = 18
)

// Index scores o. It reports false when no factor could be evaluated.
func Index(o observation.Observation) (Result, bool) {
	var scores [len(factorNames)]*uint8

	if surface, ok := observation.Surface(o); ok {
		scores[Temperature] = fahrenheitScore(surface.Temperature(), temperatureTable)
		scores[HeatIndex] = fahrenheitScore(observation.HeatIndex(surface), heatIndexTable)
		scores[WindChill] = fahrenheitScore(observation.WindChill(surface), windChillTable)
		scores[Humidity] = fahrenheitScore(observation.Dewpoint(surface), dewpointTable)
		if rh := observation.RelativeHumidity(surface); rh != nil {
			scores[DryAir] = ptr(dryAirTable.lookup(rh.In(units.Percent)))
		}
	}

	if sc := o.SkyCover(); sc != nil {
		clouds := cloudNightTable
		if h := observation.LocalTime(o).Hour(); h >= dayStartHour && h < dayEndHour {
			clouds = cloudDayTable
		}
		scores[CloudCover] = ptr(clouds.lookup(float64(sc.Oktas())))
	}

	w := observation.PresentWeather(o)
	if w != nil {
		scores[Rain] = ptr(rainScore(*w))
	}

	res, ok := worst(scores[:])
	if !ok {
		return Result{}, false
	}
	if w != nil {
		res.Value += modifiers(*w)
	}
	res.Value = min(res.Value, MaxScore)
	return res, true
}

func worst(scores []*uint8) (Result, bool) {
	var (
		res   Result
		found bool
	)
	for i, s := range scores {
		if s == nil {
			continue
		}
		if !found || *s < res.Value {
			res = Result{Value: *s, Factor: Factor(i)}
			found = true
		}
	}
	return res, found
}

func fahrenheitScore(t *units.Temperature, tbl table) *uint8 {
	if t == nil {
		return nil
	}
	return ptr(tbl.lookup(t.In(units.Fahrenheit)))
}

func rainScore(w wx.Wx) uint8 {
	present := w.Rain > wx.Nearby
	switch {
	case w.Freezing && present:
		return 0
	case w.Fog:
		return 9
	}
	switch w.Rain {
	case wx.VeryLight:
		return 7
	case wx.Light:
		return 6
	case wx.Medium:
		return 4
	case wx.Heavy:
		return 5
	default:
		return 10
	}
}

func modifiers(w wx.Wx) uint8 {
	var m uint8
	if w.Thunderstorm {
		m += 5
	}
	m += snowPenalty(w)
	if w.FunnelCloud != wx.None {
		m += 10
	}
	return m
}

func snowPenalty(w wx.Wx) uint8 {
	if w.Snow <= wx.Nearby {
		return 0
	}
	if w.Thunderstorm || w.Squalls {
		return 10
	}
	switch w.Snow {
	case wx.VeryLight:
		return 1
	case wx.Light:
		return 2
	case wx.Medium:
		return 3
	default:
		return 5
	}
}

func ptr[T any](v T) *T { return &v }
