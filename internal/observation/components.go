package observation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

// ErrUnknownCloudCode is returned for sky condition codes other than
// SKC, CLR, FEW, SCT, BKN and OVC.
var ErrUnknownCloudCode = errors.New("unknown cloud cover code")

// Wind is a speed with an optional direction (nil for variable or calm).
type Wind struct {
	Speed     units.Speed      `json:"speed"`
	Direction *units.Direction `json:"direction,omitempty"`
}

func (w Wind) String() string {
	if w.Direction == nil {
		return w.Speed.String()
	}
	return fmt.Sprintf("%d°@%s", w.Direction.Degrees(), w.Speed)
}

// Precip holds accumulated precipitation split by type.
type Precip struct {
	Unknown units.PrecipAmount `json:"unknown"`
	Rain    units.PrecipAmount `json:"rain"`
	Snow    units.PrecipAmount `json:"snow"`
}

// CloudCoverage is the reported fraction of sky covered by one cloud layer.
type CloudCoverage uint8

const (
	Few CloudCoverage = iota
	Scattered
	Broken
	Overcast
)

var coverageCodes = [...]string{"FEW", "SCT", "BKN", "OVC"}

// oktas per coverage class, in eighths of sky.
var coverageOktas = [...]uint8{1, 3, 6, 8}

func (c CloudCoverage) String() string { return coverageCodes[c] }

// Oktas returns the representative sky eighths for the coverage class.
func (c CloudCoverage) Oktas() uint8 { return coverageOktas[c] }

func (c CloudCoverage) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *CloudCoverage) UnmarshalText(b []byte) error {
	for i, code := range coverageCodes {
		if code == string(b) {
			*c = CloudCoverage(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownCloudCode, b)
}

// CloudLayer is one reported cloud deck with its base height in feet.
type CloudLayer struct {
	Coverage CloudCoverage `json:"coverage"`
	Height   uint32        `json:"height"`
}

func (c CloudLayer) String() string {
	return fmt.Sprintf("%s@%d ft", c.Coverage, c.Height)
}

// ParseCloudLayer decodes a METAR sky condition code. SKC and CLR report no
// layer and return nil.
func ParseCloudLayer(code string, heightFt uint32) (*CloudLayer, error) {
	switch code {
	case "SKC", "CLR":
		return nil, nil
	}
	var c CloudCoverage
	if err := c.UnmarshalText([]byte(code)); err != nil {
		return nil, err
	}
	return &CloudLayer{Coverage: c, Height: heightFt}, nil
}

// SkyCover is either clear (no layers) or a list of cloud layers.
type SkyCover struct {
	Layers []CloudLayer
}

// SkyCoverFromReports builds sky cover from parallel code and height lists.
func SkyCoverFromReports(codes []string, heightsFt []uint32) (SkyCover, error) {
	if len(codes) != len(heightsFt) {
		return SkyCover{}, fmt.Errorf("sky cover: %d codes but %d heights", len(codes), len(heightsFt))
	}
	var sc SkyCover
	for i, code := range codes {
		layer, err := ParseCloudLayer(code, heightsFt[i])
		if err != nil {
			return SkyCover{}, fmt.Errorf("sky cover: %w", err)
		}
		if layer != nil {
			sc.Layers = append(sc.Layers, *layer)
		}
	}
	return sc, nil
}

func (s SkyCover) Clear() bool { return len(s.Layers) == 0 }

// Oktas returns the maximum coverage over all layers, 0 when clear.
func (s SkyCover) Oktas() uint8 {
	var o uint8
	for _, l := range s.Layers {
		o = max(o, l.Coverage.Oktas())
	}
	return o
}

const clearMarker = "CLR"

func (s SkyCover) String() string {
	if s.Clear() {
		return clearMarker
	}
	parts := make([]string, len(s.Layers))
	for i, l := range s.Layers {
		parts[i] = l.String()
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON writes "CLR" when clear, otherwise the array of layers.
func (s SkyCover) MarshalJSON() ([]byte, error) {
	if s.Clear() {
		return json.Marshal(clearMarker)
	}
	return json.Marshal(s.Layers)
}

func (s *SkyCover) UnmarshalJSON(b []byte) error {
	var marker string
	if err := json.Unmarshal(b, &marker); err == nil {
		if marker != clearMarker && marker != "SKC" {
			return fmt.Errorf("%w: %q", ErrUnknownCloudCode, marker)
		}
		*s = SkyCover{}
		return nil
	}
	var layers []CloudLayer
	if err := json.Unmarshal(b, &layers); err != nil {
		return fmt.Errorf("decode sky cover: %w", err)
	}
	*s = SkyCover{Layers: layers}
	return nil
}
