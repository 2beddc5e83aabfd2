// Package wx models METAR-style present weather: boolean qualifiers plus an
// intensity per precipitation or obscuration category. Codes are parsed with
// ParseCode and folded with Combine.
package wx

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
)

// ErrMalformedCode is returned by ValidateCode for codes containing no
// recognized token.
var ErrMalformedCode = errors.New("malformed present weather code")

// Intensity orders how strongly a phenomenon is occurring.
type Intensity uint8

const (
	None Intensity = iota
	Nearby
	VeryLight
	Light
	Medium
	Heavy
)

var intensityNames = [...]string{"none", "nearby", "very_light", "light", "medium", "heavy"}

func (i Intensity) String() string {
	if int(i) < len(intensityNames) {
		return intensityNames[i]
	}
	return fmt.Sprintf("Intensity(%d)", uint8(i))
}

func (i Intensity) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Intensity) UnmarshalText(b []byte) error {
	idx := slices.Index(intensityNames[:], string(b))
	if idx < 0 {
		return fmt.Errorf("unknown intensity %q", b)
	}
	*i = Intensity(idx)
	return nil
}

// MostIntense returns the stronger of a and b.
func MostIntense(a, b Intensity) Intensity {
	return max(a, b)
}

// Wx is a present-weather state. The zero value means no weather.
type Wx struct {
	Blowing             bool `json:"blowing"`
	Freezing            bool `json:"freezing"`
	Showers             bool `json:"showers"`
	Squalls             bool `json:"squalls"`
	Thunderstorm        bool `json:"thunderstorm"`
	Fog                 bool `json:"fog"`
	Smoke               bool `json:"smoke"`
	VisibilityInhibitor bool `json:"visibility_inhibitor"`

	Rain        Intensity `json:"rain"`
	Snow        Intensity `json:"snow"`
	FallingIce  Intensity `json:"falling_ice"`
	Dust        Intensity `json:"dust"`
	Sand        Intensity `json:"sand"`
	FunnelCloud Intensity `json:"funnel_cloud"`
	Unknown     Intensity `json:"unknown"`
}

// Combine merges two states: qualifiers are OR'd and each category keeps the
// more intense value. The operation is commutative, associative and
// idempotent.
func (w Wx) Combine(o Wx) Wx {
	return Wx{
		Blowing:             w.Blowing || o.Blowing,
		Freezing:            w.Freezing || o.Freezing,
		Showers:             w.Showers || o.Showers,
		Squalls:             w.Squalls || o.Squalls,
		Thunderstorm:        w.Thunderstorm || o.Thunderstorm,
		Fog:                 w.Fog || o.Fog,
		Smoke:               w.Smoke || o.Smoke,
		VisibilityInhibitor: w.VisibilityInhibitor || o.VisibilityInhibitor,

		Rain:        MostIntense(w.Rain, o.Rain),
		Snow:        MostIntense(w.Snow, o.Snow),
		FallingIce:  MostIntense(w.FallingIce, o.FallingIce),
		Dust:        MostIntense(w.Dust, o.Dust),
		Sand:        MostIntense(w.Sand, o.Sand),
		FunnelCloud: MostIntense(w.FunnelCloud, o.FunnelCloud),
		Unknown:     MostIntense(w.Unknown, o.Unknown),
	}
}

var codeToken = regexp.MustCompile(`-|\+|BC|BL|BR|DR|DS|DU|DZ|FC|FG|FU|FZ|GR|GS|HZ|IC|MI|NSW|PL|PO|PR|PY|RA|SA|SG|SH|SN|SQ|SS|TS|UP|VA|VC|/+`)

type tokenSet map[string]struct{}

func tokenize(code string) tokenSet {
	set := tokenSet{}
	for _, m := range codeToken.FindAllString(code, -1) {
		set[m] = struct{}{}
	}
	return set
}

func (s tokenSet) any(tokens ...string) bool {
	for _, t := range tokens {
		if _, ok := s[t]; ok {
			return true
		}
	}
	return false
}

// ParseCode decodes one present-weather group such as "-FZRA" or "VCTS".
// Token order is irrelevant and unrecognized text is ignored. BC, DR, MI,
// PR, PY and NSW are recognized but carry no meaning here.
func ParseCode(code string) Wx {
	tok := tokenize(code)

	general := Medium
	switch {
	case tok.any("VC"):
		general = Nearby
	case tok.any("-"):
		general = Light
	case tok.any("+"):
		general = Heavy
	}

	w := Wx{
		Freezing:            tok.any("FZ"),
		Showers:             tok.any("SH"),
		Blowing:             tok.any("BL", "SS", "PO", "DS"),
		Squalls:             tok.any("SQ"),
		Thunderstorm:        tok.any("TS"),
		Fog:                 tok.any("BR", "FG"),
		Smoke:               tok.any("FU", "HZ"),
		VisibilityInhibitor: tok.any("VA", "FU", "HZ", "BR", "FG", "DU", "SA"),
	}

	switch {
	case tok.any("RA"):
		w.Rain = general
	case tok.any("DZ"):
		w.Rain = VeryLight
	}

	switch {
	case tok.any("DU"):
		w.Dust = general
	case tok.any("DS"):
		w.Dust = Heavy
	}

	switch {
	case tok.any("SA", "PO"):
		w.Sand = general
	case tok.any("SS"):
		w.Sand = Heavy
	}

	switch {
	case tok.any("PL"):
		w.FallingIce = general
	case tok.any("GR"):
		w.FallingIce = Heavy
	}

	if tok.any("UP") {
		w.Unknown = general
	}
	if tok.any("SN", "GS", "IC", "SG") {
		w.Snow = general
	}
	if tok.any("FC") {
		w.FunnelCloud = general
	}
	return w
}

// ValidateCode reports an error when code contains no recognized token.
func ValidateCode(code string) error {
	if !codeToken.MatchString(code) {
		return fmt.Errorf("%w: %q", ErrMalformedCode, code)
	}
	return nil
}

// ParseCodes folds every code through ParseCode and Combine. It returns nil
// when there are no codes.
func ParseCodes(codes []string) *Wx {
	if len(codes) == 0 {
		return nil
	}
	var w Wx
	for _, c := range codes {
		w = w.Combine(ParseCode(c))
	}
	return &w
}
