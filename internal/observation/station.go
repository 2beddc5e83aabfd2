package observation

import (
	"encoding/json"
	"time"

	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

// Coords is a WGS-84 latitude/longitude pair in decimal degrees.
type Coords struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Station identifies where observations come from. It is immutable after
// construction; every observation and layer from one source shares the same
// *Station.
type Station struct {
	name     string
	altitude units.Distance
	coords   Coords
	location *time.Location
}

// NewStation builds a station. A nil location means UTC.
func NewStation(name string, altitude units.Distance, coords Coords, location *time.Location) *Station {
	if location == nil {
		location = time.UTC
	}
	return &Station{name: name, altitude: altitude, coords: coords, location: location}
}

func (s *Station) Name() string             { return s.name }
func (s *Station) Altitude() units.Distance { return s.altitude }
func (s *Station) Coords() Coords           { return s.coords }
func (s *Station) Location() *time.Location { return s.location }

// stationJSON is the serialized station. The time zone is an IANA name. The
// name ends up in export file names, so path separators and ".." are refused.
type stationJSON struct {
	Name     string          `json:"name" validate:"required,excludesall=/\\,excludes=.."`
	Altitude *units.Distance `json:"altitude" validate:"required"`
	Coords   *Coords         `json:"coords" validate:"required"`
	TimeZone string          `json:"time_zone" validate:"required"`
}

func (s *Station) toJSON() stationJSON {
	altitude, coords := s.altitude, s.coords
	return stationJSON{
		Name:     s.name,
		Altitude: &altitude,
		Coords:   &coords,
		TimeZone: s.location.String(),
	}
}

func (s *Station) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toJSON())
}
