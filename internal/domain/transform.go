package domain

import (
	"fmt"

	"github.com/couchcryptid/wx-observation-etl/internal/observation"
	"github.com/couchcryptid/wx-observation-etl/internal/projection"
)

// ParseRawEvent decodes a RawEvent's value as a wire observation.
func ParseRawEvent(raw RawEvent) (*observation.Wire, error) {
	w, err := observation.DecodeWire(raw.Value)
	if err != nil {
		return nil, fmt.Errorf("parse raw event: %w", err)
	}
	return w, nil
}

// ProcessRawEvent decodes raw and projects it into prefs, stamping the
// processing time from the package clock.
func ProcessRawEvent(raw RawEvent, prefs projection.UnitPreferences) (ProcessedObservation, error) {
	obs, err := ParseRawEvent(raw)
	if err != nil {
		return ProcessedObservation{}, err
	}
	proj, err := projection.Project(obs, prefs)
	if err != nil {
		return ProcessedObservation{}, fmt.Errorf("process raw event: %w", err)
	}
	return ProcessedObservation{
		Observation: obs,
		Projection:  proj,
		RawPayload:  raw.Value,
		ProcessedAt: clock.Now().UTC(),
	}, nil
}
