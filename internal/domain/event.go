package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/wx-observation-etl/internal/observation"
	"github.com/couchcryptid/wx-observation-etl/internal/projection"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ProcessedObservation is a decoded observation together with its
// unit-converted projection.
type ProcessedObservation struct {
	Observation observation.Observation
	Projection  *projection.Projection
	RawPayload  []byte
	ProcessedAt time.Time
}

// Station returns the observing station's name.
func (p ProcessedObservation) Station() string {
	return p.Observation.Station().Name()
}

// Key identifies the observation across replays: "station|RFC3339".
func (p ProcessedObservation) Key() string {
	return p.Station() + "|" + p.Observation.Time().UTC().Format(time.RFC3339)
}
