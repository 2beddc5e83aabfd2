package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/wx-observation-etl/internal/domain"
	"github.com/couchcryptid/wx-observation-etl/internal/projection"
)

// ObservationTransformer implements Transformer by decoding wire records and
// projecting them into the configured display units.
type ObservationTransformer struct {
	prefs  projection.UnitPreferences
	logger *slog.Logger
}

// NewTransformer creates an ObservationTransformer for prefs.
func NewTransformer(prefs projection.UnitPreferences, logger *slog.Logger) *ObservationTransformer {
	return &ObservationTransformer{
		prefs:  prefs,
		logger: logger,
	}
}

func (t *ObservationTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.ProcessedObservation, error) {
	out, err := domain.ProcessRawEvent(raw, t.prefs)
	if err != nil {
		return domain.ProcessedObservation{}, err
	}
	t.logger.Debug("observation transformed",
		"station", out.Station(),
		"observed_at", out.Observation.Time(),
		"layers", len(out.Observation.Layers()),
	)
	return out, nil
}
