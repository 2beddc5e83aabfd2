package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/wx-observation-etl/internal/domain"
)

// NamedLoader pairs a BatchLoader with a name for error reporting.
type NamedLoader struct {
	Name   string
	Loader BatchLoader
}

// Fanout implements BatchLoader by handing each batch to every loader in
// order. It stops at the first failure so the pipeline retries the whole
// batch; loaders must therefore tolerate seeing a batch more than once.
type Fanout struct {
	loaders []NamedLoader
}

// NewFanout creates a Fanout. Nil loaders are skipped.
func NewFanout(loaders ...NamedLoader) *Fanout {
	f := &Fanout{}
	for _, l := range loaders {
		if l.Loader != nil {
			f.loaders = append(f.loaders, l)
		}
	}
	return f
}

func (f *Fanout) LoadBatch(ctx context.Context, events []domain.ProcessedObservation) error {
	for _, l := range f.loaders {
		if err := l.Loader.LoadBatch(ctx, events); err != nil {
			return fmt.Errorf("load %s: %w", l.Name, err)
		}
	}
	return nil
}
