package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/wx-observation-etl/internal/config"
	"github.com/couchcryptid/wx-observation-etl/internal/domain"
	"github.com/couchcryptid/wx-observation-etl/internal/observability"
)

// ErrSinkUnavailable is returned while the circuit breaker is open.
var ErrSinkUnavailable = errors.New("kafka sink unavailable")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes projected observations to the sink topic. Writes are
// throttled by a token bucket and guarded by a circuit breaker so a broker
// outage fails batches fast instead of stacking up timeouts.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer  messageWriter
	limiter *rate.Limiter
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured sink topic. metrics
// may be nil.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return newWriter(w, cfg.SinkRateLimit, cfg.SinkBurst, logger, metrics)
}

func newWriter(mw messageWriter, rps float64, burst int, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	w := &Writer{
		writer:  mw,
		limiter: rate.NewLimiter(limit, max(burst, 1)),
		logger:  logger,
		metrics: metrics,
	}
	w.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-sink",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return w
}

// LoadBatch serializes the batch and publishes it in a single WriteMessages
// call. Messages are keyed by station and capture time so a station's
// observations stay on one partition.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.ProcessedObservation) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait canceled: %w", err)
	}

	_, err := w.circuit.Execute(func() (interface{}, error) {
		return nil, w.writer.WriteMessages(ctx, msgs...)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		w.count("rejected")
		return fmt.Errorf("%w: %w", ErrSinkUnavailable, err)
	case err != nil:
		w.count("error")
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	w.count("success")
	return nil
}

func (w *Writer) count(outcome string) {
	if w.metrics != nil {
		w.metrics.SinkWrites.WithLabelValues("kafka", outcome).Inc()
	}
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals the observation's projection into a Kafka message.
func serializeToMessage(event domain.ProcessedObservation) (kafkago.Message, error) {
	if event.Projection == nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation %s: no projection", event.Key())
	}
	data, err := json.Marshal(event.Projection)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation %s: %w", event.Key(), err)
	}
	return kafkago.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station", Value: []byte(event.Station())},
			{Key: "observed_at", Value: []byte(event.Observation.Time().UTC().Format(time.RFC3339))},
			{Key: "processed_at", Value: []byte(event.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
