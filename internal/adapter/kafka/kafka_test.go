package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wx-observation-etl/internal/domain"
	"github.com/couchcryptid/wx-observation-etl/internal/observability"
	"github.com/couchcryptid/wx-observation-etl/internal/projection"
)

const testWire = `{
	"date_time": "2024-04-26T15:10:00Z",
	"station": {
		"name": "KAUS",
		"altitude": {"value": 165, "unit": "m"},
		"coords": {"latitude": 30.19, "longitude": -97.67},
		"time_zone": "America/Chicago"
	},
	"layers": {
		"near_surface": {
			"layer": "near_surface",
			"temperature": {"value": 28, "unit": "°C"},
			"dewpoint": {"value": 21, "unit": "°C"}
		}
	}
}`

type fakeWriter struct {
	mu      sync.Mutex
	err     error
	calls   int
	written []kafkago.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func processed(t *testing.T) domain.ProcessedObservation {
	t.Helper()
	out, err := domain.ProcessRawEvent(domain.RawEvent{Value: []byte(testWire)}, projection.DefaultPreferences())
	require.NoError(t, err)
	out.ProcessedAt = time.Date(2024, 4, 26, 15, 11, 0, 0, time.UTC)
	return out
}

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("KAUS"),
		Value:     []byte(testWire),
		Topic:     "raw-observations",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("metar")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("KAUS"), raw.Key)
	assert.JSONEq(t, testWire, string(raw.Value))
	assert.Equal(t, "raw-observations", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "metar", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	event := processed(t)

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("KAUS|2024-04-26T15:10:00Z"), msg.Key)
	assert.Contains(t, string(msg.Value), `"date_time":"2024-04-26T15:10:00Z"`)
	assert.Contains(t, string(msg.Value), `"unit":"°F"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "station", msg.Headers[0].Key)
	assert.Equal(t, []byte("KAUS"), msg.Headers[0].Value)
	assert.Equal(t, "observed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), msg.Headers[1].Value)
	assert.Equal(t, "processed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2024-04-26T15:11:00Z"), msg.Headers[2].Value)
}

func TestSerializeToMessage_NoProjection(t *testing.T) {
	event := processed(t)
	event.Projection = nil
	_, err := serializeToMessage(event)
	assert.ErrorContains(t, err, "no projection")
}

func TestWriter_LoadBatch(t *testing.T) {
	fw := &fakeWriter{}
	metrics := observability.NewMetricsForTesting()
	w := newWriter(fw, 0, 1, slog.Default(), metrics)

	require.NoError(t, w.LoadBatch(context.Background(), nil))
	assert.Equal(t, 0, fw.calls)

	require.NoError(t, w.LoadBatch(context.Background(), []domain.ProcessedObservation{processed(t), processed(t)}))
	assert.Equal(t, 1, fw.calls)
	assert.Len(t, fw.written, 2)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SinkWrites.WithLabelValues("kafka", "success")), 0)
}

func TestWriter_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	metrics := observability.NewMetricsForTesting()
	w := newWriter(fw, 0, 1, slog.Default(), metrics)
	batch := []domain.ProcessedObservation{processed(t)}

	for range 5 {
		err := w.LoadBatch(context.Background(), batch)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrSinkUnavailable)
	}

	err := w.LoadBatch(context.Background(), batch)
	require.ErrorIs(t, err, ErrSinkUnavailable)
	assert.Equal(t, 5, fw.calls)
	assert.InDelta(t, 5, testutil.ToFloat64(metrics.SinkWrites.WithLabelValues("kafka", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SinkWrites.WithLabelValues("kafka", "rejected")), 0)
}

func TestWriter_RateLimitHonoursContext(t *testing.T) {
	fw := &fakeWriter{}
	w := newWriter(fw, 0.001, 1, slog.Default(), nil)
	batch := []domain.ProcessedObservation{processed(t)}

	require.NoError(t, w.LoadBatch(context.Background(), batch))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := w.LoadBatch(ctx, batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait canceled")
	assert.Equal(t, 1, fw.calls)
}
