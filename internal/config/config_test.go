package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wx-observation-etl/internal/projection"
	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

const (
	defaultBroker   = "localhost:9092"
	testInfluxToken = "influx-test-token"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-observations", cfg.KafkaSourceTopic)
	assert.Equal(t, "projected-observations", cfg.KafkaSinkTopic)
	assert.Equal(t, "wx-observation-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, projection.DefaultPreferences(), cfg.Units)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 48*time.Hour, cfg.Retention)
	assert.Equal(t, 5*time.Minute, cfg.ExportInterval)
	assert.Equal(t, 1000, cfg.ProjectionCacheSize)
	assert.InDelta(t, 50.0, cfg.SinkRateLimit, 0)
	assert.Equal(t, 10, cfg.SinkBurst)
	assert.False(t, cfg.InfluxEnabled())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("UNITS_TEMPERATURE", "°C")
	t.Setenv("UNITS_PRESSURE", "inHg")
	t.Setenv("UNITS_DISTANCE", "km")
	t.Setenv("UNITS_SPEED", "m/s")
	t.Setenv("UNITS_THETA_E", "C")
	t.Setenv("DATA_DIR", "/var/lib/wx")
	t.Setenv("RETENTION", "72h")
	t.Setenv("EXPORT_INTERVAL", "1m")
	t.Setenv("PROJECTION_CACHE_SIZE", "250")
	t.Setenv("SINK_RATE_LIMIT", "2.5")
	t.Setenv("SINK_BURST", "3")
	t.Setenv("INFLUX_URL", "http://influx:8086")
	t.Setenv("INFLUX_TOKEN", testInfluxToken)
	t.Setenv("INFLUX_ORG", "ops")
	t.Setenv("INFLUX_BUCKET", "metar")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, projection.UnitPreferences{
		Temperature: units.Celsius,
		Pressure:    units.InchesMercury,
		Distance:    units.Kilometer,
		Speed:       units.MetersPerSecond,
		ThetaE:      units.Celsius,
	}, cfg.Units)
	assert.Equal(t, "/var/lib/wx", cfg.DataDir)
	assert.Equal(t, 72*time.Hour, cfg.Retention)
	assert.Equal(t, time.Minute, cfg.ExportInterval)
	assert.Equal(t, 250, cfg.ProjectionCacheSize)
	assert.InDelta(t, 2.5, cfg.SinkRateLimit, 0)
	assert.Equal(t, 3, cfg.SinkBurst)
	assert.True(t, cfg.InfluxEnabled())
	assert.Equal(t, "http://influx:8086", cfg.InfluxURL)
	assert.Equal(t, testInfluxToken, cfg.InfluxToken)
	assert.Equal(t, "ops", cfg.InfluxOrg)
	assert.Equal(t, "metar", cfg.InfluxBucket)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBatchFlushInterval(t *testing.T) {
	t.Setenv("BATCH_FLUSH_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_FLUSH_INTERVAL")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{"UNITS_TEMPERATURE", "rankine"},
		{"UNITS_PRESSURE", "torr"},
		{"UNITS_DISTANCE", "furlong"},
		{"UNITS_SPEED", "c"},
		{"UNITS_THETA_E", "X"},
		{"RETENTION", "-1h"},
		{"EXPORT_INTERVAL", "often"},
		{"PROJECTION_CACHE_SIZE", "0"},
		{"SINK_BURST", "many"},
		{"SINK_RATE_LIMIT", "-3"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.env)
		})
	}
}

func TestLoad_UnknownUnitWrapsSentinel(t *testing.T) {
	t.Setenv("UNITS_SPEED", "warp")
	_, err := Load()
	require.ErrorIs(t, err, units.ErrUnknownUnit)
}

func TestLoad_InfluxURLWithoutToken(t *testing.T) {
	t.Setenv("INFLUX_URL", "http://influx:8086")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INFLUX_TOKEN")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DATA_DIR=/from/dotenv\nHTTP_ADDR=:7070\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("HTTP_ADDR", ":6060")
	// Registers DATA_DIR for restoration; godotenv only fills unset keys.
	t.Setenv("DATA_DIR", "")
	require.NoError(t, os.Unsetenv("DATA_DIR"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.DataDir)
	assert.Equal(t, ":6060", cfg.HTTPAddr)
}
