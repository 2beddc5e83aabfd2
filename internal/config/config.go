package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/wx-observation-etl/internal/projection"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Display units for projections.
	Units projection.UnitPreferences

	// Store and export.
	DataDir             string
	Retention           time.Duration
	ExportInterval      time.Duration
	ProjectionCacheSize int

	// Kafka sink throttling.
	SinkRateLimit float64
	SinkBurst     int

	// Optional InfluxDB sink; disabled when InfluxURL is empty.
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
}

// InfluxEnabled reports whether the InfluxDB sink is configured.
func (c *Config) InfluxEnabled() bool { return c.InfluxURL != "" }

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present; it never
// overrides variables already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	prefs, err := parseUnits()
	if err != nil {
		return nil, err
	}

	retention, err := parsePositiveDuration("RETENTION", "48h")
	if err != nil {
		return nil, err
	}
	exportInterval, err := parsePositiveDuration("EXPORT_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("PROJECTION_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	burst, err := parsePositiveInt("SINK_BURST", 10)
	if err != nil {
		return nil, err
	}
	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("SINK_RATE_LIMIT", "50"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid SINK_RATE_LIMIT")
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-observations"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "projected-observations"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "wx-observation-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		Units: prefs,

		DataDir:             sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		Retention:           retention,
		ExportInterval:      exportInterval,
		ProjectionCacheSize: cacheSize,

		SinkRateLimit: rateLimit,
		SinkBurst:     burst,

		InfluxURL:    os.Getenv("INFLUX_URL"),
		InfluxToken:  os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:    sharedcfg.EnvOrDefault("INFLUX_ORG", "wx"),
		InfluxBucket: sharedcfg.EnvOrDefault("INFLUX_BUCKET", "observations"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.InfluxEnabled() && cfg.InfluxToken == "" {
		return nil, errors.New("INFLUX_URL is set but INFLUX_TOKEN is not")
	}

	return cfg, nil
}

// parseUnits reads UNITS_* overrides on top of the default preferences.
func parseUnits() (projection.UnitPreferences, error) {
	prefs := projection.DefaultPreferences()
	fields := []struct {
		env string
		dst interface{ UnmarshalText([]byte) error }
	}{
		{"UNITS_TEMPERATURE", &prefs.Temperature},
		{"UNITS_PRESSURE", &prefs.Pressure},
		{"UNITS_DISTANCE", &prefs.Distance},
		{"UNITS_SPEED", &prefs.Speed},
		{"UNITS_THETA_E", &prefs.ThetaE},
	}
	for _, f := range fields {
		v := os.Getenv(f.env)
		if v == "" {
			continue
		}
		if err := f.dst.UnmarshalText([]byte(v)); err != nil {
			return prefs, fmt.Errorf("invalid %s: %w", f.env, err)
		}
	}
	return prefs, nil
}

func parsePositiveDuration(env, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(env, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", env)
	}
	return d, nil
}

func parsePositiveInt(env string, def int) (int, error) {
	s := os.Getenv(env)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", env)
	}
	return n, nil
}
