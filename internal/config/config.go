package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
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

	// DSSAT installation.
	DSSATBase  string
	Executable string
	DataCDE    string
	WatchCodes bool

	// Parsing behavior.
	RowPolicy        domain.RowPolicy
	NumericTolerance float64
	ParseCacheSize   int
}

// ExecutablePath resolves the simulation executable against the DSSAT base
// directory unless it is already absolute.
func (c *Config) ExecutablePath() string {
	if filepath.IsAbs(c.Executable) {
		return c.Executable
	}
	return filepath.Join(c.DSSATBase, c.Executable)
}

// ParseOptions returns the configured parser settings.
func (c *Config) ParseOptions() domain.ParseOptions {
	return domain.ParseOptions{Policy: c.RowPolicy, NumericTolerance: c.NumericTolerance}
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
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

	policy, err := domain.ParseRowPolicy(os.Getenv("ROW_POLICY"))
	if err != nil {
		return nil, errors.New("invalid ROW_POLICY: must be reject or pad")
	}

	tolerance, err := parseNumericTolerance()
	if err != nil {
		return nil, err
	}

	base := sharedcfg.EnvOrDefault("DSSAT_BASE", "/DSSAT48")

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "evaluation-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "evaluation-reports"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "dssat-eval"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		DSSATBase:  base,
		Executable: sharedcfg.EnvOrDefault("DSSAT_EXECUTABLE", "DSCSM048.EXE"),
		DataCDE:    sharedcfg.EnvOrDefault("DSSAT_DATA_CDE", filepath.Join(base, "DATA.CDE")),
		WatchCodes: os.Getenv("DSSAT_CODE_WATCH") == "true",

		RowPolicy:        policy,
		NumericTolerance: tolerance,
		ParseCacheSize:   parseCacheSize(),
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

	return cfg, nil
}

// parseNumericTolerance reads NUMERIC_TOLERANCE, the share of unparseable
// cells a column may hold and still be typed as numeric.
func parseNumericTolerance() (float64, error) {
	s := os.Getenv("NUMERIC_TOLERANCE")
	if s == "" {
		return domain.DefaultNumericTolerance, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || f >= 1 {
		return 0, errors.New("invalid NUMERIC_TOLERANCE: must be between 0 and 1")
	}
	return f, nil
}

func parseCacheSize() int {
	if s := os.Getenv("PARSE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			return n
		}
	}
	return 64
}
