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
)

// DefaultFeedURL is the USGS summary feed of every event in the past hour.
const DefaultFeedURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_hour.geojson"

// Config holds all service settings, populated from environment variables.
type Config struct {
	FeedURL     string
	FeedTimeout time.Duration
	RunInterval time.Duration
	RunOnce     bool

	DatabaseURL string
	DBMigrate   bool

	// Notification delivery through SNS.
	AlertsEnabled  bool
	AlertSubject   string
	AWSRegion      string
	AWSEndpointURL string

	// Optional event stream of normalized earthquakes.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is read first; real environment
// variables take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	feedTimeout, err := parseDuration("FEED_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	runInterval, err := parseDuration("RUN_INTERVAL", "1m")
	if err != nil {
		return nil, err
	}
	runOnce, err := parseBool("RUN_ONCE", false)
	if err != nil {
		return nil, err
	}
	dbMigrate, err := parseBool("DB_MIGRATE", false)
	if err != nil {
		return nil, err
	}
	alertsEnabled, err := parseBool("ALERTS_ENABLED", true)
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		FeedURL:     sharedcfg.EnvOrDefault("FEED_URL", DefaultFeedURL),
		FeedTimeout: feedTimeout,
		RunInterval: runInterval,
		RunOnce:     runOnce,

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMigrate:   dbMigrate,

		AlertsEnabled:  alertsEnabled,
		AlertSubject:   sharedcfg.EnvOrDefault("ALERT_SUBJECT", "Earthquake Alert"),
		AWSRegion:      sharedcfg.EnvOrDefault("AWS_REGION", "eu-west-2"),
		AWSEndpointURL: os.Getenv("AWS_ENDPOINT_URL"),

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "earthquakes-normalized"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.FeedURL == "" {
		return nil, errors.New("FEED_URL is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.AlertsEnabled && cfg.AWSRegion == "" {
		return nil, errors.New("AWS_REGION is required when ALERTS_ENABLED is true")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
