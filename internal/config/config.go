package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// RootDir holds data/processed/df_model.csv and data/processed/lookup_zip.csv.
	RootDir string

	// Model configuration. ModelServerURL, when set, takes precedence over ModelPath.
	ModelPath          string
	ModelServerURL     string
	ModelServerTimeout time.Duration
	IncludeOrderStatus bool

	SessionCacheSize int

	// Prediction event publishing.
	KafkaBrokers         []string
	KafkaPredictionTopic string
	KafkaEnabled         bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	modelTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MODEL_SERVER_TIMEOUT", "5s"))
	if err != nil || modelTimeout <= 0 {
		return nil, errors.New("invalid MODEL_SERVER_TIMEOUT")
	}

	includeOrderStatus := false
	if v := os.Getenv("FEATURE_ORDER_STATUS"); v != "" {
		includeOrderStatus, err = strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid FEATURE_ORDER_STATUS")
		}
	}

	rootDir := sharedcfg.EnvOrDefault("ROOT_DIR", ".")
	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		RootDir:            rootDir,
		ModelPath:          sharedcfg.EnvOrDefault("MODEL_PATH", filepath.Join(rootDir, "models", "delivery_time_model.json")),
		ModelServerURL:     os.Getenv("MODEL_SERVER_URL"),
		ModelServerTimeout: modelTimeout,
		IncludeOrderStatus: includeOrderStatus,

		SessionCacheSize: parseSessionCacheSize(),

		KafkaBrokers:         brokers,
		KafkaPredictionTopic: sharedcfg.EnvOrDefault("KAFKA_PREDICTION_TOPIC", "delivery-eta-predictions"),
		KafkaEnabled:         kafkaEnabled,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func parseSessionCacheSize() int {
	if s := os.Getenv("SESSION_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
