package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Plaid     PlaidConfig
	Scheduler SchedulerConfig
	Analytics AnalyticsConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type DatabaseConfig struct {
	Path string
}

type PlaidConfig struct {
	ClientID    string
	Secret      string
	Environment string
	// SyncDays is the date window reported by a driver run.
	SyncDays int
}

type SchedulerConfig struct {
	Enabled       bool
	ScheduleTimes []string
	WorkerCount   int
	JobDelay      time.Duration
	QueueSize     int
	RunOnStartup  bool
}

type AnalyticsConfig struct {
	UnusualMultiplier float64
	LookbackPeriods   int
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	MetricsPort  string
}

func Load() (*Config, error) {
	// Local development keeps settings in a .env file; absence is fine.
	_ = godotenv.Load()

	syncDays, err := strconv.Atoi(getEnv("PLAID_SYNC_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLAID_SYNC_DAYS: %w", err)
	}

	// Parse scheduler configuration
	schedulerEnabled := getBoolEnv("SCHEDULER_ENABLED", true)
	schedulerTimes := strings.Split(getEnv("SCHEDULER_TIMES", "06:00,12:00,18:00"), ",")
	schedulerWorkers, err := strconv.Atoi(getEnv("SCHEDULER_WORKERS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_WORKERS: %w", err)
	}
	schedulerJobDelay, err := time.ParseDuration(getEnv("SCHEDULER_JOB_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_JOB_DELAY: %w", err)
	}
	schedulerQueueSize, err := strconv.Atoi(getEnv("SCHEDULER_QUEUE_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_QUEUE_SIZE: %w", err)
	}
	schedulerRunOnStartup := getBoolEnv("SCHEDULER_RUN_ON_STARTUP", false)

	unusualMultiplier, err := strconv.ParseFloat(getEnv("ANALYTICS_UNUSUAL_MULTIPLIER", "1.5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYTICS_UNUSUAL_MULTIPLIER: %w", err)
	}
	lookbackPeriods, err := strconv.Atoi(getEnv("ANALYTICS_LOOKBACK_PERIODS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYTICS_LOOKBACK_PERIODS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "moneymosaic.db"),
		},
		Plaid: PlaidConfig{
			ClientID:    getEnv("PLAID_CLIENT_ID", ""),
			Secret:      getEnv("PLAID_SECRET", ""),
			Environment: getEnv("PLAID_ENV", "sandbox"),
			SyncDays:    syncDays,
		},
		Scheduler: SchedulerConfig{
			Enabled:       schedulerEnabled,
			ScheduleTimes: schedulerTimes,
			WorkerCount:   schedulerWorkers,
			JobDelay:      schedulerJobDelay,
			QueueSize:     schedulerQueueSize,
			RunOnStartup:  schedulerRunOnStartup,
		},
		Analytics: AnalyticsConfig{
			UnusualMultiplier: unusualMultiplier,
			LookbackPeriods:   lookbackPeriods,
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBoolEnv("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "moneymosaic-api"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
			MetricsPort:  getEnv("METRICS_PORT", "9464"),
		},
	}

	// Validate required fields
	if cfg.Plaid.ClientID == "" {
		return nil, fmt.Errorf("PLAID_CLIENT_ID is required")
	}
	if cfg.Plaid.Secret == "" {
		return nil, fmt.Errorf("PLAID_SECRET is required")
	}
	switch cfg.Plaid.Environment {
	case "sandbox", "development", "production":
	default:
		return nil, fmt.Errorf("PLAID_ENV must be sandbox, development or production")
	}
	if cfg.Plaid.SyncDays <= 0 {
		return nil, fmt.Errorf("PLAID_SYNC_DAYS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept: true, false, 1, 0, yes, no (case-insensitive)
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
