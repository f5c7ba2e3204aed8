// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing or malformed, Load returns an
// error and the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// Supported values for DATABASE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all runtime configuration for the import service and worker.
type Config struct {
	Port              string
	DatabaseDriver    string
	DatabaseURL       string
	RedisURL          string
	FeedsFile         string
	QueueName         string
	WorkerConcurrency int
	FeedTimeout       time.Duration
	CronExpr          string // standard 5-field cron expression
	EnableCron        bool
	ImportOnStart     bool // fire one scheduled cycle when the cron starts
	StartInlineWorker bool // run the queue worker inside the API process
	WorkerHealthPort  string
	LogLevel          string
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	driver := getenv("DATABASE_DRIVER", DriverPostgres)
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, driver)
	}

	concurrency := 5
	if s := os.Getenv("JOB_WORKER_CONCURRENCY"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("JOB_WORKER_CONCURRENCY must be a positive integer, got %q", s)
		}
		concurrency = v
	}

	timeout := 15 * time.Second
	if s := os.Getenv("FEED_TIMEOUT"); s != "" {
		v, err := time.ParseDuration(s)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("FEED_TIMEOUT must be a positive duration, got %q", s)
		}
		timeout = v
	}

	cronExpr := getenv("IMPORT_CRON_EXPR", "5 * * * *")
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return nil, fmt.Errorf("IMPORT_CRON_EXPR %q: %w", cronExpr, err)
	}

	enableCron, err := getbool("ENABLE_CRON")
	if err != nil {
		return nil, err
	}
	importOnStart, err := getbool("IMPORT_ON_START")
	if err != nil {
		return nil, err
	}
	inlineWorker, err := getbool("START_INLINE_WORKER")
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:              getenv("PORT", "4000"),
		DatabaseDriver:    driver,
		DatabaseURL:       dbURL,
		RedisURL:          redisURL,
		FeedsFile:         getenv("FEEDS_FILE", "config/feeds.yaml"),
		QueueName:         getenv("IMPORT_QUEUE", "job-import"),
		WorkerConcurrency: concurrency,
		FeedTimeout:       timeout,
		CronExpr:          cronExpr,
		EnableCron:        enableCron,
		ImportOnStart:     importOnStart,
		StartInlineWorker: inlineWorker,
		WorkerHealthPort:  getenv("WORKER_HEALTH_PORT", "9091"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, s)
	}
	return v, nil
}
