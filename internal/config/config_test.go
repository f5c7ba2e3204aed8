package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivambatholiya/knovator-job-import/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/jobs")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_RequiresRedisURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/jobs")
	t.Setenv("REDIS_URL", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	for _, k := range []string{"PORT", "DATABASE_DRIVER", "FEEDS_FILE", "JOB_WORKER_CONCURRENCY",
		"FEED_TIMEOUT", "IMPORT_CRON_EXPR", "ENABLE_CRON", "START_INLINE_WORKER", "IMPORT_QUEUE"} {
		t.Setenv(k, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, config.DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, 5, cfg.WorkerConcurrency)
	assert.Equal(t, 15*time.Second, cfg.FeedTimeout)
	assert.Equal(t, "5 * * * *", cfg.CronExpr)
	assert.Equal(t, "job-import", cfg.QueueName)
	assert.False(t, cfg.EnableCron)
	assert.False(t, cfg.StartInlineWorker)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		key, value string
	}{
		{"DATABASE_DRIVER", "mongo"},
		{"JOB_WORKER_CONCURRENCY", "0"},
		{"JOB_WORKER_CONCURRENCY", "many"},
		{"FEED_TIMEOUT", "soon"},
		{"IMPORT_CRON_EXPR", "every hour"},
		{"ENABLE_CRON", "maybe"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.value)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestParseFeeds_Forms(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"yaml list", "- https://a.example/feed\n- https://b.example/rss\n", []string{"https://a.example/feed", "https://b.example/rss"}},
		{"json list", `["https://a.example/feed", "https://b.example/rss"]`, []string{"https://a.example/feed", "https://b.example/rss"}},
		{"mapping", "feeds:\n  - https://a.example/feed\n", []string{"https://a.example/feed"}},
		{"dedup and blanks", "- https://a.example/feed\n- ''\n- ' https://a.example/feed '\n", []string{"https://a.example/feed"}},
		{"empty", "", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := config.ParseFeeds([]byte(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseFeeds_RejectsScalar(t *testing.T) {
	_, err := config.ParseFeeds([]byte("just-a-string"))
	assert.Error(t, err)
}

func TestLoadFeeds_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- https://jobicy.com/?feed=job_feed\n"), 0o600))

	feeds, err := config.LoadFeeds(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://jobicy.com/?feed=job_feed"}, feeds)

	_, err = config.LoadFeeds(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
