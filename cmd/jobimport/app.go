package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/shivambatholiya/knovator-job-import/internal/config"
	"github.com/shivambatholiya/knovator-job-import/internal/db"
	"github.com/shivambatholiya/knovator-job-import/internal/events"
	"github.com/shivambatholiya/knovator-job-import/internal/feed"
	"github.com/shivambatholiya/knovator-job-import/internal/importer"
	"github.com/shivambatholiya/knovator-job-import/internal/logger"
	"github.com/shivambatholiya/knovator-job-import/internal/queue"
	"github.com/shivambatholiya/knovator-job-import/internal/store"
)

// app owns the process-wide connections and the pipeline built on them.
type app struct {
	cfg *config.Config
	log logger.Logger

	db       *sqlx.DB
	rdb      *redis.Client
	redisOpt asynq.RedisConnOpt
	queue    *queue.Client

	jobs        *store.JobRepository
	logs        *store.ImportLogRepository
	coordinator *importer.Coordinator
	worker      *importer.Worker
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// ── Database ─────────────────────────────────────────────────────────────
	log.Info("connecting to database", logger.String("driver", cfg.DatabaseDriver))
	a.db, err = db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.Info("database connected")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Info("connecting to Redis")
	a.rdb, err = db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.redisOpt, err = asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis queue options: %w", err)
	}
	log.Info("redis connected")

	// ── Pipeline ─────────────────────────────────────────────────────────────
	a.queue = queue.NewClient(a.redisOpt, cfg.QueueName, queue.DefaultRetryPolicy)
	a.jobs = store.NewJobRepository(a.db)
	a.logs = store.NewImportLogRepository(a.db)
	pub := events.NewRedisPublisher(a.rdb, log)

	a.coordinator = importer.NewCoordinator(
		feed.NewNormalizer(cfg.FeedTimeout, log),
		a.logs,
		a.queue,
		a.feeds,
		pub,
		log,
	)
	a.worker = importer.NewWorker(a.jobs, a.logs, pub, log)
	return a, nil
}

// feeds re-reads the configured feed list.
func (a *app) feeds() ([]string, error) {
	return config.LoadFeeds(a.cfg.FeedsFile)
}

// queueServer builds a worker server with the import handlers registered.
func (a *app) queueServer() (*queue.Server, *asynq.ServeMux) {
	srv := queue.NewServer(a.redisOpt, queue.ServerConfig{
		Queue:       a.cfg.QueueName,
		Concurrency: a.cfg.WorkerConcurrency,
		Policy:      queue.DefaultRetryPolicy,
	}, a.log)

	mux := asynq.NewServeMux()
	importer.Register(mux, a.coordinator, a.worker)
	return srv, mux
}

func (a *app) pingDB(ctx context.Context) error    { return a.db.PingContext(ctx) }
func (a *app) pingRedis(ctx context.Context) error { return a.rdb.Ping(ctx).Err() }

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			a.log.Warn("close queue client", logger.Error(err))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn("close redis", logger.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("close database", logger.Error(err))
		}
	}
}
