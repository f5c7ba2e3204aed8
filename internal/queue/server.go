package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/shivambatholiya/knovator-job-import/internal/logger"
)

// ServerConfig sizes the worker pool.
type ServerConfig struct {
	Queue           string
	Concurrency     int
	Policy          RetryPolicy
	ShutdownTimeout time.Duration
}

// Server consumes import tasks with bounded concurrency.
type Server struct {
	server *asynq.Server
	log    logger.Logger
}

// NewServer builds a worker server. Handlers are supplied to Start.
func NewServer(redisOpt asynq.RedisConnOpt, cfg ServerConfig, log logger.Logger) *Server {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	policy := cfg.Policy
	log = log.With(logger.String("component", "queue"))

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{cfg.Queue: 1},
		RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
			return policy.Delay(n)
		},
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          asynqLogger{log: log},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			log.Warn("task failed",
				logger.String("type", task.Type()),
				logger.Int("retried", retried),
				logger.Int("max_retry", maxRetry),
				logger.Error(err),
			)
		}),
	})
	return &Server{server: server, log: log}
}

// Start begins consuming in the background.
func (s *Server) Start(handler asynq.Handler) error {
	if err := s.server.Start(handler); err != nil {
		return fmt.Errorf("start queue server: %w", err)
	}
	s.log.Info("queue server started")
	return nil
}

// Shutdown stops fetching new tasks and waits for active ones up to the
// configured timeout.
func (s *Server) Shutdown() {
	s.server.Shutdown()
	s.log.Info("queue server stopped")
}

// asynqLogger routes asynq's internal logging through the service logger.
type asynqLogger struct {
	log logger.Logger
}

func (l asynqLogger) Debug(args ...any) { l.log.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...any)  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...any)  { l.log.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...any) { l.log.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...any) { l.log.Fatal(fmt.Sprint(args...)) }
