package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shivambatholiya/knovator-job-import/internal/config"
	"github.com/shivambatholiya/knovator-job-import/internal/grpcserver"
	"github.com/shivambatholiya/knovator-job-import/internal/logger"
)

const healthInterval = 15 * time.Second

func (c *cli) workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume import tasks from the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runWorker(cmd.Context())
		},
	}
}

func (c *cli) runWorker(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := c.log.With(logger.String("service", "jobimport-worker"))

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, mux := a.queueServer()
	if err := srv.Start(mux); err != nil {
		return err
	}

	// ── gRPC health ─────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.WorkerHealthPort))
	if err != nil {
		srv.Shutdown()
		return fmt.Errorf("health listener: %w", err)
	}
	health := grpcserver.NewServer(log, a.pingDB, a.pingRedis)
	go func() {
		if err := health.Serve(lis); err != nil {
			log.Error("health server", logger.Error(err))
		}
	}()
	go health.Watch(ctx, healthInterval)

	log.Info("worker running",
		logger.String("queue", cfg.QueueName),
		logger.Int("concurrency", cfg.WorkerConcurrency),
		logger.String("health_port", cfg.WorkerHealthPort),
	)

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	<-quit

	log.Info("shutting down")
	cancel()
	health.Stop()
	srv.Shutdown()
	log.Info("stopped")
	return nil
}
