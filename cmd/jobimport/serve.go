package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/shivambatholiya/knovator-job-import/internal/api"
	"github.com/shivambatholiya/knovator-job-import/internal/config"
	"github.com/shivambatholiya/knovator-job-import/internal/logger"
	"github.com/shivambatholiya/knovator-job-import/internal/queue"
	"github.com/shivambatholiya/knovator-job-import/internal/scheduler"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}

func (c *cli) serve(parent context.Context) error {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := c.log.With(logger.String("service", "jobimport"))

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// ── Inline worker ────────────────────────────────────────────────────────
	var worker *queue.Server
	if cfg.StartInlineWorker {
		srv, mux := a.queueServer()
		if err := srv.Start(mux); err != nil {
			return err
		}
		worker = srv
	}

	// ── Cron ─────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.EnableCron {
		sched = scheduler.New(a.coordinator, a.feeds, cfg.CronExpr, cfg.ImportOnStart, log)
		if err := sched.Start(ctx); err != nil {
			return err
		}
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	if !c.debug {
		gin.SetMode(gin.ReleaseMode)
	}
	h := api.NewHandler(a.coordinator, a.logs, a.jobs, map[string]api.Check{
		"database": a.pingDB,
		"redis":    a.pingRedis,
	}, version, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.NewRouter(h),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.FeedTimeout + 15*time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("version", version), logger.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	log.Info("shutting down")
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", logger.Error(err))
	}

	if worker != nil {
		worker.Shutdown()
	}
	cancel()
	log.Info("stopped")
	return runErr
}
