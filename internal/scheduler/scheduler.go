// Package scheduler wires up the cron job that periodically imports every
// configured feed.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/shivambatholiya/knovator-job-import/internal/logger"
	"github.com/shivambatholiya/knovator-job-import/internal/model"
)

// Starter starts one import run.
type Starter interface {
	StartImport(ctx context.Context, feedURL string, trigger model.Trigger) (*model.ImportLogEntry, error)
}

// Scheduler wraps robfig/cron and manages the import loop.
type Scheduler struct {
	cron       *cron.Cron
	starter    Starter
	feeds      func() ([]string, error)
	spec       string // standard 5-field cron spec, e.g. "5 * * * *"
	runOnStart bool
	log        logger.Logger
}

// New creates a Scheduler firing on spec. feeds is re-read on every tick.
func New(starter Starter, feeds func() ([]string, error), spec string, runOnStart bool, log logger.Logger) *Scheduler {
	log = log.With(logger.String("component", "scheduler"))
	cl := cronLogger{log: log}
	return &Scheduler{
		cron:       cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		starter:    starter,
		feeds:      feeds,
		spec:       spec,
		runOnStart: runOnStart,
		log:        log,
	}
}

// Start registers the job and starts the scheduler. With runOnStart one
// cycle also runs immediately so a fresh deployment does not wait for the
// first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("cron started", logger.String("spec", s.spec))

	if s.runOnStart {
		go s.RunOnce(ctx)
	}
	return nil
}

// Stop halts the scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("cron stopped")
}

// RunOnce imports every configured feed in order and returns how many runs
// started. A failing feed is logged and does not stop the cycle.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	feeds, err := s.feeds()
	if err != nil {
		s.log.Error("load feeds", logger.Error(err))
		return 0
	}
	if len(feeds) == 0 {
		s.log.Info("no feeds configured, nothing to import")
		return 0
	}

	s.log.Info("import cycle started", logger.Int("feeds", len(feeds)))
	started := 0
	for _, f := range feeds {
		if ctx.Err() != nil {
			break
		}
		entry, err := s.starter.StartImport(ctx, f, model.TriggerScheduled)
		if err != nil {
			s.log.Warn("scheduled import failed", logger.String("feed_url", f), logger.Error(err))
			continue
		}
		started++
		s.log.Info("scheduled import started",
			logger.String("feed_url", f),
			logger.String("import_log_id", entry.ID),
			logger.Int("total_fetched", entry.TotalFetched),
		)
	}
	s.log.Info("import cycle complete", logger.Int("started", started))
	return started
}

// cronLogger routes cron's own logging through the service logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []any) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
