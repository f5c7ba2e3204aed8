package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/shivambatholiya/knovator-job-import/internal/events"
	"github.com/shivambatholiya/knovator-job-import/internal/logger"
	"github.com/shivambatholiya/knovator-job-import/internal/metrics"
	"github.com/shivambatholiya/knovator-job-import/internal/model"
	"github.com/shivambatholiya/knovator-job-import/internal/queue"
	"github.com/shivambatholiya/knovator-job-import/internal/store"
)

// JobStore persists canonical job records.
type JobStore interface {
	ConditionalUpsert(ctx context.Context, identity model.Identity, rec *model.JobRecord) (*model.JobRecord, bool, error)
	Create(ctx context.Context, rec *model.JobRecord) (*model.JobRecord, error)
}

// Worker stores queued items and accounts for them on their import log.
type Worker struct {
	jobs   JobStore
	ledger Ledger
	events events.Publisher
	log    logger.Logger
}

// NewWorker wires a Worker. pub may be nil.
func NewWorker(jobs JobStore, ledger Ledger, pub events.Publisher, log logger.Logger) *Worker {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Worker{
		jobs:   jobs,
		ledger: ledger,
		events: pub,
		log:    log.With(logger.String("component", "worker")),
	}
}

// ProcessItem upserts one item and bumps the matching ledger counter.
// final marks the last attempt the queue will make: only then, or when the
// failure cannot be fixed by retrying, is the item recorded as failed. The
// error is always returned so the queue can apply its retry policy.
func (w *Worker) ProcessItem(ctx context.Context, p queue.ProcessJobPayload, final bool) (created bool, err error) {
	rec := model.NewJobRecord(p.Item, p.FeedURL)

	if id, ok := model.IdentityOf(p.Item); ok {
		_, created, err = w.jobs.ConditionalUpsert(ctx, id, rec)
	} else {
		_, err = w.jobs.Create(ctx, rec)
		created = true
	}
	if err != nil {
		procErr := &ItemProcessingError{Identifier: p.Item.Identifier(), Err: err}
		if final || !retryable(err) {
			w.recordFailure(ctx, p, err)
		} else {
			metrics.ItemsProcessed.WithLabelValues(metrics.OutcomeRetry).Inc()
			w.log.Warn("item attempt failed, will retry",
				logger.String("import_log_id", p.ImportLogID),
				logger.String("identifier", procErr.Identifier),
				logger.Error(err),
			)
		}
		return false, procErr
	}

	if err := w.ledger.RecordSuccess(ctx, p.ImportLogID, created); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			w.log.Warn("import log missing, job stored without accounting",
				logger.String("import_log_id", p.ImportLogID))
			return created, nil
		}
		err = fmt.Errorf("record success: %w", err)
		if final || !retryable(err) {
			w.recordFailure(ctx, p, err)
		}
		return created, err
	}

	outcome := metrics.OutcomeUpdated
	if created {
		outcome = metrics.OutcomeNew
	}
	metrics.ItemsProcessed.WithLabelValues(outcome).Inc()
	return created, nil
}

func (w *Worker) recordFailure(ctx context.Context, p queue.ProcessJobPayload, cause error) {
	item := p.Item
	identifier := item.Identifier()
	metrics.ItemsProcessed.WithLabelValues(metrics.OutcomeFailed).Inc()

	err := w.ledger.RecordFailure(ctx, p.ImportLogID, model.FailedItem{
		Identifier:      identifier,
		Reason:          cause.Error(),
		OriginalPayload: &item,
	})
	if err != nil {
		w.log.Error("record item failure",
			logger.String("import_log_id", p.ImportLogID),
			logger.String("identifier", identifier),
			logger.Error(err),
		)
	}

	w.events.Publish(ctx, events.Event{
		Type:        events.ImportItemFailed,
		ImportLogID: p.ImportLogID,
		FeedURL:     p.FeedURL,
		Identifier:  identifier,
		Error:       cause.Error(),
	})
	w.log.Warn("item failed",
		logger.String("import_log_id", p.ImportLogID),
		logger.String("identifier", identifier),
		logger.Error(cause),
	)
}

// HandleProcessJob is the queue handler for process-job tasks.
func (w *Worker) HandleProcessJob(ctx context.Context, task *asynq.Task) error {
	p, err := queue.ParseProcessJob(task)
	if err != nil {
		w.log.Error("discarding malformed task", logger.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	_, err = w.ProcessItem(ctx, p, queue.IsFinalAttempt(ctx))
	if err != nil && !retryable(err) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

// Register mounts the import handlers on mux.
func Register(mux *asynq.ServeMux, c *Coordinator, w *Worker) {
	mux.HandleFunc(queue.TypeProcessJob, w.HandleProcessJob)
	mux.HandleFunc(queue.TypeProcessFeed, c.HandleProcessFeed)
}
