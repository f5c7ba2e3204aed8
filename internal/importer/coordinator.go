// Package importer runs the import pipeline: it starts runs for feeds,
// processes queued items into the job store and requeues failures recorded
// on an import log.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/shivambatholiya/knovator-job-import/internal/events"
	"github.com/shivambatholiya/knovator-job-import/internal/logger"
	"github.com/shivambatholiya/knovator-job-import/internal/metrics"
	"github.com/shivambatholiya/knovator-job-import/internal/model"
	"github.com/shivambatholiya/knovator-job-import/internal/queue"
)

// FeedSource downloads and normalises a feed.
type FeedSource interface {
	FetchAndNormalize(ctx context.Context, feedURL string) ([]model.NormalizedItem, error)
}

// Ledger is the import log store.
type Ledger interface {
	Create(ctx context.Context, feedURL, notes string) (*model.ImportLogEntry, error)
	MarkFetched(ctx context.Context, id string, total int) error
	MarkFetchFailed(ctx context.Context, id, notes string) error
	RecordSuccess(ctx context.Context, id string, created bool) error
	RecordFailure(ctx context.Context, id string, item model.FailedItem) error
	Get(ctx context.Context, id string) (*model.ImportLogEntry, error)
}

// Enqueuer hands tasks to the work queue.
type Enqueuer interface {
	EnqueueProcessJob(ctx context.Context, p queue.ProcessJobPayload) error
	EnqueueProcessFeed(ctx context.Context, p queue.ProcessFeedPayload) error
}

// FeedList returns the configured feed URLs.
type FeedList func() ([]string, error)

// Coordinator starts import runs.
type Coordinator struct {
	source FeedSource
	ledger Ledger
	queue  Enqueuer
	feeds  FeedList
	events events.Publisher
	log    logger.Logger
}

// NewCoordinator wires a Coordinator. pub may be nil.
func NewCoordinator(source FeedSource, ledger Ledger, q Enqueuer, feeds FeedList, pub events.Publisher, log logger.Logger) *Coordinator {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Coordinator{
		source: source,
		ledger: ledger,
		queue:  q,
		feeds:  feeds,
		events: pub,
		log:    log.With(logger.String("component", "coordinator")),
	}
}

// StartImport opens an import log for feedURL, fetches the feed and enqueues
// one process-job task per item. A fetch or parse failure is written to the
// log's notes and returned together with the entry.
//
// Only the fetch is bound to ctx. Once the log exists its bookkeeping runs on
// a detached context, so a caller that goes away mid-run cannot leave fetched
// items neither enqueued nor recorded as failed.
func (c *Coordinator) StartImport(ctx context.Context, feedURL string, trigger model.Trigger) (*model.ImportLogEntry, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil, &ValidationError{Msg: "feedUrl required"}
	}

	entry, err := c.ledger.Create(ctx, feedURL, trigger.StartedNote())
	if err != nil {
		return nil, fmt.Errorf("create import log: %w", err)
	}
	metrics.ImportsStarted.WithLabelValues(string(trigger)).Inc()
	log := c.log.With(logger.String("import_log_id", entry.ID), logger.String("feed_url", feedURL))
	bg := context.WithoutCancel(ctx)

	items, err := c.source.FetchAndNormalize(ctx, feedURL)
	if err != nil {
		metrics.FetchFailures.Inc()
		c.failRun(bg, entry, trigger, "fetch error: "+err.Error(), err, log)
		log.Warn("feed fetch failed", logger.Error(err))
		return entry, err
	}

	if err := c.ledger.MarkFetched(bg, entry.ID, len(items)); err != nil {
		err = fmt.Errorf("record fetched count: %w", err)
		c.failRun(bg, entry, trigger, err.Error(), err, log)
		log.Error("record fetched count", logger.Error(err))
		return entry, err
	}
	entry.TotalFetched = len(items)

	enqueued := 0
	for i := range items {
		item := items[i]
		err := c.queue.EnqueueProcessJob(bg, queue.ProcessJobPayload{
			ImportLogID: entry.ID,
			FeedURL:     feedURL,
			Item:        item,
		})
		if err != nil {
			log.Error("enqueue item", logger.String("identifier", item.Identifier()), logger.Error(err))
			if fErr := c.ledger.RecordFailure(bg, entry.ID, model.FailedItem{
				Identifier:      item.Identifier(),
				Reason:          "enqueue failed: " + err.Error(),
				OriginalPayload: &item,
			}); fErr != nil {
				log.Error("record enqueue failure", logger.Error(fErr))
			}
			continue
		}
		enqueued++
	}
	metrics.ItemsEnqueued.Add(float64(enqueued))

	c.events.Publish(bg, events.Event{
		Type:         events.ImportStarted,
		ImportLogID:  entry.ID,
		FeedURL:      feedURL,
		Trigger:      string(trigger),
		TotalFetched: len(items),
	})
	log.Info("import started",
		logger.String("trigger", string(trigger)),
		logger.Int("total_fetched", len(items)),
		logger.Int("enqueued", enqueued),
	)
	return entry, nil
}

// failRun marks the run as failed before any item was enqueued.
func (c *Coordinator) failRun(ctx context.Context, entry *model.ImportLogEntry, trigger model.Trigger, notes string, cause error, log logger.Logger) {
	if err := c.ledger.MarkFetchFailed(ctx, entry.ID, notes); err != nil {
		log.Error("record fetch failure", logger.Error(err))
	}
	entry.Notes = notes
	entry.FetchFailed = true
	c.events.Publish(ctx, events.Event{
		Type:        events.ImportFailed,
		ImportLogID: entry.ID,
		FeedURL:     entry.FeedURL,
		Trigger:     string(trigger),
		Error:       cause.Error(),
	})
}

// StartImportAll enqueues one process-feed task per configured feed and
// returns how many were enqueued. A failed enqueue does not stop the rest.
func (c *Coordinator) StartImportAll(ctx context.Context) (int, error) {
	feeds, err := c.feeds()
	if err != nil {
		return 0, fmt.Errorf("load feeds: %w", err)
	}

	var errs []error
	enqueued := 0
	for _, f := range feeds {
		if err := c.queue.EnqueueProcessFeed(ctx, queue.ProcessFeedPayload{FeedURL: f}); err != nil {
			c.log.Error("enqueue feed", logger.String("feed_url", f), logger.Error(err))
			errs = append(errs, err)
			continue
		}
		enqueued++
	}

	c.log.Info("import-all enqueued", logger.Int("feeds", len(feeds)), logger.Int("enqueued", enqueued))
	return enqueued, errors.Join(errs...)
}

// HandleProcessFeed is the queue handler for process-feed tasks. A failed
// fetch is returned so the queue retries that feed.
func (c *Coordinator) HandleProcessFeed(ctx context.Context, task *asynq.Task) error {
	p, err := queue.ParseProcessFeed(task)
	if err != nil {
		c.log.Error("discarding malformed task", logger.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	_, err = c.StartImport(ctx, p.FeedURL, model.TriggerImportAll)
	return err
}
