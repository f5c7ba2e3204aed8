package importer

import (
	"context"
	"fmt"

	"github.com/shivambatholiya/knovator-job-import/internal/logger"
	"github.com/shivambatholiya/knovator-job-import/internal/metrics"
	"github.com/shivambatholiya/knovator-job-import/internal/queue"
)

// RequeueFailed enqueues a fresh process-job task for every failed item of
// the import log that kept its payload, and returns how many were enqueued.
// The failed items themselves are left in place.
func (c *Coordinator) RequeueFailed(ctx context.Context, importLogID string) (int, error) {
	entry, err := c.ledger.Get(ctx, importLogID)
	if err != nil {
		return 0, fmt.Errorf("load import log %s: %w", importLogID, err)
	}

	enqueued := 0
	for _, f := range entry.FailedItems {
		if f.OriginalPayload == nil {
			continue
		}
		err := c.queue.EnqueueProcessJob(ctx, queue.ProcessJobPayload{
			ImportLogID: entry.ID,
			FeedURL:     entry.FeedURL,
			Item:        *f.OriginalPayload,
		})
		if err != nil {
			metrics.ItemsRequeued.Add(float64(enqueued))
			return enqueued, fmt.Errorf("requeue %s: %w", f.Identifier, err)
		}
		enqueued++
	}
	metrics.ItemsRequeued.Add(float64(enqueued))

	c.log.Info("failed items requeued",
		logger.String("import_log_id", entry.ID),
		logger.Int("failed_items", len(entry.FailedItems)),
		logger.Int("enqueued", enqueued),
	)
	return enqueued, nil
}
