// Package queue carries import work over Redis with asynq: task types and
// payloads, an enqueueing client, the worker server and its retry policy.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/shivambatholiya/knovator-job-import/internal/model"
)

// Task types.
const (
	TypeProcessJob  = "import:process-job"
	TypeProcessFeed = "import:process-feed"
)

// ProcessJobPayload asks a worker to store one normalised item and account
// for it on the given import log.
type ProcessJobPayload struct {
	ImportLogID string               `json:"importLogId"`
	FeedURL     string               `json:"feedUrl,omitempty"`
	Item        model.NormalizedItem `json:"item"`
}

// ProcessFeedPayload asks a worker to run a full import of one feed.
type ProcessFeedPayload struct {
	FeedURL string `json:"feedUrl"`
}

// ParseProcessJob decodes a process-job task.
func ParseProcessJob(t *asynq.Task) (ProcessJobPayload, error) {
	var p ProcessJobPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", TypeProcessJob, err)
	}
	if p.ImportLogID == "" {
		return p, fmt.Errorf("decode %s payload: missing importLogId", TypeProcessJob)
	}
	return p, nil
}

// ParseProcessFeed decodes a process-feed task.
func ParseProcessFeed(t *asynq.Task) (ProcessFeedPayload, error) {
	var p ProcessFeedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", TypeProcessFeed, err)
	}
	if p.FeedURL == "" {
		return p, fmt.Errorf("decode %s payload: missing feedUrl", TypeProcessFeed)
	}
	return p, nil
}
