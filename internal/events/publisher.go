// Package events publishes import lifecycle notifications on Redis Pub/Sub so
// dashboards can follow runs without polling the ledger. Publishing is
// best-effort: a failure is logged and never fails the import.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shivambatholiya/knovator-job-import/internal/logger"
)

// Channel names. The event type doubles as the channel.
const (
	ImportStarted    = "EVENT_IMPORT_STARTED"
	ImportFailed     = "EVENT_IMPORT_FAILED"
	ImportItemFailed = "EVENT_IMPORT_ITEM_FAILED"
)

// Event is the JSON body published on a channel.
type Event struct {
	Type         string    `json:"type"`
	ImportLogID  string    `json:"importLogId"`
	FeedURL      string    `json:"feedUrl,omitempty"`
	Trigger      string    `json:"trigger,omitempty"`
	TotalFetched int       `json:"totalFetched,omitempty"`
	Identifier   string    `json:"identifier,omitempty"`
	Error        string    `json:"error,omitempty"`
	At           time.Time `json:"at"`
}

// Publisher emits events.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// RedisPublisher publishes on Redis Pub/Sub.
type RedisPublisher struct {
	rdb *redis.Client
	log logger.Logger
}

// NewRedisPublisher returns a publisher using rdb.
func NewRedisPublisher(rdb *redis.Client, log logger.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, log: log.With(logger.String("component", "events"))}
}

// Publish sends evt on the channel named by its type.
func (p *RedisPublisher) Publish(ctx context.Context, evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		p.log.Warn("encode event", logger.String("type", evt.Type), logger.Error(err))
		return
	}
	if err := p.rdb.Publish(ctx, evt.Type, payload).Err(); err != nil {
		p.log.Warn("publish event", logger.String("type", evt.Type), logger.Error(err))
	}
}

// Nop discards events.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) {}
