package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// DefaultQueue is the asynq queue import tasks go to.
const DefaultQueue = "job-import"

// Client enqueues import tasks.
type Client struct {
	client *asynq.Client
	queue  string
	policy RetryPolicy
}

// NewClient builds a client for the given Redis connection.
func NewClient(redisOpt asynq.RedisConnOpt, queueName string, policy RetryPolicy) *Client {
	if queueName == "" {
		queueName = DefaultQueue
	}
	return &Client{
		client: asynq.NewClient(redisOpt),
		queue:  queueName,
		policy: policy,
	}
}

// EnqueueProcessJob schedules one item for processing.
func (c *Client) EnqueueProcessJob(ctx context.Context, p ProcessJobPayload) error {
	_, err := c.enqueue(ctx, TypeProcessJob, p)
	return err
}

// EnqueueProcessFeed schedules a full import of one feed.
func (c *Client) EnqueueProcessFeed(ctx context.Context, p ProcessFeedPayload) error {
	_, err := c.enqueue(ctx, TypeProcessFeed, p)
	return err
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload any) (*asynq.TaskInfo, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", taskType, err)
	}
	info, err := c.client.EnqueueContext(ctx, asynq.NewTask(taskType, b),
		asynq.Queue(c.queue),
		asynq.MaxRetry(c.policy.MaxRetry()),
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return info, nil
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
