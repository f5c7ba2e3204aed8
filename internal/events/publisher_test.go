package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivambatholiya/knovator-job-import/internal/events"
	"github.com/shivambatholiya/knovator-job-import/internal/logger"
)

func TestRedisPublisher_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, events.ImportStarted)
	defer sub.Close()
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	pub := events.NewRedisPublisher(rdb, logger.NewNop())
	pub.Publish(ctx, events.Event{
		Type:         events.ImportStarted,
		ImportLogID:  "log-1",
		FeedURL:      "https://feed",
		TotalFetched: 3,
	})

	select {
	case msg := <-sub.Channel():
		var evt events.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &evt))
		assert.Equal(t, "log-1", evt.ImportLogID)
		assert.Equal(t, 3, evt.TotalFetched)
		assert.False(t, evt.At.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestRedisPublisher_FailureIsNonFatal(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	mr.Close()

	pub := events.NewRedisPublisher(rdb, logger.NewNop())
	assert.NotPanics(t, func() {
		pub.Publish(context.Background(), events.Event{Type: events.ImportFailed, ImportLogID: "x"})
	})
	_ = rdb.Close()
}
