package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivambatholiya/knovator-job-import/internal/logger"
	"github.com/shivambatholiya/knovator-job-import/internal/model"
	"github.com/shivambatholiya/knovator-job-import/internal/scheduler"
)

type recordingStarter struct {
	mu       sync.Mutex
	feeds    []string
	triggers []model.Trigger
	fail     map[string]bool
}

func (r *recordingStarter) StartImport(_ context.Context, feedURL string, trigger model.Trigger) (*model.ImportLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds = append(r.feeds, feedURL)
	r.triggers = append(r.triggers, trigger)
	if r.fail[feedURL] {
		return nil, errors.New("fetch error: timeout")
	}
	return &model.ImportLogEntry{ID: "log-" + feedURL, FeedURL: feedURL}, nil
}

func (r *recordingStarter) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.feeds)
}

func staticFeeds(urls ...string) func() ([]string, error) {
	return func() ([]string, error) { return urls, nil }
}

func TestRunOnce_ImportsEveryFeedInOrder(t *testing.T) {
	st := &recordingStarter{fail: map[string]bool{"https://b": true}}
	s := scheduler.New(st, staticFeeds("https://a", "https://b", "https://c"), "5 * * * *", false, logger.NewNop())

	started := s.RunOnce(context.Background())

	assert.Equal(t, 2, started)
	assert.Equal(t, []string{"https://a", "https://b", "https://c"}, st.feeds)
	for _, tr := range st.triggers {
		assert.Equal(t, model.TriggerScheduled, tr)
	}
}

func TestRunOnce_ReloadsFeedsEachCycle(t *testing.T) {
	st := &recordingStarter{}
	feeds := []string{"https://a"}
	s := scheduler.New(st, func() ([]string, error) { return feeds, nil }, "5 * * * *", false, logger.NewNop())

	s.RunOnce(context.Background())
	feeds = append(feeds, "https://b")
	s.RunOnce(context.Background())

	assert.Equal(t, []string{"https://a", "https://a", "https://b"}, st.feeds)
}

func TestRunOnce_FeedsError(t *testing.T) {
	st := &recordingStarter{}
	s := scheduler.New(st, func() ([]string, error) { return nil, errors.New("missing file") }, "5 * * * *", false, logger.NewNop())

	assert.Zero(t, s.RunOnce(context.Background()))
	assert.Zero(t, st.calls())
}

func TestRunOnce_StopsOnCancelledContext(t *testing.T) {
	st := &recordingStarter{}
	s := scheduler.New(st, staticFeeds("https://a", "https://b"), "5 * * * *", false, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Zero(t, s.RunOnce(ctx))
	assert.Zero(t, st.calls())
}

func TestStart_InvalidSpec(t *testing.T) {
	s := scheduler.New(&recordingStarter{}, staticFeeds(), "not a spec", false, logger.NewNop())
	require.Error(t, s.Start(context.Background()))
}

func TestStart_RunOnStart(t *testing.T) {
	st := &recordingStarter{}
	s := scheduler.New(st, staticFeeds("https://a"), "5 * * * *", true, logger.NewNop())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool { return st.calls() == 1 }, 2*time.Second, 10*time.Millisecond)
}
