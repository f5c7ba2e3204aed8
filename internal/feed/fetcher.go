package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shivambatholiya/knovator-job-import/internal/logger"
	"github.com/shivambatholiya/knovator-job-import/internal/model"
)

const (
	// DefaultTimeout bounds one feed download.
	DefaultTimeout = 15 * time.Second
	maxBodyBytes   = 20 << 20
	userAgent      = "knovator-job-import/1.0"
)

// Normalizer downloads feeds and converts them to normalised items.
type Normalizer struct {
	client  *http.Client
	timeout time.Duration
	log     logger.Logger
}

// NewNormalizer constructs a Normalizer with a shared HTTP client. A
// non-positive timeout falls back to DefaultTimeout.
func NewNormalizer(timeout time.Duration, log logger.Logger) *Normalizer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Normalizer{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		log:     log.With(logger.String("component", "normalizer")),
	}
}

// FetchAndNormalize downloads feedURL and returns its items. Errors are
// *FetchError or *ParseError; an unrecognised layout is not an error.
func (n *Normalizer) FetchAndNormalize(ctx context.Context, feedURL string) ([]model.NormalizedItem, error) {
	body, err := n.fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	items, err := Normalize(body)
	if err != nil {
		return nil, &ParseError{URL: feedURL, Err: err}
	}

	n.log.Debug("feed normalised",
		logger.String("feed_url", feedURL),
		logger.Int("items", len(items)),
	)
	return items, nil
}

func (n *Normalizer) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml;q=0.9, */*;q=0.8")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: fmt.Errorf("http GET: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			URL:        feedURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
