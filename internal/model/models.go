// Package model defines the data structures shared by the import pipeline:
// normalised feed items, persisted job records and import run ledgers.
package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrTitleRequired is returned when a job record is persisted without a title.
var ErrTitleRequired = errors.New("job title is required")

// NormalizedItem is one feed entry after field extraction. Empty strings mean
// the feed did not carry the field. It travels inside queue payloads and is
// kept verbatim as the FailedItem payload.
type NormalizedItem struct {
	ExternalID  string          `json:"externalId,omitempty"`
	Title       string          `json:"title,omitempty"`
	Company     string          `json:"company,omitempty"`
	Location    string          `json:"location,omitempty"`
	URL         string          `json:"url,omitempty"`
	Description string          `json:"description,omitempty"`
	DatePosted  *time.Time      `json:"datePosted,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// Identifier is the human-readable handle used in failure reports.
func (it NormalizedItem) Identifier() string {
	switch {
	case it.ExternalID != "":
		return it.ExternalID
	case it.URL != "":
		return it.URL
	case it.Title != "":
		return it.Title
	default:
		return "unknown"
	}
}

// JobRecord is the canonical, deduplicated job posting.
type JobRecord struct {
	ID          string          `json:"id"`
	ExternalID  string          `json:"externalId,omitempty"`
	Title       string          `json:"title"`
	Company     string          `json:"company,omitempty"`
	Location    string          `json:"location,omitempty"`
	URL         string          `json:"url,omitempty"`
	Description string          `json:"description,omitempty"`
	DatePosted  *time.Time      `json:"datePosted,omitempty"`
	RawSource   json.RawMessage `json:"rawSource,omitempty"`
	FeedURL     string          `json:"feedUrl,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewJobRecord maps a normalised item onto the record fields an import writes.
func NewJobRecord(it NormalizedItem, feedURL string) *JobRecord {
	return &JobRecord{
		ExternalID:  it.ExternalID,
		Title:       it.Title,
		Company:     it.Company,
		Location:    it.Location,
		URL:         it.URL,
		Description: it.Description,
		DatePosted:  it.DatePosted,
		RawSource:   it.Raw,
		FeedURL:     feedURL,
	}
}

// Validate checks the constraints a record must satisfy before it is stored.
func (r *JobRecord) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// FailedItem records one item that exhausted its processing attempts.
type FailedItem struct {
	Identifier      string          `json:"identifier"`
	Reason          string          `json:"reason"`
	OriginalPayload *NormalizedItem `json:"originalPayload,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ImportLogEntry is the ledger of one feed fetch and the processing of its items.
type ImportLogEntry struct {
	ID               string       `json:"id"`
	FeedURL          string       `json:"feedUrl"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
	CompletedAt      *time.Time   `json:"completedAt,omitempty"`
	TotalFetched     int          `json:"totalFetched"`
	TotalImported    int          `json:"totalImported"`
	NewJobsCount     int          `json:"newJobsCount"`
	UpdatedJobsCount int          `json:"updatedJobsCount"`
	FailedJobsCount  int          `json:"failedJobsCount"`
	FetchFailed      bool         `json:"-"`
	FailedItems      []FailedItem `json:"failedItems,omitempty"`
	Notes            string       `json:"notes"`
}

// MarshalJSON adds the derived status to the wire form.
func (e ImportLogEntry) MarshalJSON() ([]byte, error) {
	type plain ImportLogEntry
	return json.Marshal(struct {
		plain
		Status RunStatus `json:"status"`
	}{plain: plain(e), Status: e.Status()})
}

// Trigger names what started an import run.
type Trigger string

const (
	TriggerImportNow Trigger = "import-now"
	TriggerImportAll Trigger = "import-all"
	TriggerScheduled Trigger = "scheduled"
)

// StartedNote is the ledger note written when a run begins.
func (t Trigger) StartedNote() string {
	return "started via " + string(t)
}
