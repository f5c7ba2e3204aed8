package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivambatholiya/knovator-job-import/internal/model"
)

// ── IdentityOf ─────────────────────────────────────────────────────────────

func TestIdentityOf_Priority(t *testing.T) {
	cases := []struct {
		name     string
		item     model.NormalizedItem
		wantKind model.IdentityKind
		wantOK   bool
	}{
		{"external id wins over url", model.NormalizedItem{ExternalID: "A", URL: "https://x/1", Title: "Dev", Company: "Acme"}, model.IdentityExternalID, true},
		{"url when no external id", model.NormalizedItem{URL: "https://x/1", Title: "Dev", Company: "Acme"}, model.IdentityURL, true},
		{"title and company", model.NormalizedItem{Title: "Dev", Company: "Acme"}, model.IdentityTitleCompany, true},
		{"title alone is not an identity", model.NormalizedItem{Title: "Dev"}, "", false},
		{"whitespace only", model.NormalizedItem{ExternalID: "  ", URL: " "}, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := model.IdentityOf(tc.item)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantKind, id.Kind)
		})
	}
}

func TestIdentity_KeysDoNotCollideAcrossKinds(t *testing.T) {
	byID, _ := model.IdentityOf(model.NormalizedItem{ExternalID: "https://x/1"})
	byURL, _ := model.IdentityOf(model.NormalizedItem{URL: "https://x/1"})
	assert.NotEqual(t, byID.Key(), byURL.Key())
	assert.Equal(t, "externalId:https://x/1", byID.Key())
}

func TestIdentifier_Fallbacks(t *testing.T) {
	assert.Equal(t, "A", model.NormalizedItem{ExternalID: "A", URL: "u"}.Identifier())
	assert.Equal(t, "u", model.NormalizedItem{URL: "u", Title: "t"}.Identifier())
	assert.Equal(t, "t", model.NormalizedItem{Title: "t"}.Identifier())
	assert.Equal(t, "unknown", model.NormalizedItem{}.Identifier())
}

func TestJobRecord_Validate(t *testing.T) {
	assert.ErrorIs(t, (&model.JobRecord{Title: "  "}).Validate(), model.ErrTitleRequired)
	assert.NoError(t, (&model.JobRecord{Title: "Go Developer"}).Validate())
}

// ── Status ─────────────────────────────────────────────────────────────────

func TestStatus_Derivation(t *testing.T) {
	done := time.Now()
	cases := []struct {
		name  string
		entry model.ImportLogEntry
		want  model.RunStatus
	}{
		{"fresh", model.ImportLogEntry{}, model.RunStarted},
		{"fetched", model.ImportLogEntry{TotalFetched: 3, TotalImported: 1}, model.RunProcessing},
		{"done clean", model.ImportLogEntry{TotalFetched: 2, TotalImported: 2, CompletedAt: &done}, model.RunCompleted},
		{"done with failures", model.ImportLogEntry{TotalFetched: 2, TotalImported: 1, FailedJobsCount: 1, CompletedAt: &done}, model.RunCompletedWithErrors},
		{"empty feed", model.ImportLogEntry{CompletedAt: &done}, model.RunCompleted},
		{"fetch failed", model.ImportLogEntry{FetchFailed: true, CompletedAt: &done}, model.RunFetchFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.entry.Status())
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	for _, s := range []model.RunStatus{model.RunCompleted, model.RunCompletedWithErrors, model.RunFetchFailed} {
		assert.True(t, s.IsTerminal(), s)
	}
	for _, s := range []model.RunStatus{model.RunStarted, model.RunProcessing} {
		assert.False(t, s.IsTerminal(), s)
	}
}

func TestImportLogEntry_JSONIncludesStatus(t *testing.T) {
	entry := model.ImportLogEntry{ID: "log-1", FeedURL: "https://feed", TotalFetched: 4, Notes: "started via import-now"}
	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "PROCESSING", decoded["status"])
	assert.Equal(t, "log-1", decoded["id"])
	assert.EqualValues(t, 4, decoded["totalFetched"])
	assert.NotContains(t, decoded, "failedItems")
}

func TestTrigger_StartedNote(t *testing.T) {
	assert.Equal(t, "started via scheduled", model.TriggerScheduled.StartedNote())
}
