package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivambatholiya/knovator-job-import/internal/db"
	"github.com/shivambatholiya/knovator-job-import/internal/model"
	"github.com/shivambatholiya/knovator-job-import/internal/store"
)

const sampleFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Jobs</title>
<item><guid>j-1</guid><title>Go Engineer</title><link>https://jobs/1</link></item>
<item><guid>j-2</guid><title>SRE</title><link>https://jobs/2</link></item>
</channel></rss>`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "jobimport version "+version+"\n", out)
}

func TestFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer ts.Close()

	out, err := run(t, "fetch", ts.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "fetched 2 items from "+ts.URL)
	assert.Contains(t, out, `"externalId": "j-1"`)
	assert.NotContains(t, out, `"externalId": "j-2"`)

	out, err = run(t, "fetch", "--all", ts.URL)
	require.NoError(t, err)
	assert.Contains(t, out, `"externalId": "j-2"`)
}

func TestFetch_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := run(t, "fetch", ts.URL)
	assert.Error(t, err)
}

func TestFetch_RequiresURL(t *testing.T) {
	_, err := run(t, "fetch")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	ctx := context.Background()

	conn, err := db.OpenSQLite(ctx, path)
	require.NoError(t, err)
	jobs := store.NewJobRepository(conn)
	logs := store.NewImportLogRepository(conn)
	item := model.NormalizedItem{ExternalID: "j-1", Title: "Go Engineer", Company: "Acme"}
	id, _ := model.IdentityOf(item)
	_, _, err = jobs.ConditionalUpsert(ctx, id, model.NewJobRecord(item, "https://feed"))
	require.NoError(t, err)
	entry, err := logs.Create(ctx, "https://feed", "started via import-now")
	require.NoError(t, err)
	require.NoError(t, logs.MarkFetched(ctx, entry.ID, 1))
	require.NoError(t, logs.RecordSuccess(ctx, entry.ID, true))
	require.NoError(t, conn.Close())

	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", path)
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	out, err := run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "jobs: 1")
	assert.Contains(t, out, "import logs: 1")
	assert.Contains(t, out, "Go Engineer")
	assert.Contains(t, out, string(model.RunCompleted))
}
