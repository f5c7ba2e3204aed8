package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivambatholiya/knovator-job-import/internal/db"
)

func TestOpenSQLite_AppliesSchemaIdempotently(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "jobs.db")

	conn, err := db.Open(ctx, "sqlite", path)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	conn, err = db.Open(ctx, "sqlite", path)
	require.NoError(t, err)
	defer conn.Close()

	var tables []string
	require.NoError(t, conn.SelectContext(ctx, &tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`))
	assert.Equal(t, []string{"import_failed_items", "import_logs", "jobs"}, tables)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := db.Open(context.Background(), "mongo", "mongodb://localhost")
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := db.NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := db.NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
