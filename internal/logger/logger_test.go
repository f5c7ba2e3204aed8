package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/shivambatholiya/knovator-job-import/internal/logger"
)

func TestWith_AttachesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := logger.FromZap(zap.New(core)).With(logger.String("component", "worker"))

	log.Warn("upsert failed", logger.Error(errors.New("boom")), logger.Int("attempt", 2))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "upsert failed", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "worker", fields["component"])
	assert.Equal(t, "boom", fields["error"])
	assert.EqualValues(t, 2, fields["attempt"])
}

func TestNew_DefaultsToInfo(t *testing.T) {
	log, err := logger.New(logger.Config{Level: "nonsense", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	require.NotNil(t, log)
}
