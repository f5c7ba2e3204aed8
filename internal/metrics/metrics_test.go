package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/shivambatholiya/knovator-job-import/internal/metrics"
)

func TestItemsProcessedByOutcome(t *testing.T) {
	before := testutil.ToFloat64(metrics.ItemsProcessed.WithLabelValues(metrics.OutcomeNew))
	metrics.ItemsProcessed.WithLabelValues(metrics.OutcomeNew).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ItemsProcessed.WithLabelValues(metrics.OutcomeNew)))
}

func TestImportsStartedByTrigger(t *testing.T) {
	c := metrics.ImportsStarted.WithLabelValues("scheduled")
	before := testutil.ToFloat64(c)
	c.Add(2)
	assert.Equal(t, before+2, testutil.ToFloat64(c))
}
