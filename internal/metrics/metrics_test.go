package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestJobsCompletedByStatus(t *testing.T) {
	before := testutil.ToFloat64(JobsCompleted.WithLabelValues("SUCCESS"))
	JobsCompleted.WithLabelValues("SUCCESS").Inc()
	JobsCompleted.WithLabelValues("FAILURE").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(JobsCompleted.WithLabelValues("SUCCESS")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(JobsCompleted.WithLabelValues("FAILURE")), 1.0)
}

func TestDiskFreeRatio(t *testing.T) {
	DiskFreeRatio.Set(0.42)
	assert.Equal(t, 0.42, testutil.ToFloat64(DiskFreeRatio))
}
