package diskmon

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DD-DeCaF/metabolic-ninja/internal/metrics"
)

func TestFreeRatio(t *testing.T) {
	ratio, err := FreeRatio(t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, ratio, 0.0)
	assert.LessOrEqual(t, ratio, 1.0)
}

func TestFreeRatioMissingPath(t *testing.T) {
	_, err := FreeRatio("/no/such/volume")
	assert.Error(t, err)
}

func TestCheckExportsGauge(t *testing.T) {
	monitor := &Monitor{dataDir: t.TempDir(), threshold: defaultThreshold}

	ratio, err := monitor.Check()
	require.NoError(t, err)
	assert.Equal(t, ratio, testutil.ToFloat64(metrics.DiskFreeRatio))
}

func TestCheckAlarm(t *testing.T) {
	// A threshold above 1 forces the alarm path regardless of the actual
	// volume; without a Sentry DSN the capture is a no-op.
	monitor := &Monitor{dataDir: t.TempDir(), threshold: 1.1}

	ratio, err := monitor.Check()
	require.NoError(t, err)
	assert.Less(t, ratio, monitor.threshold)
}
