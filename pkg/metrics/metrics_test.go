package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGaugeAndCounter(t *testing.T) {
	require.NoError(t, InitMetrics(t.TempDir()))
	defer func() {
		require.NoError(t, Close())
	}()

	SetGauge("test_gauge", 42)
	IncrCounter("test_counter")
	IncrCounter("test_counter")
	assert.Equal(t, int64(2), CounterValue("test_counter"))

	now := time.Now().Unix()
	points, err := Query("test_gauge", now-60, now+60)
	require.NoError(t, err)
	require.NotEmpty(t, points)
	assert.Equal(t, float64(42), points[len(points)-1].Value)
}

func TestUninitializedMetricsAreNoops(t *testing.T) {
	// storage not initialized in this state; writers must not panic
	require.NoError(t, Close())
	SetGauge("noop_gauge", 1)
	IncrCounter("noop_counter")

	points, err := Query("noop_gauge", 0, time.Now().Unix())
	require.NoError(t, err)
	assert.Empty(t, points)
}
