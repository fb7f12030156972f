package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterWindow(t *testing.T) {
	current := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return current }

	ok, _ := rl.Allow("landlord-1")
	assert.True(t, ok)
	ok, _ = rl.Allow("landlord-1")
	assert.True(t, ok)

	ok, wait := rl.Allow("landlord-1")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)
	assert.Equal(t, 0, rl.Remaining("landlord-1"))

	// другой ключ не затронут
	ok, _ = rl.Allow("landlord-2")
	assert.True(t, ok)

	current = current.Add(61 * time.Second)
	assert.Equal(t, 2, rl.Remaining("landlord-1"))
	ok, _ = rl.Allow("landlord-1")
	assert.True(t, ok)

	rl.Reset("landlord-1")
	assert.Equal(t, 2, rl.Remaining("landlord-1"))
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()

	m.RecordSweep(2*time.Second, 5, 2, 1, nil)
	m.RecordSweep(4*time.Second, 0, 0, 0, errors.New("query failed"))
	m.RecordSkippedSweep()
	m.RecordPolicyFallback()

	snap := m.GetMetricsSnapshot()
	assert.Equal(t, int64(2), snap["total_sweeps"])
	assert.Equal(t, int64(1), snap["failed_sweeps"])
	assert.Equal(t, int64(1), snap["skipped_sweeps"])
	assert.Equal(t, int64(5), snap["payments_processed"])
	assert.Equal(t, int64(2), snap["payments_defaulted"])
	assert.Equal(t, int64(1), snap["payment_errors"])
	assert.Equal(t, int64(1), snap["policy_fallbacks"])
	assert.Equal(t, "3s", snap["average_duration"])
	assert.Equal(t, map[string]int64{"query failed": 1}, snap["error_types"])

	m.ResetMetrics()
	assert.Equal(t, int64(0), m.GetMetricsSnapshot()["total_sweeps"])
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, SetupLogger(path))
	t.Cleanup(func() { _ = SetupLogger("") })

	LogInfo("rent default sweep started", "trigger", "test")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rent default sweep started")
	assert.Contains(t, string(data), "trigger=test")
}
