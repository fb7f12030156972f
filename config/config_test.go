package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "tenantx", cfg.DB.DBName)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "0 6 * * *", cfg.Scheduler.DailySpec)
	assert.Equal(t, "0 8,12,16,20 * * *", cfg.Scheduler.BusinessHoursSpec)
	assert.Equal(t, "UTC", cfg.Scheduler.Timezone)
	assert.False(t, cfg.Scheduler.DistributedLock)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.LeaseTTL)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestNewConfigEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("JWT_SECRET_KEY", "s3cret")
	t.Setenv("SCHEDULER_DAILY_SPEC", "30 5 * * *")
	t.Setenv("SCHEDULER_DISTRIBUTED_LOCK", "true")
	t.Setenv("SCHEDULER_LEASE_TTL", "10m")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "s3cret", cfg.JWT.SecretKey)
	assert.Equal(t, "30 5 * * *", cfg.Scheduler.DailySpec)
	assert.True(t, cfg.Scheduler.DistributedLock)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.LeaseTTL)
	assert.Contains(t, cfg.PostgresDSN(), "host=db.internal")
}

func TestNewConfigRejectsBadSchedule(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SCHEDULER_BUSINESS_HOURS_SPEC", "every day")

	_, err := NewConfig()
	require.Error(t, err)
}

func TestNewConfigRejectsBadTimezone(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SCHEDULER_TIMEZONE", "Mars/Olympus")

	_, err := NewConfig()
	require.Error(t, err)
}

func TestNewConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("NOTIFY_DEFAULTS=true\nCORS_ALLOWED_ORIGINS=https://app.tenantx.io https://admin.tenantx.io\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("NOTIFY_DEFAULTS")
		os.Unsetenv("CORS_ALLOWED_ORIGINS")
	})

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.True(t, cfg.NotifyDefaults)
	assert.Equal(t, []string{"https://app.tenantx.io", "https://admin.tenantx.io"}, cfg.CORS.AllowedOrigins)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores the previous one when the test ends.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
