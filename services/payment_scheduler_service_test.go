package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantx/database"
	"tenantx/utils"
)

// blockingSweeper держит проверку, пока тест не закроет release
type blockingSweeper struct {
	started chan struct{}
	release chan struct{}
	result  SweepResult
	err     error
	panics  bool
	calls   int
}

func (s *blockingSweeper) RunDefaultSweep(ctx context.Context) (SweepResult, error) {
	s.calls++
	if s.started != nil {
		close(s.started)
		<-s.release
	}
	if s.panics {
		panic("nil settings document")
	}
	return s.result, s.err
}

func newTestScheduler(sweeper Sweeper, lease Lease) (*PaymentSchedulerService, *utils.Metrics) {
	metrics := utils.NewMetrics()
	return NewPaymentSchedulerService(sweeper, SchedulerConfig{
		DailySpec:         "0 6 * * *",
		BusinessHoursSpec: "0 8,12,16,20 * * *",
		Location:          time.UTC,
		Lease:             lease,
		Metrics:           metrics,
	}), metrics
}

func TestRunNow_ReturnsSummary(t *testing.T) {
	sweeper := &blockingSweeper{result: SweepResult{Outcomes: []PaymentOutcome{
		{Kind: OutcomeDefaulted}, {Kind: OutcomeSkipped}, {Kind: OutcomeFailed},
	}}}
	scheduler, metrics := newTestScheduler(sweeper, nil)

	summary, err := scheduler.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepSummary{Processed: 3, Defaulted: 1}, summary)
	assert.Equal(t, RunStateIdle, scheduler.State())

	status := scheduler.Status()
	require.NotNil(t, status.LastRun)
	assert.Equal(t, TriggerManual, status.LastRun.Trigger)
	assert.Equal(t, 1, status.LastRun.Failed)
	assert.Equal(t, int64(1), metrics.TotalSweeps)
	assert.Equal(t, int64(1), metrics.PaymentErrors)
}

func TestRunNow_GuardRejectsOverlap(t *testing.T) {
	sweeper := &blockingSweeper{started: make(chan struct{}), release: make(chan struct{})}
	scheduler, metrics := newTestScheduler(sweeper, nil)

	done := make(chan error, 1)
	go func() {
		_, err := scheduler.RunNow(context.Background())
		done <- err
	}()
	<-sweeper.started

	assert.Equal(t, RunStateRunning, scheduler.State())
	_, err := scheduler.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrSweepInProgress)
	assert.Equal(t, int64(1), metrics.SkippedSweeps)

	close(sweeper.release)
	require.NoError(t, <-done)
	assert.Equal(t, RunStateIdle, scheduler.State())
	assert.Equal(t, 1, sweeper.calls)
}

func TestRunNow_ReleasesGuardAfterFailure(t *testing.T) {
	sweeper := &blockingSweeper{err: errors.New("collection unavailable")}
	scheduler, metrics := newTestScheduler(sweeper, nil)

	_, err := scheduler.RunNow(context.Background())
	require.Error(t, err)
	assert.Equal(t, RunStateIdle, scheduler.State())
	assert.Equal(t, "collection unavailable", scheduler.Status().LastRun.Error)
	assert.Equal(t, int64(1), metrics.FailedSweeps)

	sweeper.err = nil
	_, err = scheduler.RunNow(context.Background())
	assert.NoError(t, err)
}

func TestRunNow_ReleasesGuardAfterPanic(t *testing.T) {
	sweeper := &blockingSweeper{panics: true}
	scheduler, _ := newTestScheduler(sweeper, nil)

	_, err := scheduler.RunNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil settings document")
	assert.Equal(t, RunStateIdle, scheduler.State())

	sweeper.panics = false
	_, err = scheduler.RunNow(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, sweeper.calls)
}

func TestRunNow_DistributedLease(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	const key = "tenantx:rent-default-sweep"
	lease := database.NewRedisLease(client, key, time.Minute)
	sweeper := &blockingSweeper{}
	scheduler, metrics := newTestScheduler(sweeper, lease)

	_, err := scheduler.RunNow(context.Background())
	require.NoError(t, err)
	assert.False(t, mr.Exists(key), "lease released after the run")

	// другой экземпляр держит блокировку
	require.NoError(t, mr.Set(key, "other-instance"))
	_, err = scheduler.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrSweepInProgress)
	assert.Equal(t, 1, sweeper.calls)
	assert.Equal(t, int64(1), metrics.SkippedSweeps)
	assert.Equal(t, RunStateIdle, scheduler.State())

	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "other-instance", got)
}

func TestStartStop_RegistersSchedules(t *testing.T) {
	scheduler, _ := newTestScheduler(&blockingSweeper{}, nil)

	require.NoError(t, scheduler.Start(context.Background()))
	status := scheduler.Status()
	assert.Equal(t, "Idle", status.State)
	require.Len(t, status.NextRuns, 2)
	for _, next := range status.NextRuns {
		assert.Equal(t, 0, next.Minute())
		assert.Contains(t, []int{6, 8, 12, 16, 20}, next.Hour())
	}
	scheduler.Stop()
}

func TestStart_InvalidSpec(t *testing.T) {
	scheduler := NewPaymentSchedulerService(&blockingSweeper{}, SchedulerConfig{
		DailySpec:         "not a cron spec",
		BusinessHoursSpec: "0 8,12,16,20 * * *",
		Metrics:           utils.NewMetrics(),
	})
	assert.Error(t, scheduler.Start(context.Background()))
}
