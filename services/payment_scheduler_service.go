package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"tenantx/utils"
)

// ErrSweepInProgress возвращается ручному вызову, если проверка уже идет
var ErrSweepInProgress = errors.New("проверка просроченной аренды уже выполняется")

// RunState - состояние планировщика
type RunState int32

const (
	RunStateIdle RunState = iota
	RunStateRunning
)

func (s RunState) String() string {
	if s == RunStateRunning {
		return "Running"
	}
	return "Idle"
}

// Источники запуска
const (
	TriggerDaily         = "daily"
	TriggerBusinessHours = "business_hours"
	TriggerManual        = "manual"
)

// Sweeper выполняет один проход проверки
type Sweeper interface {
	RunDefaultSweep(ctx context.Context) (SweepResult, error)
}

// Lease - межпроцессная блокировка, реализуется database.RedisLease
type Lease interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// SchedulerConfig - параметры планировщика
type SchedulerConfig struct {
	DailySpec         string
	BusinessHoursSpec string
	Location          *time.Location
	// Lease не обязателен; без него действует только блокировка внутри процесса
	Lease   Lease
	Metrics *utils.Metrics
}

// RunRecord - сведения о последнем запуске
type RunRecord struct {
	Trigger    string       `json:"trigger"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Summary    SweepSummary `json:"summary"`
	Failed     int          `json:"failed"`
	Error      string       `json:"error,omitempty"`
}

// SchedulerStatus - состояние планировщика для административного API
type SchedulerStatus struct {
	State    string      `json:"state"`
	LastRun  *RunRecord  `json:"lastRun,omitempty"`
	NextRuns []time.Time `json:"nextRuns"`
}

// PaymentSchedulerService запускает проверку просроченной аренды по расписанию и по запросу
type PaymentSchedulerService struct {
	sweeper Sweeper
	cfg     SchedulerConfig
	cron    *cron.Cron

	state atomic.Int32

	mu      sync.RWMutex
	baseCtx context.Context
	lastRun *RunRecord
}

// NewPaymentSchedulerService создает новый экземпляр PaymentSchedulerService
func NewPaymentSchedulerService(sweeper Sweeper, cfg SchedulerConfig) *PaymentSchedulerService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Metrics == nil {
		cfg.Metrics = utils.GetMetrics()
	}

	logger := cronLogger{}
	return &PaymentSchedulerService{
		sweeper: sweeper,
		cfg:     cfg,
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger)),
		),
		baseCtx: context.Background(),
	}
}

// Start регистрирует расписания и запускает планировщик.
// ctx используется для всех запусков по расписанию.
func (s *PaymentSchedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	schedules := []struct {
		spec    string
		trigger string
	}{
		{s.cfg.DailySpec, TriggerDaily},
		{s.cfg.BusinessHoursSpec, TriggerBusinessHours},
	}
	for _, sc := range schedules {
		trigger := sc.trigger
		if _, err := s.cron.AddFunc(sc.spec, func() { s.runScheduled(trigger) }); err != nil {
			return fmt.Errorf("неверное расписание %q: %w", sc.spec, err)
		}
	}

	s.cron.Start()
	utils.LogInfo("rent default scheduler started",
		"daily", s.cfg.DailySpec,
		"business_hours", s.cfg.BusinessHoursSpec,
		"timezone", s.cfg.Location.String(),
		"distributed_lock", s.cfg.Lease != nil,
	)
	return nil
}

// Stop останавливает планировщик и ждет завершения текущего запуска
func (s *PaymentSchedulerService) Stop() {
	<-s.cron.Stop().Done()
	utils.LogInfo("rent default scheduler stopped")
}

// RunNow запускает проверку вручную. Если проверка уже идет, возвращает ErrSweepInProgress.
func (s *PaymentSchedulerService) RunNow(ctx context.Context) (SweepSummary, error) {
	return s.run(ctx, TriggerManual)
}

// State возвращает текущее состояние
func (s *PaymentSchedulerService) State() RunState {
	return RunState(s.state.Load())
}

// Status возвращает состояние, последний запуск и ближайшие запуски по расписанию
func (s *PaymentSchedulerService) Status() SchedulerStatus {
	status := SchedulerStatus{State: s.State().String(), NextRuns: []time.Time{}}

	s.mu.RLock()
	if s.lastRun != nil {
		last := *s.lastRun
		status.LastRun = &last
	}
	s.mu.RUnlock()

	for _, entry := range s.cron.Entries() {
		if !entry.Next.IsZero() {
			status.NextRuns = append(status.NextRuns, entry.Next)
		}
	}
	return status
}

func (s *PaymentSchedulerService) runScheduled(trigger string) {
	s.mu.RLock()
	ctx := s.baseCtx
	s.mu.RUnlock()

	// ошибки уже залогированы в run; повтор будет на следующем срабатывании
	_, _ = s.run(ctx, trigger)
}

func (s *PaymentSchedulerService) run(ctx context.Context, trigger string) (SweepSummary, error) {
	if !s.state.CompareAndSwap(int32(RunStateIdle), int32(RunStateRunning)) {
		s.cfg.Metrics.RecordSkippedSweep()
		utils.LogWarn("rent default sweep skipped, previous run still in progress", "trigger", trigger)
		return SweepSummary{}, ErrSweepInProgress
	}
	defer s.state.Store(int32(RunStateIdle))

	if s.cfg.Lease != nil {
		ok, err := s.cfg.Lease.Acquire(ctx)
		if err != nil {
			s.cfg.Metrics.RecordError(err)
			utils.LogError("rent default sweep lease failed", "trigger", trigger, "error", err)
			return SweepSummary{}, err
		}
		if !ok {
			s.cfg.Metrics.RecordSkippedSweep()
			utils.LogWarn("rent default sweep skipped, lease held by another instance", "trigger", trigger)
			return SweepSummary{}, ErrSweepInProgress
		}
		defer func() {
			if err := s.cfg.Lease.Release(context.WithoutCancel(ctx)); err != nil {
				utils.LogWarn("rent default sweep lease release failed", "error", err)
			}
		}()
	}

	started := time.Now()
	result, err := s.sweep(ctx)
	finished := time.Now()

	summary := result.Summary()
	failed := result.Failed()
	s.cfg.Metrics.RecordSweep(finished.Sub(started), summary.Processed, summary.Defaulted, failed, err)

	record := &RunRecord{
		Trigger:    trigger,
		StartedAt:  started,
		FinishedAt: finished,
		Summary:    summary,
		Failed:     failed,
	}
	if err != nil {
		record.Error = err.Error()
		utils.LogError("rent default sweep failed", "trigger", trigger, "error", err)
	}

	s.mu.Lock()
	s.lastRun = record
	s.mu.Unlock()

	return summary, err
}

// sweep превращает панику в ошибку, чтобы флаг запуска всегда снимался
func (s *PaymentSchedulerService) sweep(ctx context.Context) (result SweepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.sweeper.RunDefaultSweep(ctx)
}

// cronLogger передает сообщения cron в общий логгер
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	utils.LogDebug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	utils.LogError("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
