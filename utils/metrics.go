package utils

import (
	"sync"
	"time"
)

// Metrics содержит метрики проверок просроченной аренды
type Metrics struct {
	mu sync.RWMutex

	// Метрики запусков
	TotalSweeps   int64
	FailedSweeps  int64
	SkippedSweeps int64
	TotalDuration time.Duration
	LastDuration  time.Duration
	LastSweepTime time.Time

	// Метрики платежей
	PaymentsProcessed int64
	PaymentsDefaulted int64
	PaymentErrors     int64
	PolicyFallbacks   int64

	// Метрики ошибок
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// NewMetrics создает пустой набор метрик
func NewMetrics() *Metrics {
	return &Metrics{ErrorTypes: make(map[string]int64)}
}

// GetMetrics возвращает общий экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = NewMetrics()
	})
	return metrics
}

// RecordSweep записывает итог одного запуска
func (m *Metrics) RecordSweep(duration time.Duration, processed, defaulted, failed int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalSweeps++
	m.TotalDuration += duration
	m.LastDuration = duration
	m.LastSweepTime = time.Now()
	m.PaymentsProcessed += int64(processed)
	m.PaymentsDefaulted += int64(defaulted)
	m.PaymentErrors += int64(failed)

	if err != nil {
		m.FailedSweeps++
		m.recordErrorLocked(err)
	}
}

// RecordSkippedSweep учитывает запуск, пропущенный из-за уже идущей проверки
func (m *Metrics) RecordSkippedSweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SkippedSweeps++
}

// RecordPolicyFallback учитывает откат на настройки по умолчанию
func (m *Metrics) RecordPolicyFallback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PolicyFallbacks++
}

// RecordError записывает метрики ошибки
func (m *Metrics) RecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordErrorLocked(err)
}

func (m *Metrics) recordErrorLocked(err error) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}
	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot возвращает снимок текущих метрик
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var average time.Duration
	if m.TotalSweeps > 0 {
		average = m.TotalDuration / time.Duration(m.TotalSweeps)
	}

	errorTypes := make(map[string]int64, len(m.ErrorTypes))
	for k, v := range m.ErrorTypes {
		errorTypes[k] = v
	}

	return map[string]interface{}{
		"total_sweeps":       m.TotalSweeps,
		"failed_sweeps":      m.FailedSweeps,
		"skipped_sweeps":     m.SkippedSweeps,
		"average_duration":   average.String(),
		"last_duration":      m.LastDuration.String(),
		"last_sweep_time":    m.LastSweepTime,
		"payments_processed": m.PaymentsProcessed,
		"payments_defaulted": m.PaymentsDefaulted,
		"payment_errors":     m.PaymentErrors,
		"policy_fallbacks":   m.PolicyFallbacks,
		"error_count":        m.ErrorCount,
		"last_error_time":    m.LastErrorTime,
		"error_types":        errorTypes,
	}
}

// ResetMetrics сбрасывает все метрики
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalSweeps = 0
	m.FailedSweeps = 0
	m.SkippedSweeps = 0
	m.TotalDuration = 0
	m.LastDuration = 0
	m.LastSweepTime = time.Time{}
	m.PaymentsProcessed = 0
	m.PaymentsDefaulted = 0
	m.PaymentErrors = 0
	m.PolicyFallbacks = 0
	m.ErrorCount = 0
	m.LastErrorTime = time.Time{}
	m.ErrorTypes = make(map[string]int64)
}
