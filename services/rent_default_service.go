package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tenantx/database"
	"tenantx/models"
	"tenantx/utils"
)

// ErrNoDueDate возвращается, если у платежа нет срока оплаты
var ErrNoDueDate = errors.New("у платежа не указан срок оплаты")

// OutcomeKind - результат обработки одного платежа
type OutcomeKind string

const (
	OutcomeDefaulted OutcomeKind = "Defaulted"
	OutcomeSkipped   OutcomeKind = "Skipped"
	OutcomeFailed    OutcomeKind = "Failed"
)

// PaymentOutcome описывает, что проверка сделала с платежом
type PaymentOutcome struct {
	PaymentID     uuid.UUID
	Kind          OutcomeKind
	Policy        RentPolicy
	PenaltyAmount decimal.Decimal
	Err           error
}

// SweepSummary - итог проверки, который видит вызывающий
type SweepSummary struct {
	Processed int `json:"processed"`
	Defaulted int `json:"defaulted"`
}

// SweepResult - полный результат одного прохода по платежам
type SweepResult struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []PaymentOutcome
}

// Summary сводит результаты по платежам в счетчики
func (r SweepResult) Summary() SweepSummary {
	summary := SweepSummary{Processed: len(r.Outcomes)}
	for _, o := range r.Outcomes {
		if o.Kind == OutcomeDefaulted {
			summary.Defaulted++
		}
	}
	return summary
}

// Failed возвращает количество платежей, обработка которых завершилась ошибкой
func (r SweepResult) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == OutcomeFailed {
			n++
		}
	}
	return n
}

// DefaultNotifier получает уведомление о каждом платеже, переведенном в дефолт
type DefaultNotifier interface {
	NotifyPaymentDefaulted(ctx context.Context, payment *models.Payment, policy RentPolicy) error
}

// RentDefaultOption настраивает RentDefaultService
type RentDefaultOption func(*RentDefaultService)

// WithNotifier подключает уведомления о дефолте
func WithNotifier(n DefaultNotifier) RentDefaultOption {
	return func(s *RentDefaultService) { s.notifier = n }
}

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) RentDefaultOption {
	return func(s *RentDefaultService) { s.now = now }
}

// WithMetrics задает набор метрик
func WithMetrics(m *utils.Metrics) RentDefaultOption {
	return func(s *RentDefaultService) { s.metrics = m }
}

// RentDefaultService находит просроченные арендные платежи и переводит их в дефолт со штрафом
type RentDefaultService struct {
	payments PaymentStore
	resolver *RentPolicyResolver
	notifier DefaultNotifier
	metrics  *utils.Metrics
	now      func() time.Time
}

// NewRentDefaultService создает новый экземпляр RentDefaultService
func NewRentDefaultService(payments PaymentStore, resolver *RentPolicyResolver, opts ...RentDefaultOption) *RentDefaultService {
	s := &RentDefaultService{
		payments: payments,
		resolver: resolver,
		metrics:  utils.GetMetrics(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunDefaultSweep проходит по всем арендным платежам, ожидающим оплаты.
// Ошибка по одному платежу не прерывает проход; ошибка выборки возвращается вызывающему.
func (s *RentDefaultService) RunDefaultSweep(ctx context.Context) (SweepResult, error) {
	result := SweepResult{StartedAt: s.now()}
	utils.LogInfo("rent default sweep started")

	payments, err := s.payments.FindRentPaymentsPendingDefault(ctx)
	if err != nil {
		return result, fmt.Errorf("ошибка при получении платежей: %w", err)
	}
	utils.LogInfo("rent payments pending default found", "count", len(payments))

	result.Outcomes = make([]PaymentOutcome, 0, len(payments))
	for i := range payments {
		if err := ctx.Err(); err != nil {
			result.FinishedAt = s.now()
			return result, err
		}
		result.Outcomes = append(result.Outcomes, s.processPayment(ctx, &payments[i]))
	}
	result.FinishedAt = s.now()

	summary := result.Summary()
	utils.LogInfo("rent default sweep completed",
		"processed", summary.Processed,
		"defaulted", summary.Defaulted,
		"failed", result.Failed(),
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)
	return result, nil
}

// processPayment обрабатывает один платеж
func (s *RentDefaultService) processPayment(ctx context.Context, payment *models.Payment) (outcome PaymentOutcome) {
	outcome = PaymentOutcome{PaymentID: payment.ID}

	defer func() {
		if r := recover(); r != nil {
			outcome.Kind = OutcomeFailed
			outcome.Err = fmt.Errorf("panic: %v", r)
			utils.LogError("rent payment processing failed", "payment_id", payment.ID, "error", outcome.Err)
		}
	}()

	now := s.now()
	policy := s.resolver.ResolveRentPolicy(ctx, payment)
	outcome.Policy = policy
	if policy.LookupErr != nil {
		s.metrics.RecordPolicyFallback()
		utils.LogWarn("rent settings lookup failed, using defaults",
			"payment_id", payment.ID,
			"deadline_days", policy.DeadlineDays,
			"penalty_percentage", policy.PenaltyPercentage.String(),
			"error", policy.LookupErr,
		)
	}

	if !now.After(policy.DeadlineDate) {
		outcome.Kind = OutcomeSkipped
		return outcome
	}

	penalty := CalculatePenaltyAmount(payment.Amount, policy.PenaltyPercentage)
	fields := models.DefaultFields{
		DefaultedDate:     now,
		DeadlineDate:      policy.DeadlineDate,
		PenaltyAmount:     penalty,
		PenaltyPercentage: policy.PenaltyPercentage,
	}

	updated, err := s.payments.MarkPaymentDefaulted(ctx, payment.ID, fields)
	switch {
	case errors.Is(err, database.ErrAlreadyDefaulted):
		// другой процесс успел раньше
		utils.LogInfo("rent payment already defaulted", "payment_id", payment.ID)
		outcome.Kind = OutcomeSkipped
		return outcome
	case err != nil:
		outcome.Kind = OutcomeFailed
		outcome.Err = err
		utils.LogError("rent payment processing failed", "payment_id", payment.ID, "error", err)
		return outcome
	}

	outcome.Kind = OutcomeDefaulted
	outcome.PenaltyAmount = penalty
	utils.LogInfo("rent payment marked as defaulted",
		"payment_id", payment.ID,
		"amount", payment.Amount.String(),
		"penalty", penalty.String(),
		"percentage", policy.PenaltyPercentage.String(),
		"deadline_date", policy.DeadlineDate,
		"source", policy.Source,
	)

	if updated == nil {
		updated = payment
		updated.ApplyDefault(fields)
	}
	s.notify(ctx, updated, policy)
	return outcome
}

// notify отправляет уведомление; ошибки только логируются
func (s *RentDefaultService) notify(ctx context.Context, payment *models.Payment, policy RentPolicy) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			utils.LogError("default notification panicked", "payment_id", payment.ID, "error", r)
		}
	}()
	if err := s.notifier.NotifyPaymentDefaulted(ctx, payment, policy); err != nil {
		utils.LogWarn("default notification failed", "payment_id", payment.ID, "error", err)
	}
}

// PenaltyPreview - расчет штрафа без записи
type PenaltyPreview struct {
	PaymentID         uuid.UUID       `json:"paymentId"`
	LandlordID        uuid.UUID       `json:"landlordId"`
	Amount            decimal.Decimal `json:"amount"`
	PenaltyAmount     decimal.Decimal `json:"penaltyAmount"`
	PenaltyPercentage decimal.Decimal `json:"penaltyPercentage"`
	DeadlineDays      int             `json:"deadlineDays"`
	DeadlineDate      time.Time       `json:"deadlineDate"`
	Source            PolicySource    `json:"source"`
	PastDeadline      bool            `json:"pastDeadline"`
}

// CalculatePenalty показывает, какой штраф получит платеж при переводе в дефолт
func (s *RentDefaultService) CalculatePenalty(ctx context.Context, paymentID uuid.UUID) (*PenaltyPreview, error) {
	payment, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.DueDate == nil {
		return nil, ErrNoDueDate
	}

	policy := s.resolver.ResolveRentPolicy(ctx, payment)
	if policy.LookupErr != nil {
		utils.LogWarn("rent settings lookup failed, using defaults", "payment_id", payment.ID, "error", policy.LookupErr)
	}

	return &PenaltyPreview{
		PaymentID:         payment.ID,
		LandlordID:        payment.LandlordID,
		Amount:            payment.Amount,
		PenaltyAmount:     CalculatePenaltyAmount(payment.Amount, policy.PenaltyPercentage),
		PenaltyPercentage: policy.PenaltyPercentage,
		DeadlineDays:      policy.DeadlineDays,
		DeadlineDate:      policy.DeadlineDate,
		Source:            policy.Source,
		PastDeadline:      s.now().After(policy.DeadlineDate),
	}, nil
}
