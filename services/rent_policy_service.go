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
)

// PolicySource показывает, на каком уровне найдены настройки
type PolicySource string

const (
	PolicySourceUnit     PolicySource = "UnitOverride"
	PolicySourceProperty PolicySource = "PropertyOverride"
	PolicySourceLandlord PolicySource = "LandlordDefault"
	PolicySourceFallback PolicySource = "HardcodedFallback"
)

const (
	minRentDeadlineDays = 1
	maxRentDeadlineDays = 31
)

var (
	hundred                  = decimal.NewFromInt(100)
	defaultPenaltyPercentage = decimal.NewFromInt(models.DefaultPenaltyPercentage)
)

// RentPolicy - действующие для платежа срок оплаты и штраф
type RentPolicy struct {
	DeadlineDays      int
	PenaltyPercentage decimal.Decimal
	DeadlineDate      time.Time
	Source            PolicySource
	// LookupErr заполняется, если один из уровней не удалось прочитать
	// и применены значения по умолчанию. Вызывающий код только логирует ее.
	LookupErr error
}

// RentPolicyResolver определяет настройки аренды по цепочке юнит -> объект -> арендодатель
type RentPolicyResolver struct {
	settings SettingsStore
}

// NewRentPolicyResolver создает новый экземпляр RentPolicyResolver
func NewRentPolicyResolver(settings SettingsStore) *RentPolicyResolver {
	return &RentPolicyResolver{settings: settings}
}

// ResolveRentPolicy всегда возвращает пригодные настройки: при любой ошибке чтения
// используются значения по умолчанию (5 дней, 5%).
func (r *RentPolicyResolver) ResolveRentPolicy(ctx context.Context, payment *models.Payment) RentPolicy {
	policy := r.resolveSettings(ctx, payment)
	if payment.DueDate != nil {
		policy.DeadlineDate = DeadlineDate(*payment.DueDate, policy.DeadlineDays)
	}
	return policy
}

func (r *RentPolicyResolver) resolveSettings(ctx context.Context, payment *models.Payment) RentPolicy {
	unit, err := r.settings.GetUnit(ctx, payment.UnitID)
	if err != nil {
		return fallbackPolicy(fmt.Errorf("юнит %s: %w", payment.UnitID, err))
	}

	if rs := unit.RentSettings; rs.UseUnitSpecificSettings {
		return RentPolicy{
			DeadlineDays:      deadlineOrDefault(rs.RentDeadline),
			PenaltyPercentage: penaltyOrDefault(rs.PenaltyPercentage),
			Source:            PolicySourceUnit,
		}
	}

	propertyID := unit.PropertyID
	if propertyID == uuid.Nil && payment.PropertyID.Valid {
		propertyID = payment.PropertyID.UUID
	}

	var property *models.Property
	if propertyID != uuid.Nil {
		property, err = r.settings.GetProperty(ctx, propertyID)
		switch {
		case errors.Is(err, database.ErrNotFound):
			property = nil
		case err != nil:
			return fallbackPolicy(fmt.Errorf("объект %s: %w", propertyID, err))
		}
	}

	if property != nil && property.RentSettings.UsePropertySpecificSettings {
		rs := property.RentSettings
		return RentPolicy{
			DeadlineDays:      deadlineOrDefault(rs.RentDeadline),
			PenaltyPercentage: penaltyOrDefault(rs.PenaltyPercentage),
			Source:            PolicySourceProperty,
		}
	}

	landlordID := payment.LandlordID
	if landlordID == uuid.Nil && property != nil {
		landlordID = property.LandlordID
	}
	if landlordID == uuid.Nil {
		landlordID = unit.LandlordID
	}
	if landlordID == uuid.Nil {
		return fallbackPolicy(errors.New("у платежа не указан арендодатель"))
	}

	landlord, err := r.settings.GetLandlord(ctx, landlordID)
	if err != nil {
		return fallbackPolicy(fmt.Errorf("арендодатель %s: %w", landlordID, err))
	}

	rs := landlord.RentSettings
	if !rs.Configured() {
		return fallbackPolicy(nil)
	}
	return RentPolicy{
		DeadlineDays:      deadlineOrDefault(rs.GlobalRentDeadline),
		PenaltyPercentage: penaltyOrDefault(rs.DefaultPenaltyPercentage),
		Source:            PolicySourceLandlord,
	}
}

func fallbackPolicy(err error) RentPolicy {
	return RentPolicy{
		DeadlineDays:      models.DefaultRentDeadlineDays,
		PenaltyPercentage: defaultPenaltyPercentage,
		Source:            PolicySourceFallback,
		LookupErr:         err,
	}
}

// DeadlineDate прибавляет к сроку оплаты календарные дни
func DeadlineDate(dueDate time.Time, deadlineDays int) time.Time {
	return dueDate.AddDate(0, 0, deadlineDays)
}

// CalculatePenaltyAmount считает штраф как процент от полной суммы платежа
func CalculatePenaltyAmount(amount, percentage decimal.Decimal) decimal.Decimal {
	return amount.Mul(percentage).Div(hundred)
}

func deadlineOrDefault(days *int) int {
	if days == nil || *days < minRentDeadlineDays || *days > maxRentDeadlineDays {
		return models.DefaultRentDeadlineDays
	}
	return *days
}

// Явно заданный 0% сохраняется; пустое или вне диапазона значение заменяется на 5%
func penaltyOrDefault(pct decimal.NullDecimal) decimal.Decimal {
	if !pct.Valid || pct.Decimal.IsNegative() || pct.Decimal.GreaterThan(hundred) {
		return defaultPenaltyPercentage
	}
	return pct.Decimal
}
