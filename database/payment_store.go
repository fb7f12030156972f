package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"tenantx/models"
)

// CreatePayment сохраняет новый платеж
func (d *Database) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return d.DB.WithContext(ctx).Create(payment).Error
}

// GetPayment возвращает платеж по ID
func (d *Database) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := d.DB.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &payment, nil
}

// FindRentPaymentsPendingDefault возвращает арендные платежи, которые еще могут перейти в дефолт
func (d *Database) FindRentPaymentsPendingDefault(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	err := d.DB.WithContext(ctx).
		Where("payment_type = ? AND status IN ? AND is_defaulted = ? AND due_date IS NOT NULL",
			models.PaymentTypeRent, models.DefaultableStatuses, false).
		Order("due_date ASC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении платежей для проверки просрочек: %w", err)
	}
	return payments, nil
}

// MarkPaymentDefaulted переводит платеж в дефолт одним условным обновлением.
// Обновление срабатывает только пока is_defaulted = false, поэтому штраф не начисляется дважды.
func (d *Database) MarkPaymentDefaulted(ctx context.Context, id uuid.UUID, fields models.DefaultFields) (*models.Payment, error) {
	var payment models.Payment

	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND is_defaulted = ?", id, false).
			Updates(fields.Columns())
		if res.Error != nil {
			return fmt.Errorf("ошибка при обновлении платежа: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Payment{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return fmt.Errorf("ошибка при проверке платежа: %w", err)
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrAlreadyDefaulted
		}

		if err := tx.First(&payment, "id = ?", id).Error; err != nil {
			return translateError(err)
		}

		audit := &models.AuditLog{
			EntityType: "payment",
			EntityID:   payment.ID,
			LandlordID: payment.LandlordID,
			Action:     models.AuditActionPaymentDefaulted,
			Details: datatypes.JSONMap{
				"amount":             payment.Amount.String(),
				"penalty_amount":     fields.PenaltyAmount.String(),
				"penalty_percentage": fields.PenaltyPercentage.String(),
				"deadline_date":      fields.DeadlineDate.Format(time.RFC3339),
			},
		}
		if err := tx.Create(audit).Error; err != nil {
			return fmt.Errorf("ошибка при сохранении записи аудита: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// StatusStat - агрегат по статусу арендных платежей
type StatusStat struct {
	Status       models.PaymentStatus `json:"status"`
	Count        int64                `json:"count"`
	TotalAmount  decimal.Decimal      `json:"totalAmount"`
	TotalPenalty decimal.Decimal      `json:"totalPenalty"`
}

// PaymentStats считает количество и суммы арендных платежей арендодателя по статусам
func (d *Database) PaymentStats(ctx context.Context, landlordID uuid.UUID) ([]StatusStat, error) {
	var stats []StatusStat
	err := d.DB.WithContext(ctx).
		Model(&models.Payment{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_amount, COALESCE(SUM(penalty_amount), 0) AS total_penalty").
		Where("landlord_id = ? AND payment_type = ?", landlordID, models.PaymentTypeRent).
		Group("status").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка при подсчете статистики платежей: %w", err)
	}
	return stats, nil
}

// RecentDefaulted возвращает последние платежи, переведенные в дефолт после since
func (d *Database) RecentDefaulted(ctx context.Context, landlordID uuid.UUID, since time.Time, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := d.DB.WithContext(ctx).
		Where("landlord_id = ? AND payment_type = ? AND status = ? AND defaulted_date >= ?",
			landlordID, models.PaymentTypeRent, models.PaymentStatusDefaulted, since).
		Order("defaulted_date DESC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении платежей в дефолте: %w", err)
	}
	return payments, nil
}

// AuditLogsForPayment возвращает записи аудита по платежу
func (d *Database) AuditLogsForPayment(ctx context.Context, paymentID uuid.UUID) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := d.DB.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", "payment", paymentID).
		Order("created_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении записей аудита: %w", err)
	}
	return logs, nil
}
