package services

import (
	"context"

	"github.com/google/uuid"

	"tenantx/models"
)

// PaymentStore - хранилище платежей, которое читает и обновляет проверка просрочек.
// Реализуется database.Database.
type PaymentStore interface {
	FindRentPaymentsPendingDefault(ctx context.Context) ([]models.Payment, error)
	MarkPaymentDefaulted(ctx context.Context, id uuid.UUID, fields models.DefaultFields) (*models.Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
}

// SettingsStore - источник настроек аренды трех уровней
type SettingsStore interface {
	GetUnit(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
	GetLandlord(ctx context.Context, id uuid.UUID) (*models.Landlord, error)
}
