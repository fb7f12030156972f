package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tenantx/models"
)

// Методы для работы с арендодателями
func (d *Database) CreateLandlord(ctx context.Context, landlord *models.Landlord) error {
	return d.DB.WithContext(ctx).Create(landlord).Error
}

func (d *Database) GetLandlord(ctx context.Context, id uuid.UUID) (*models.Landlord, error) {
	var landlord models.Landlord
	if err := d.DB.WithContext(ctx).First(&landlord, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &landlord, nil
}

// UpdateLandlordRentSettings сохраняет глобальные настройки аренды арендодателя
func (d *Database) UpdateLandlordRentSettings(ctx context.Context, id uuid.UUID, deadlineDays int, penaltyPercentage decimal.Decimal, useGlobal bool) (*models.Landlord, error) {
	res := d.DB.WithContext(ctx).
		Model(&models.Landlord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rent_settings_global_rent_deadline":       deadlineDays,
			"rent_settings_default_penalty_percentage": penaltyPercentage,
			"rent_settings_use_global_settings":        useGlobal,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("ошибка при обновлении настроек аренды: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return d.GetLandlord(ctx, id)
}

// Методы для работы с объектами недвижимости
func (d *Database) CreateProperty(ctx context.Context, property *models.Property) error {
	return d.DB.WithContext(ctx).Create(property).Error
}

func (d *Database) GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	if err := d.DB.WithContext(ctx).First(&property, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &property, nil
}

// Методы для работы с юнитами
func (d *Database) CreateUnit(ctx context.Context, unit *models.Unit) error {
	return d.DB.WithContext(ctx).Create(unit).Error
}

func (d *Database) GetUnit(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	if err := d.DB.WithContext(ctx).First(&unit, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &unit, nil
}
