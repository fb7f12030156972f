package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Значения по умолчанию, если настройки не заданы ни на одном уровне
const (
	DefaultRentDeadlineDays  = 5
	DefaultPenaltyPercentage = 5
)

// LandlordRentSettings - глобальные настройки аренды арендодателя
type LandlordRentSettings struct {
	GlobalRentDeadline       *int                `json:"globalRentDeadline,omitempty"`
	DefaultPenaltyPercentage decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"defaultPenaltyPercentage"`
	UseGlobalSettings        bool                `gorm:"not null" json:"useGlobalSettings"`
}

// Configured сообщает, задано ли хотя бы одно значение
func (s LandlordRentSettings) Configured() bool {
	return s.GlobalRentDeadline != nil || s.DefaultPenaltyPercentage.Valid
}

type Landlord struct {
	ID           uuid.UUID            `gorm:"type:char(36);primaryKey" json:"id"`
	Name         string               `gorm:"column:name;not null;size:100" json:"name"`
	Email        string               `gorm:"column:email;unique;not null;size:100;index" json:"email"`
	RentSettings LandlordRentSettings `gorm:"embedded;embeddedPrefix:rent_settings_" json:"rentSettings"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

func (Landlord) TableName() string {
	return "landlords"
}

// BeforeCreate хук для валидации перед созданием
func (l *Landlord) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if len(l.Name) < 2 || len(l.Name) > 100 {
		return errors.New("name must be between 2 and 100 characters")
	}
	if len(l.Email) < 3 || len(l.Email) > 100 {
		return errors.New("email must be between 3 and 100 characters")
	}
	return nil
}
