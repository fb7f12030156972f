package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PropertyRentSettings - переопределение срока оплаты и штрафа для объекта недвижимости
type PropertyRentSettings struct {
	UsePropertySpecificSettings bool                `gorm:"not null;default:false" json:"usePropertySpecificSettings"`
	RentDeadline                *int                `json:"rentDeadline,omitempty"`
	PenaltyPercentage           decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"penaltyPercentage"`
}

// Property представляет объект недвижимости арендодателя
type Property struct {
	ID           uuid.UUID            `gorm:"type:char(36);primaryKey" json:"id"`
	LandlordID   uuid.UUID            `gorm:"type:char(36);index" json:"landlordId"`
	Name         string               `gorm:"size:200" json:"name"`
	RentSettings PropertyRentSettings `gorm:"embedded;embeddedPrefix:rent_settings_" json:"rentSettings"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// TableName возвращает имя таблицы для модели Property
func (Property) TableName() string {
	return "properties"
}

// BeforeCreate присваивает UUID перед созданием записи
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
