package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitRentSettings - переопределение срока оплаты и штрафа для конкретного юнита
type UnitRentSettings struct {
	UseUnitSpecificSettings bool                `gorm:"not null;default:false" json:"useUnitSpecificSettings"`
	RentDeadline            *int                `json:"rentDeadline,omitempty"` // 1..31 дней
	PenaltyPercentage       decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"penaltyPercentage"`
}

// Unit представляет сдаваемое помещение
type Unit struct {
	ID           uuid.UUID        `gorm:"type:char(36);primaryKey" json:"id"`
	PropertyID   uuid.UUID        `gorm:"type:char(36);index" json:"propertyId"`
	LandlordID   uuid.UUID        `gorm:"type:char(36);index" json:"landlordId"`
	UnitNumber   string           `gorm:"column:unit_number;size:50" json:"unitNumber"`
	RentSettings UnitRentSettings `gorm:"embedded;embeddedPrefix:rent_settings_" json:"rentSettings"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func (Unit) TableName() string {
	return "units"
}

// BeforeCreate присваивает UUID перед созданием записи
func (u *Unit) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
