package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const AuditActionPaymentDefaulted = "payment.defaulted"

// AuditLog фиксирует изменения, сделанные фоновыми процессами
type AuditLog struct {
	ID         uint              `gorm:"primaryKey;autoIncrement"`
	EntityType string            `gorm:"column:entity_type;not null;size:50;index:idx_audit_entity"`
	EntityID   uuid.UUID         `gorm:"column:entity_id;type:char(36);not null;index:idx_audit_entity"`
	LandlordID uuid.UUID         `gorm:"column:landlord_id;type:char(36);index"`
	Action     string            `gorm:"column:action;not null;size:50"`
	Details    datatypes.JSONMap `gorm:"column:details"`
	CreatedAt  time.Time         `gorm:"column:created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
