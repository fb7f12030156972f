package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus представляет статус платежа
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"   // Ожидает оплаты
	PaymentStatusCompleted PaymentStatus = "Completed" // Оплачен
	PaymentStatusOverdue   PaymentStatus = "Overdue"   // Просрочен, но еще не в дефолте
	PaymentStatusPartial   PaymentStatus = "Partial"   // Оплачен частично
	PaymentStatusDefaulted PaymentStatus = "Defaulted" // Дефолт, начислен штраф
	PaymentStatusFailed    PaymentStatus = "Failed"
	PaymentStatusRefunded  PaymentStatus = "Refunded"
)

// PaymentType представляет назначение платежа
type PaymentType string

const (
	PaymentTypeRent            PaymentType = "Rent"
	PaymentTypeSecurityDeposit PaymentType = "Security Deposit"
	PaymentTypeLateFee         PaymentType = "Late Fee"
	PaymentTypePetFee          PaymentType = "Pet Fee"
	PaymentTypeUtility         PaymentType = "Utility"
	PaymentTypeOther           PaymentType = "Other"
)

// Статусы, из которых арендный платеж может перейти в дефолт
var DefaultableStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusOverdue}

// Payment представляет платеж арендатора
type Payment struct {
	ID          uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	UnitID      uuid.UUID       `gorm:"type:char(36);not null;index" json:"unitId"`
	TenantID    uuid.UUID       `gorm:"type:char(36);index" json:"tenantId"`
	LandlordID  uuid.UUID       `gorm:"type:char(36);index" json:"landlordId"`
	PropertyID  uuid.NullUUID   `gorm:"type:char(36);index" json:"propertyId"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	DueDate     *time.Time      `gorm:"index" json:"dueDate,omitempty"`
	PaymentType PaymentType     `gorm:"type:varchar(32);not null;default:'Other';index" json:"paymentType"`
	Status      PaymentStatus   `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	MonthFor    string          `gorm:"size:7" json:"monthFor,omitempty"` // YYYY-MM

	// Поля отслеживания дефолта, заполняются только проверкой просрочек
	IsDefaulted       bool            `gorm:"not null;default:false;index" json:"isDefaulted"`
	DefaultedDate     *time.Time      `json:"defaultedDate,omitempty"`
	DeadlineDate      *time.Time      `json:"deadlineDate,omitempty"`
	PenaltyAmount     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"penaltyAmount"`
	PenaltyPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"penaltyPercentage"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName возвращает имя таблицы для модели Payment
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate присваивает UUID перед созданием записи
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// EligibleForDefault сообщает, участвует ли платеж в проверке просрочек
func (p *Payment) EligibleForDefault() bool {
	if p.PaymentType != PaymentTypeRent || p.IsDefaulted || p.DueDate == nil {
		return false
	}
	for _, s := range DefaultableStatuses {
		if p.Status == s {
			return true
		}
	}
	return false
}

// DefaultFields - значения, записываемые при переводе платежа в дефолт
type DefaultFields struct {
	DefaultedDate     time.Time
	DeadlineDate      time.Time
	PenaltyAmount     decimal.Decimal
	PenaltyPercentage decimal.Decimal
}

// Columns возвращает набор колонок для условного обновления
func (f DefaultFields) Columns() map[string]interface{} {
	return map[string]interface{}{
		"status":             PaymentStatusDefaulted,
		"is_defaulted":       true,
		"defaulted_date":     f.DefaultedDate,
		"deadline_date":      f.DeadlineDate,
		"penalty_amount":     f.PenaltyAmount,
		"penalty_percentage": f.PenaltyPercentage,
	}
}

// ApplyDefault переводит платеж в дефолт в памяти
func (p *Payment) ApplyDefault(f DefaultFields) {
	defaulted := f.DefaultedDate
	deadline := f.DeadlineDate
	p.Status = PaymentStatusDefaulted
	p.IsDefaulted = true
	p.DefaultedDate = &defaulted
	p.DeadlineDate = &deadline
	p.PenaltyAmount = f.PenaltyAmount
	p.PenaltyPercentage = f.PenaltyPercentage
}
