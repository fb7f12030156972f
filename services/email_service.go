package services

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"tenantx/config"
	"tenantx/models"
)

// mailSender отправляет готовое письмо; *gomail.Dialer подходит без обертки
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService предоставляет методы для отправки email
type EmailService struct {
	sender    mailSender
	from      string
	landlords SettingsStore
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config, landlords SettingsStore) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		sender:    dialer,
		from:      cfg.SMTP.From,
		landlords: landlords,
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("ошибка отправки email: %w", err)
	}

	return nil
}

// NotifyPaymentDefaulted сообщает арендодателю о платеже, переведенном в дефолт
func (s *EmailService) NotifyPaymentDefaulted(ctx context.Context, payment *models.Payment, policy RentPolicy) error {
	landlord, err := s.landlords.GetLandlord(ctx, payment.LandlordID)
	if err != nil {
		return fmt.Errorf("арендодатель %s: %w", payment.LandlordID, err)
	}

	var dueDate string
	if payment.DueDate != nil {
		dueDate = payment.DueDate.Format("02.01.2006")
	}

	subject := "Просрочена арендная плата"
	body := fmt.Sprintf(`
		<h2>Просрочена арендная плата</h2>
		<p>Платеж: %s</p>
		<p>Период: %s</p>
		<p>Сумма: %s</p>
		<p>Срок оплаты: %s</p>
		<p>Крайний срок: %s</p>
		<p>Штраф: %s (%s%%)</p>
		<p>Дата: %s</p>
	`,
		payment.ID,
		payment.MonthFor,
		payment.Amount.StringFixed(2),
		dueDate,
		policy.DeadlineDate.Format("02.01.2006"),
		payment.PenaltyAmount.StringFixed(2),
		policy.PenaltyPercentage.String(),
		time.Now().Format("02.01.2006 15:04:05"),
	)

	return s.SendEmail(landlord.Email, subject, body)
}
