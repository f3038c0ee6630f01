package services

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"loancrm/internal/models"
)

type EmailService interface {
	SendConversionEmail(to string, c *models.Customer) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func conversionBody(c *models.Customer) string {
	return fmt.Sprintf(`
		<h3>Lead converted</h3>
		<p><strong>%s</strong> (lead #%d) is now a customer.</p>
		<p>Product: %s<br>Bank: %s<br>Disbursed: %.2f</p>
		<p>Reference: %s</p>
	`, c.Name, c.LeadID, c.Product, c.BankName, c.DisbursedValue, c.ExternalID)
}

func (s *emailService) SendConversionEmail(to string, c *models.Customer) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Customer converted: %s", c.Name))
	m.SetBody("text/html", conversionBody(c))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send conversion email: %w", err)
	}
	return nil
}

// Notifications fans workflow events out to e-mail and Telegram. Either channel may be nil.
type Notifications struct {
	Email    EmailService
	Telegram *TelegramService
}

func (n *Notifications) LeadAssigned(_ context.Context, to *models.Employee, lead *models.LeadRecord) error {
	if n.Telegram == nil || to.TelegramChatID == 0 {
		return nil
	}
	text := fmt.Sprintf("New lead assigned: <b>%s</b> (%s)\nTrack: %s\nStatus: %s",
		lead.Name, lead.Phone, lead.TrackNumber, Label(lead.Status))
	return n.Telegram.SendMessage(to.TelegramChatID, text)
}

func (n *Notifications) CustomerConverted(_ context.Context, by *models.Employee, c *models.Customer) error {
	if n.Email == nil || by.Email == "" {
		return nil
	}
	return n.Email.SendConversionEmail(by.Email, c)
}
