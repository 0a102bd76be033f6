package mail

import (
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/chatline/backend/internal/config"
)

// Mailer sends plain-text email over SMTP. It implements domain.Mailer.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewMailer creates a mailer from SMTP configuration.
func NewMailer(cfg config.SMTPConfig, logger *zap.Logger) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

// Send delivers a single message.
func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("failed to send email", zap.String("to", to), zap.Error(err))
		return err
	}
	return nil
}
