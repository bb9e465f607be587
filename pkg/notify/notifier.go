package notify

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"picotask-rush-backend/pkg/config"
	"picotask-rush-backend/pkg/models"
)

// Notifier delivers one notification to its recipient. Implementations must
// be safe for concurrent use: the dispatcher calls Deliver from its workers.
type Notifier interface {
	Deliver(n models.Notification) error
}

// SMTPNotifier delivers notifications as email.
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPNotifier builds a notifier from SMTP configuration.
func NewSMTPNotifier(cfg *config.Config) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.MailFrom,
	}
}

func (s *SMTPNotifier) Deliver(n models.Notification) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", n.RecipientEmail)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", n.Message)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", n.RecipientEmail, err)
	}
	return nil
}

// ConsoleNotifier logs notifications instead of sending them. Used when no
// SMTP credentials are configured.
type ConsoleNotifier struct{}

func (ConsoleNotifier) Deliver(n models.Notification) error {
	log.Printf("[notify] to=%s subject=%q :: %s", n.RecipientEmail, n.Subject, n.Message)
	return nil
}

// NewNotifier picks the SMTP notifier when credentials exist, otherwise the
// console fallback.
func NewNotifier(cfg *config.Config) Notifier {
	if cfg.SMTPHost != "" {
		return NewSMTPNotifier(cfg)
	}
	return ConsoleNotifier{}
}
