package utils

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"leadstream/config"
)

// OutreachEmail is one message to deliver, already drafted and tracked.
type OutreachEmail struct {
	To      []string
	CC      []string
	BCC     []string
	Subject string
	HTML    string
}

// Mailer sends outreach mail through the configured SMTP account. It holds
// no connection; gomail dials per send, which is fine at outreach volume.
type Mailer struct {
	cfg    config.SMTPConfig
	logger *logrus.Logger

	// send is swapped in tests.
	send func(m *gomail.Message) error
}

func NewMailer(cfg config.SMTPConfig, logger *logrus.Logger) *Mailer {
	if logger == nil {
		logger = logrus.New()
	}
	m := &Mailer{cfg: cfg, logger: logger}
	m.send = func(msg *gomail.Message) error {
		d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
		return d.DialAndSend(msg)
	}
	return m
}

func (m *Mailer) Send(email OutreachEmail) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients")
	}
	if m.cfg.Host == "" {
		return fmt.Errorf("SMTP host not configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", email.To...)
	if len(email.CC) > 0 {
		msg.SetHeader("Cc", email.CC...)
	}
	if len(email.BCC) > 0 {
		msg.SetHeader("Bcc", email.BCC...)
	}
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.HTML)

	if err := m.send(msg); err != nil {
		m.logger.WithError(err).WithField("to", email.To).Error("email send failed")
		return fmt.Errorf("error sending email: %w", err)
	}
	m.logger.WithFields(logrus.Fields{
		"to":      email.To,
		"subject": email.Subject,
	}).Info("email sent")
	return nil
}
