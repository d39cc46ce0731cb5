package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer wraps the SMTP dialer used for report delivery and auto-sent
// invoices.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(host string, port int, from, password string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, from, password),
		from:   from,
	}
}

// SendHTML delivers an HTML message to every recipient in one envelope.
func (m *Mailer) SendHTML(to []string, subject, body string) error {
	return m.send(to, subject, body, "text/html")
}

// SendText delivers a plain-text message to every recipient in one envelope.
func (m *Mailer) SendText(to []string, subject, body string) error {
	return m.send(to, subject, body, "text/plain")
}

func (m *Mailer) send(to []string, subject, body, contentType string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody(contentType, body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
