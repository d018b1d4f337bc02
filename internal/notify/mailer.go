package notify

import (
	"fmt"
	"net/smtp"
)

// SMTPConfig holds mail transport settings
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (c SMTPConfig) configured() bool {
	return c.Host != "" && c.Port != "" && c.From != ""
}

// Mailer sends transactional mail over SMTP. An unconfigured mailer
// silently drops mail so development setups work without a relay.
type Mailer struct {
	cfg SMTPConfig
}

func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Send(to, subject, body string) error {
	if !m.cfg.configured() {
		return nil
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\n\r\n%s\r\n", to, m.cfg.From, subject, body))
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg)
}
