package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Config holds SMTP mailer configuration. An empty Host disables delivery.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Email is a single outbound message
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends transactional email over SMTP. Delivery is best-effort;
// callers log and continue on error.
type Mailer struct {
	config Config
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a new Mailer
func New(config Config) *Mailer {
	return &Mailer{
		config: config,
		send:   smtp.SendMail,
	}
}

// Enabled reports whether an SMTP host is configured
func (m *Mailer) Enabled() bool {
	return m.config.Host != ""
}

// Send delivers one email. Returns an error when SMTP is not configured so
// callers can log the skip.
func (m *Mailer) Send(email Email) error {
	if !m.Enabled() {
		return fmt.Errorf("email not configured, skipping: %s", email.Subject)
	}
	if email.To == "" {
		return fmt.Errorf("recipient address is required")
	}

	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	msg := m.buildMessage(email)

	if err := m.send(addr, auth, m.config.From, []string{email.To}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// buildMessage assembles a multipart/alternative MIME message with text
// and HTML bodies
func (m *Mailer) buildMessage(email Email) []byte {
	const boundary = "moms2go-mail-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: \"Moms2Go\" <%s>\r\n", m.config.From)
	fmt.Fprintf(&b, "To: %s\r\n", email.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	text := email.Text
	if text == "" {
		text = email.Subject
	}
	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(text)
	b.WriteString("\r\n")

	if email.HTML != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(email.HTML)
		b.WriteString("\r\n")
	}

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
