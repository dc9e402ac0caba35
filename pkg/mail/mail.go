// Package mail sends plain-text and HTML email over SMTP.
//
//	err := mail.To("boutique@elmazraa.tn").
//	    Subject("Nouvelle commande").
//	    Text("Commande #12").
//	    Send()
package mail

import (
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/shashiranjanraj/mazraa/config"
)

// ErrNotConfigured is returned when no SMTP host is set.
var ErrNotConfigured = errors.New("mail: MAIL_HOST is not configured")

// SendFunc delivers a raw message; smtp.SendMail by default.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP holds connection settings.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string

	// Send replaces the network delivery, mainly in tests.
	Send SendFunc
}

// FromConfig reads MAIL_* settings.
func FromConfig() SMTP {
	return SMTP{
		Host:     config.Get("MAIL_HOST", ""),
		Port:     config.Get("MAIL_PORT", "587"),
		Username: config.Get("MAIL_USERNAME", ""),
		Password: config.Get("MAIL_PASSWORD", ""),
		From:     config.Get("MAIL_FROM", "boutique@elmazraa.tn"),
		FromName: config.Get("MAIL_FROM_NAME", config.ShopName()),
	}
}

// Configured reports whether a host is set.
func (s SMTP) Configured() bool { return s.Host != "" }

// Message is a fluent builder for one email.
type Message struct {
	to      []string
	subject string
	body    string
	isHTML  bool
	cfg     SMTP
}

// To starts a message using the MAIL_* configuration.
func To(addresses ...string) *Message {
	return &Message{to: addresses, cfg: FromConfig()}
}

// Subject sets the subject line.
func (m *Message) Subject(s string) *Message {
	m.subject = s
	return m
}

// Text sets a plain-text body.
func (m *Message) Text(text string) *Message {
	m.body = text
	m.isHTML = false
	return m
}

// HTML sets an HTML body.
func (m *Message) HTML(html string) *Message {
	m.body = html
	m.isHTML = true
	return m
}

// UseConfig overrides the SMTP settings for this message.
func (m *Message) UseConfig(cfg SMTP) *Message {
	m.cfg = cfg
	return m
}

// Send delivers the message.
func (m *Message) Send() error {
	cfg := m.cfg
	if !cfg.Configured() {
		return ErrNotConfigured
	}
	if len(m.to) == 0 {
		return errors.New("mail: no recipient")
	}

	addr := cfg.Host + ":" + cfg.Port
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	raw := m.build()

	switch {
	case cfg.Send != nil:
		return cfg.Send(addr, auth, cfg.From, m.to, raw)
	case cfg.Port == "465":
		return sendTLS(addr, cfg.Host, auth, cfg.From, m.to, raw)
	default:
		return smtp.SendMail(addr, auth, cfg.From, m.to, raw)
	}
}

func sendTLS(addr, host string, auth smtp.Auth, from string, to []string, raw []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("mail: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	return w.Close()
}

func (m *Message) build() []byte {
	contentType := "text/plain"
	if m.isHTML {
		contentType = "text/html"
	}
	from := m.cfg.From
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.cfg.FromName), m.cfg.From)
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(m.to, ", ") + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", m.subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: %s; charset=\"UTF-8\"\r\n", contentType))
	b.WriteString("\r\n")
	b.WriteString(m.body)
	return []byte(b.String())
}
