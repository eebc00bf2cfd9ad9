package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

// Mode selects how the sender talks to the relay.
const (
	// ModeLocal delivers through an unauthenticated relay (MailHog, a
	// local Postfix) using a plain SMTP session.
	ModeLocal = "local"
	// ModeAuthenticated upgrades the session with STARTTLS before
	// authenticating against a remote relay.
	ModeAuthenticated = "authenticated"
)

type Config struct {
	Mode string
	Host string
	Port string
	User string
	// Secret is the relay password; only used in authenticated mode.
	Secret string
	// From is the SMTP envelope sender (MAIL FROM). This should be a raw mailbox address.
	From string
	// FromName is an optional display name used only for the message header.
	FromName string
}

type Sender struct {
	config Config
}

func NewSender(config Config) *Sender {
	if config.Mode == "" {
		config.Mode = ModeLocal
	}
	return &Sender{config: config}
}

// SendMail delivers one plain-text message to a single recipient. The
// context is honored between protocol steps but an in-flight SMTP command
// is not interruptible.
func (s *Sender) SendMail(ctx context.Context, to, subject, textBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := s.config.From
	if from == "" {
		from = s.config.User
	}

	body := buildMessage(from, s.config.FromName, to, subject, textBody)

	switch s.config.Mode {
	case ModeAuthenticated:
		return s.sendAuthenticated(from, to, body)
	default:
		return s.sendLocal(from, to, body)
	}
}

func (s *Sender) sendLocal(from, to string, body []byte) error {
	addr := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)

	c, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("could not connect to local mail relay at %s (run a local MTA or update the transport settings): %w", addr, err)
	}
	defer func() { _ = c.Close() }()

	return transmit(c, from, to, body)
}

func (s *Sender) sendAuthenticated(from, to string, body []byte) error {
	addr := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)

	c, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer func() { _ = c.Close() }()

	// Upgrade to TLS before presenting credentials.
	if err := c.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}

	auth := smtp.PlainAuth("", s.config.User, s.config.Secret, s.config.Host)
	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	return transmit(c, from, to, body)
}

func transmit(c *smtp.Client, from, to string, body []byte) error {
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}

	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return c.Quit()
}

func buildMessage(from, fromName, to, subject, textBody string) []byte {
	fromHeader := from
	if strings.TrimSpace(fromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}

	fromHeader = sanitizeHeader(fromHeader)
	to = sanitizeHeader(to)
	subject = sanitizeHeader(subject)

	msg := []string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		textBody,
	}

	return []byte(strings.Join(msg, "\r\n"))
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}
