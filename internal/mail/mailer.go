package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
)

// Mailer dispatches the two messages the auth flows send. Implementations
// must not log reset tokens.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
	SendLoginCode(ctx context.Context, to, code string) error
}

type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: auth,
		from: from,
	}
}

func (m *SMTPMailer) SendPasswordReset(_ context.Context, to, link string) error {
	body := fmt.Sprintf("Click to reset your password:\r\n%s\r\n", link)
	return m.send(to, "Password Reset", body)
}

func (m *SMTPMailer) SendLoginCode(_ context.Context, to, code string) error {
	body := fmt.Sprintf("Your code: %s (valid 5 minutes)\r\n", code)
	return m.send(to, "Your OTP Code", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogMailer stands in for SMTP in development, surfacing codes and links in
// the log the way the dev reset-code mode would. Never wire it in prod.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.log.Info("mail suppressed (dev)", "kind", "password_reset", "to", to, "link", link)
	return nil
}

func (m *LogMailer) SendLoginCode(_ context.Context, to, code string) error {
	m.log.Info("mail suppressed (dev)", "kind", "login_code", "to", to, "code", code)
	return nil
}
