package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/hibiken/asynq"
)

// Mailer delivers transactional email over SMTP.
type Mailer struct {
	Addr   string
	From   string
	Logger *slog.Logger
}

// NewMailer constructs a Mailer for an SMTP endpoint like "localhost:1025".
func NewMailer(addr, from string, logger *slog.Logger) *Mailer {
	return &Mailer{Addr: addr, From: from, Logger: logger}
}

// Send delivers one message. Local relays (Mailpit in development) need no
// authentication.
func (m *Mailer) Send(to, subject, body string) error {
	if m == nil || m.Addr == "" {
		return errors.New("mailer: not configured")
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s", m.From, to, subject, body)
	return smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg))
}

// HandleSendEmail processes TaskSendEmail tasks.
func (m *Mailer) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := m.Send(payload.To, payload.Subject, payload.Body); err != nil {
		if m.Logger != nil {
			m.Logger.Error("send email", slog.String("to", payload.To), slog.Any("error", err))
		}
		return err
	}
	if m.Logger != nil {
		m.Logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	}
	return nil
}
