// Package notify delivers customer and staff notifications.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/diewo77/go-taxprep/internal/config"
	"github.com/diewo77/go-taxprep/internal/metrics"
)

// Notification is a single plain-text message.
type Notification struct {
	To      string
	Subject string
	Body    string
}

// Notifier sends notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// New returns an SMTP notifier when a mail host is configured, a log notifier otherwise.
func New(cfg config.MailConfig, log *slog.Logger) Notifier {
	if cfg.Host == "" {
		return LogNotifier{Log: log}
	}
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

// Send delivers n and logs failures. Notifications are best effort, so callers
// never see the error.
func Send(ctx context.Context, n Notifier, log *slog.Logger, msg Notification) {
	if n == nil || msg.To == "" {
		return
	}
	if err := n.Notify(ctx, msg); err != nil {
		metrics.NotificationFailures.Inc()
		log.ErrorContext(ctx, "notification failed", "to", msg.To, "subject", msg.Subject, "error", err)
	}
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends mail through an SMTP relay.
type SMTPNotifier struct {
	cfg  config.MailConfig
	send sendFunc
}

func (s *SMTPNotifier) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.send(addr, auth, s.cfg.From, []string{n.To}, buildMessage(s.cfg.From, n)); err != nil {
		return fmt.Errorf("send mail to %s: %w", n.To, err)
	}
	return nil
}

func buildMessage(from string, n Notification) []byte {
	headers := []string{
		"From: " + from,
		"To: " + n.To,
		"Subject: " + n.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + n.Body)
}

// LogNotifier writes notifications to the log. Used in development.
type LogNotifier struct {
	Log *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notification) error {
	if l.Log != nil {
		l.Log.InfoContext(ctx, "notification", "to", n.To, "subject", n.Subject)
	}
	return nil
}
