package sms

import (
	"context"
	"log/slog"

	"auth_backend/internal/feature/auth/usecase"
)

// LogSender writes messages to the log instead of delivering them.
// It is meant for local development.
type LogSender struct {
	logBody bool
}

var _ usecase.Sender = (*LogSender)(nil)

// NewLogSender creates a LogSender. The message body is only logged when logBody is set.
func NewLogSender(logBody bool) *LogSender {
	return &LogSender{logBody: logBody}
}

func (s *LogSender) Send(ctx context.Context, to, body string) error {
	attrs := []any{"to", to}
	if s.logBody {
		attrs = append(attrs, "body", body)
	}
	slog.InfoContext(ctx, "sms not delivered (log provider)", attrs...)
	return nil
}
