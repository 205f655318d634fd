// Package email holds the notification email sender. Only a logging
// implementation ships; wiring a real provider is deliberately out of scope.
package email

import (
	"context"
	"log/slog"
)

// LogSender logs outbound emails instead of delivering them.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	slog.InfoContext(ctx, "Email delivery skipped (logging sender)",
		"to", to,
		"subject", subject,
		"body_length", len(body),
	)
	return nil
}
