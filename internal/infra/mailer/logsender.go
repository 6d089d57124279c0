package mailer

import (
	"context"

	"github.com/jardinchef/jardinchef-api/internal/domain"

	"go.uber.org/zap"
)

// LogSender is the EmailSender used when no broker is configured: it
// logs the rendered message and reports success. Useful in local dev,
// where the user still sees the full rendered reminder in the log.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message instead of delivering it.
func (s *LogSender) Send(_ context.Context, msg domain.EmailMessage) error {
	s.logger.Info("mailer: log-only send",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_len", len(msg.Body)),
	)
	return nil
}
