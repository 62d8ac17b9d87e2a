package notify

import (
	"context"
	"log/slog"
)

// Notifier delivers a report title and body.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// LogNotifier writes reports to a logger instead of sending them anywhere.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger means slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Send logs the report at info level.
func (n *LogNotifier) Send(ctx context.Context, subject, body string) error {
	n.logger.InfoContext(ctx, "report", "subject", subject, "body", body)
	return nil
}
