package audit

import (
	"context"
	"log/slog"
	"time"
)

// Entry describes one mutating API call.
type Entry struct {
	RequestID  string
	Actor      string
	Action     string
	Resource   string
	ResourceID string
	Status     int
}

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("component", "audit"))}
}

// LogAction writes e as a single structured audit record.
func (al *Logger) LogAction(ctx context.Context, e Entry) {
	outcome := "succeeded"
	if e.Status >= 400 {
		outcome = "failed"
	}

	al.logger.InfoContext(ctx, "audit",
		slog.String("action", e.Action),
		slog.String("resource", e.Resource),
		slog.String("resource_id", e.ResourceID),
		slog.String("actor", e.Actor),
		slog.Int("status", e.Status),
		slog.String("outcome", outcome),
		slog.String("request_id", e.RequestID),
		slog.Time("timestamp", time.Now()),
	)
}
