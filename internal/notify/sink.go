// Package notify delivers escalation events to supervisors and askers.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/events"
)

// Sink delivers events to one destination.
type Sink interface {
	Name() string
	Accepts(eventType events.EventType) bool
	Deliver(ctx context.Context, event events.Event) error
}

// LogSink writes every event to the service log. It stands in for the
// supervisor and asker channels when nothing else is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink builds a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("notify")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Accepts(events.EventType) bool { return true }

func (s *LogSink) Deliver(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload),
	}
	switch event.Type {
	case events.EventHelpRequested:
		s.logger.Info("notify supervisor", fields...)
	case events.EventFollowupReady:
		s.logger.Info("follow up with asker", fields...)
	default:
		s.logger.Info(string(event.Type), fields...)
	}
	return nil
}
