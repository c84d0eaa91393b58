package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/events"
	"github.com/spec-kit/escalation-service/internal/notify"
	"github.com/spec-kit/escalation-service/internal/observability"
)

// NotificationService fans escalation events out to the configured sinks.
type NotificationService struct {
	sinks   []notify.Sink
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(sinks []notify.Sink, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		sinks:   sinks,
		logger:  logger.Named("notifications"),
		metrics: metrics,
	}
}

// Handle delivers event to every sink that accepts it. A failing sink is
// logged and does not stop the others.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) {
	for _, sink := range n.sinks {
		if !sink.Accepts(event.Type) {
			continue
		}
		err := sink.Deliver(ctx, event)
		n.metrics.RecordNotification(sink.Name(), err)
		if err != nil {
			n.logger.Warn("notification delivery failed",
				zap.String("sink", sink.Name()),
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_id", event.TicketID),
				zap.Error(err))
		}
	}
}
