package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/escalation-service/internal/events"
	"github.com/spec-kit/escalation-service/internal/notify"
	"github.com/spec-kit/escalation-service/internal/observability"
)

type stubSink struct {
	name      string
	accepts   events.EventType
	err       error
	delivered []events.Event
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Accepts(t events.EventType) bool { return s.accepts == "" || s.accepts == t }

func (s *stubSink) Deliver(_ context.Context, event events.Event) error {
	s.delivered = append(s.delivered, event)
	return s.err
}

func TestNotificationServiceFansOut(t *testing.T) {
	all := &stubSink{name: "all"}
	broken := &stubSink{name: "broken", err: errors.New("boom")}
	followups := &stubSink{name: "followups", accepts: events.EventFollowupReady}
	svc := NewNotificationService([]notify.Sink{all, broken, followups}, nil, observability.NewMetrics())

	svc.Handle(context.Background(), events.Event{Type: events.EventHelpRequested, TicketID: "t-1"})

	assert.Len(t, all.delivered, 1)
	assert.Len(t, broken.delivered, 1)
	assert.Empty(t, followups.delivered)

	svc.Handle(context.Background(), events.Event{Type: events.EventFollowupReady, TicketID: "t-1"})
	assert.Len(t, all.delivered, 2)
	assert.Len(t, followups.delivered, 1)
}
