package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/escalation-service/internal/config"
	"github.com/spec-kit/escalation-service/internal/events"
)

var at = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func helpRequested() events.Event {
	return events.Event{
		ID:        "ev-1",
		Type:      events.EventHelpRequested,
		TicketID:  "t-1",
		Actor:     events.Actor{Type: events.ActorAsker, AskerID: "c1"},
		Timestamp: at,
		Payload:   events.HelpRequestedPayload{AskerID: "c1", Question: "Do you offer hair coloring?"},
	}
}

func followupReady() events.Event {
	return events.Event{
		ID:        "ev-2",
		Type:      events.EventFollowupReady,
		TicketID:  "t-1",
		Actor:     events.Actor{Type: events.ActorSupervisor},
		Timestamp: at,
		Payload: events.FollowupReadyPayload{
			AskerID:  "c1",
			Question: "Do you offer hair coloring?",
			Answer:   "Yes, we offer hair coloring services.",
		},
	}
}

type fakeMailSender struct {
	to      []string
	subject string
	body    string
	err     error
}

func (f *fakeMailSender) Send(_ context.Context, to []string, subject, body string) error {
	f.to, f.subject, f.body = to, subject, body
	return f.err
}

func TestMailSinkSendsHelpRequests(t *testing.T) {
	sender := &fakeMailSender{}
	sink := NewMailSink(sender, []string{"lead@salon.test"}, 0)

	assert.True(t, sink.Accepts(events.EventHelpRequested))
	assert.False(t, sink.Accepts(events.EventFollowupReady))

	require.NoError(t, sink.Deliver(context.Background(), helpRequested()))
	assert.Equal(t, []string{"lead@salon.test"}, sender.to)
	assert.Equal(t, "Help requested: Do you offer hair coloring?", sender.subject)
	assert.Contains(t, sender.body, "Request: t-1")
	assert.Contains(t, sender.body, "Customer: c1")
}

func TestMailSinkPropagatesSendError(t *testing.T) {
	sender := &fakeMailSender{err: errors.New("relay down")}
	sink := NewMailSink(sender, []string{"lead@salon.test"}, 0)
	assert.EqualError(t, sink.Deliver(context.Background(), helpRequested()), "relay down")
}

func TestMailSinkRejectsForeignPayload(t *testing.T) {
	sink := NewMailSink(&fakeMailSender{}, []string{"lead@salon.test"}, 0)
	assert.Error(t, sink.Deliver(context.Background(), followupReady()))
}

func TestMailSinkThrottles(t *testing.T) {
	sender := &fakeMailSender{}
	sink := NewMailSink(sender, []string{"lead@salon.test"}, 1)
	require.NoError(t, sink.Deliver(context.Background(), helpRequested()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, sink.Deliver(ctx, helpRequested()))
}

func TestTruncateIsRuneSafe(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo", 5))
	assert.Equal(t, "hé...", truncate("héllo", 2))
}

type fakePublisher struct {
	mu       sync.Mutex
	channel  string
	messages []string
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channel = channel
	f.messages = append(f.messages, string(message.([]byte)))
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisSinkPublishesFollowup(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewRedisSink(pub, "salon")

	assert.True(t, sink.Accepts(events.EventFollowupReady))
	assert.False(t, sink.Accepts(events.EventHelpRequested))

	require.NoError(t, sink.Deliver(context.Background(), followupReady()))
	assert.Equal(t, "salon:followups:c1", pub.channel)
	require.Len(t, pub.messages, 1)

	var msg FollowupMessage
	require.NoError(t, json.Unmarshal([]byte(pub.messages[0]), &msg))
	assert.Equal(t, FollowupMessage{
		RequestID: "t-1",
		AskerID:   "c1",
		Question:  "Do you offer hair coloring?",
		Answer:    "Yes, we offer hair coloring services.",
	}, msg)
}

func TestRedisSinkReturnsPublishError(t *testing.T) {
	sink := NewRedisSink(&fakePublisher{err: redis.ErrClosed}, "")
	assert.Equal(t, "frontdesk:followups:c9", sink.FollowupChannel("c9"))
	assert.ErrorIs(t, sink.Deliver(context.Background(), followupReady()), redis.ErrClosed)
}

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSinkKeysByTicket(t *testing.T) {
	writer := &fakeWriter{}
	sink := NewKafkaSink(writer)
	assert.True(t, sink.Accepts(events.EventTicketTimedOut))

	require.NoError(t, sink.Deliver(context.Background(), helpRequested()))
	require.Len(t, writer.msgs, 1)
	msg := writer.msgs[0]
	assert.Equal(t, "t-1", string(msg.Key))

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "help_requested", headers["event-type"])
	assert.Equal(t, "ev-1", headers["event-id"])
	assert.Equal(t, "asker", headers["actor"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "t-1", decoded["ticket_id"])
	payload := decoded["payload"].(map[string]any)
	assert.Equal(t, "Do you offer hair coloring?", payload["question"])

	require.NoError(t, sink.Close())
	assert.True(t, writer.closed)
}

func TestLogSinkLogsEveryEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	require.NoError(t, sink.Deliver(context.Background(), helpRequested()))
	require.NoError(t, sink.Deliver(context.Background(), followupReady()))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "notify supervisor", entries[0].Message)
	assert.Equal(t, "follow up with asker", entries[1].Message)
}

func TestBuildSelectsSinksFromConfig(t *testing.T) {
	cfg := config.NotificationConfig{RedisChannelPrefix: "frontdesk"}
	sinks := Build(cfg, nil, zap.NewNop())
	assert.Equal(t, []string{"log"}, sinks.Names())
	require.NoError(t, sinks.Close())

	cfg.SMTPHost = "smtp.salon.test"
	cfg.SMTPPort = 587
	cfg.SupervisorEmails = []string{"lead@salon.test"}
	cfg.KafkaBrokers = []string{"127.0.0.1:9092"}
	cfg.KafkaTopic = "frontdesk.escalations"
	sinks = Build(cfg, &fakePublisher{}, zap.NewNop())
	assert.Equal(t, []string{"log", "mail", "redis", "kafka"}, sinks.Names())
	require.NoError(t, sinks.Close())
}
