package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/escalation-service/internal/events"
)

// Publisher sends follow-ups; *redis.Client and persistence.Redis satisfy it.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// FollowupMessage is published to the asker's channel once a supervisor answers.
type FollowupMessage struct {
	RequestID string `json:"request_id"`
	AskerID   string `json:"customer_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

// RedisSink publishes supervisor answers on a per-asker pub/sub channel.
type RedisSink struct {
	client Publisher
	prefix string
}

// NewRedisSink builds a RedisSink publishing to <prefix>:followups:<askerID>.
func NewRedisSink(client Publisher, prefix string) *RedisSink {
	if prefix == "" {
		prefix = "frontdesk"
	}
	return &RedisSink{client: client, prefix: prefix}
}

// FollowupChannel returns the channel an asker subscribes to.
func (s *RedisSink) FollowupChannel(askerID string) string {
	return fmt.Sprintf("%s:followups:%s", s.prefix, askerID)
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Accepts(eventType events.EventType) bool {
	return eventType == events.EventFollowupReady
}

func (s *RedisSink) Deliver(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FollowupReadyPayload)
	if !ok {
		return fmt.Errorf("redis sink: unexpected payload %T", event.Payload)
	}
	body, err := json.Marshal(FollowupMessage{
		RequestID: event.TicketID,
		AskerID:   payload.AskerID,
		Question:  payload.Question,
		Answer:    payload.Answer,
	})
	if err != nil {
		return fmt.Errorf("encode follow-up: %w", err)
	}
	return s.client.Publish(ctx, s.FollowupChannel(payload.AskerID), body).Err()
}
