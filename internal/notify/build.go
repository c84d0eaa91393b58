package notify

import (
	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/config"
)

// Sinks is the configured set of destinations plus what must be closed on
// shutdown.
type Sinks struct {
	All   []Sink
	kafka *KafkaSink
}

// Build assembles sinks from configuration. The log sink is always present;
// publisher may be nil when Redis is disabled.
func Build(cfg config.NotificationConfig, publisher Publisher, logger *zap.Logger) *Sinks {
	sinks := &Sinks{All: []Sink{NewLogSink(logger)}}
	if cfg.MailEnabled() {
		sinks.All = append(sinks.All, NewMailSink(NewSMTPSender(cfg, logger), cfg.SupervisorEmails, cfg.MailPerMinute))
	}
	if publisher != nil {
		sinks.All = append(sinks.All, NewRedisSink(publisher, cfg.RedisChannelPrefix))
	}
	if cfg.KafkaEnabled() {
		sinks.kafka = NewKafkaSink(NewKafkaWriter(cfg))
		sinks.All = append(sinks.All, sinks.kafka)
	}
	return sinks
}

// Names lists the configured sinks.
func (s *Sinks) Names() []string {
	names := make([]string, 0, len(s.All))
	for _, sink := range s.All {
		names = append(names, sink.Name())
	}
	return names
}

// Close releases sink resources.
func (s *Sinks) Close() error {
	if s.kafka != nil {
		return s.kafka.Close()
	}
	return nil
}
