package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"

	"github.com/spec-kit/escalation-service/internal/config"
	"github.com/spec-kit/escalation-service/internal/events"
)

const (
	defaultMailRetries = 3
	defaultMailBackoff = 100 * time.Millisecond
	maxMailBackoff     = 30 * time.Second
)

// MailSender sends a plain-text message.
type MailSender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// SMTPSender sends mail through gomail with exponential backoff between
// attempts.
type SMTPSender struct {
	dialer  *gomail.Dialer
	from    string
	retries int
	backoff time.Duration
	logger  *zap.Logger
}

// NewSMTPSender builds a sender from notification settings.
func NewSMTPSender(cfg config.NotificationConfig, logger *zap.Logger) *SMTPSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	if cfg.SMTPInsecureVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &SMTPSender{
		dialer:  d,
		from:    cfg.EmailFrom,
		retries: defaultMailRetries,
		backoff: defaultMailBackoff,
		logger:  logger.Named("smtp"),
	}
}

func (s *SMTPSender) Send(ctx context.Context, to []string, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("Bcc", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	backoff := s.backoff
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if lastErr = s.dialer.DialAndSend(msg); lastErr == nil {
			return nil
		}
		if attempt == s.retries {
			break
		}
		s.logger.Warn("mail send failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxMailBackoff {
			backoff = maxMailBackoff
		}
	}
	return fmt.Errorf("send mail after %d attempts: %w", s.retries+1, lastErr)
}

// MailSink e-mails supervisors when a question needs their help.
type MailSink struct {
	sender     MailSender
	recipients []string
	limiter    *rate.Limiter
}

// NewMailSink builds a MailSink addressing recipients. A positive perMinute
// throttles delivery; bursts up to perMinute are sent immediately.
func NewMailSink(sender MailSender, recipients []string, perMinute int) *MailSink {
	sink := &MailSink{sender: sender, recipients: recipients}
	if perMinute > 0 {
		sink.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
	return sink
}

func (s *MailSink) Name() string { return "mail" }

func (s *MailSink) Accepts(eventType events.EventType) bool {
	return eventType == events.EventHelpRequested
}

func (s *MailSink) Deliver(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.HelpRequestedPayload)
	if !ok {
		return fmt.Errorf("mail sink: unexpected payload %T", event.Payload)
	}
	if len(s.recipients) == 0 {
		return nil
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("mail throttled: %w", err)
		}
	}
	subject := "Help requested: " + truncate(payload.Question, 60)
	var body strings.Builder
	fmt.Fprintf(&body, "A customer asked a question the assistant could not answer.\n\n")
	fmt.Fprintf(&body, "Request: %s\n", event.TicketID)
	fmt.Fprintf(&body, "Customer: %s\n", payload.AskerID)
	fmt.Fprintf(&body, "Question: %s\n", payload.Question)
	fmt.Fprintf(&body, "Asked at: %s\n", event.Timestamp.UTC().Format(time.RFC3339))
	return s.sender.Send(ctx, s.recipients, subject, body.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
