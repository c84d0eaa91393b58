package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("ESCALATION_DEDUP_WINDOW", "")
	t.Setenv("NOTIFY_KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreBackendMemory, cfg.Store.Backend)
	assert.Equal(t, 60*time.Second, cfg.Escalation.DedupWindow)
	assert.Equal(t, 5, cfg.Escalation.PendingLookupLimit)
	assert.Equal(t, 500, cfg.Escalation.KnowledgeScanLimit)
	assert.Equal(t, 10*time.Minute, cfg.Escalation.TicketTimeout)
	assert.Equal(t, 30*time.Second, cfg.Escalation.SweepInterval)
	assert.Equal(t, 200, cfg.Escalation.TicketListLimit)
	assert.False(t, cfg.Notification.KafkaEnabled())
	assert.Equal(t, "0.0.0.0:3000", cfg.App.Addr())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("ESCALATION_DEDUP_WINDOW", "2m")
	t.Setenv("ESCALATION_SWEEP_INTERVAL", "not-a-duration")
	t.Setenv("NOTIFY_KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("NOTIFY_SUPERVISOR_EMAILS", "lead@example.com")
	t.Setenv("NOTIFY_SMTP_HOST", "smtp.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreBackendPostgres, cfg.Store.Backend)
	assert.Equal(t, 2*time.Minute, cfg.Escalation.DedupWindow)
	assert.Equal(t, 30*time.Second, cfg.Escalation.SweepInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notification.KafkaBrokers)
	assert.True(t, cfg.Notification.KafkaEnabled())
	assert.True(t, cfg.Notification.MailEnabled())
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "firestore")
	_, err := Load()
	assert.Error(t, err)
}

func TestRequestTimeout(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{}.RequestTimeout())
	assert.Equal(t, 5*time.Second, AppConfig{RequestTimeoutSeconds: 5}.RequestTimeout())
}
