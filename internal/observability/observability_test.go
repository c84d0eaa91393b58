package observability

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/config"
	apperrors "github.com/spec-kit/escalation-service/pkg/util/errorutil"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordAsk(AskAnswered)
	m.RecordAsk(AskDeduped)
	m.RecordAsk(AskDeduped)
	m.RecordTransition("unresolved", "timeout", 3)
	m.RecordTransition("resolved", "supervisor", 0)
	m.RecordSweep(nil)
	m.RecordSweep(errors.New("down"))
	m.RecordNotification("mail", nil)
	m.RecordNotificationDropped()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.asks.WithLabelValues(AskAnswered)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.asks.WithLabelValues(AskDeduped)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.transitions.WithLabelValues("unresolved", "timeout")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.transitions.WithLabelValues("resolved", "supervisor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweeps.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("mail", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dropped))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordAsk(AskAnswered)
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordSweep(nil)
}

func TestRequestLoggerUsesDomainStatus(t *testing.T) {
	m := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/missing/:id", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("ticket", nil)
	})
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })

	_, err := app.Test(httptest.NewRequest("GET", "/missing/1", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/missing/:id", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/ok", "GET", "200")))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "nonsense", Format: "console"}, config.AppConfig{Name: "svc"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(config.TracingConfig{}, config.AppConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
