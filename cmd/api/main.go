package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/escalation-service/internal/api/http"
	"github.com/spec-kit/escalation-service/internal/api/http/handlers"
	"github.com/spec-kit/escalation-service/internal/bootstrap"
	"github.com/spec-kit/escalation-service/internal/config"
	"github.com/spec-kit/escalation-service/internal/events"
	"github.com/spec-kit/escalation-service/internal/notify"
	"github.com/spec-kit/escalation-service/internal/observability"
	"github.com/spec-kit/escalation-service/internal/persistence"
	"github.com/spec-kit/escalation-service/internal/service"
	"github.com/spec-kit/escalation-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.InitTracing(cfg.Tracing, cfg.App, logger)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	store, pg, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()
	defer pg.Close()

	var rdb *persistence.Redis
	var followups notify.Publisher
	if cfg.Redis.Enabled {
		rdb = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer rdb.Close()
		followups = rdb
		logger.Info("follow-up channel ready", zap.Bool("healthy", rdb.Healthy()))
	}

	sinks := notify.Build(cfg.Notification, followups, logger)
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("closing notification sinks", zap.Error(err))
		}
	}()
	logger.Info("notification sinks configured", zap.Strings("sinks", sinks.Names()))

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(sinks.All, logger, metrics)
	notificationWorker := worker.NewNotificationWorker(notificationService, cfg.Notification.QueueSize, cfg.Notification.Workers, logger, metrics)
	notificationWorker.Register(dispatcher)
	deliveryCtx, cancelDelivery := context.WithCancel(context.Background())
	defer cancelDelivery()
	notificationWorker.Start(deliveryCtx)

	escalationService := bootstrap.NewEscalationService(cfg, store, service.EscalationDependencies{
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	if _, err := bootstrap.SeedKnowledge(ctx, escalationService, cfg.Knowledge.SeedFile, logger); err != nil {
		logger.Fatal("failed to seed knowledge", zap.Error(err))
	}

	sweeper := worker.NewTimeoutSweeper(escalationService, cfg.Escalation.SweepInterval, logger)
	go sweeper.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	deps := map[string]handlers.Pinger{"store": store}
	if rdb != nil {
		deps["redis"] = rdb
	}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Ask:          handlers.NewAskHandler(escalationService),
		HelpRequests: handlers.NewHelpRequestsHandler(escalationService),
		Knowledge:    handlers.NewKnowledgeHandler(escalationService),
		Metrics:      metrics,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("store", cfg.Store.Backend))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	if err := notificationWorker.Stop(shutdownCtx); err != nil {
		logger.Warn("notification worker did not drain", zap.Error(err))
	}
	cancelDelivery()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
