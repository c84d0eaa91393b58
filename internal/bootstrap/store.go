// Package bootstrap opens the backends shared by the server and the CLI.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/config"
	"github.com/spec-kit/escalation-service/internal/persistence"
	"github.com/spec-kit/escalation-service/internal/repository"
	"github.com/spec-kit/escalation-service/internal/service"
)

// OpenStore returns the configured backend. For postgres it connects and,
// when enabled, applies migrations. The returned Postgres is nil for the
// memory backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, *persistence.Postgres, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, nil, err
			}
		}
		return repository.NewPostgresStore(pg.PoolHandle()), pg, nil
	default:
		logger.Warn("using in-memory store; tickets and knowledge are lost on restart")
		return repository.NewMemoryStore(), nil, nil
	}
}

// NewEscalationService builds the engine over store.
func NewEscalationService(cfg *config.Config, store repository.Store, deps service.EscalationDependencies) *service.EscalationService {
	deps.Store = store
	deps.Config = cfg.Escalation
	return service.NewEscalationService(deps)
}

// SeedKnowledge loads path into the knowledge base. An empty path is a no-op.
func SeedKnowledge(ctx context.Context, svc *service.EscalationService, path string, logger *zap.Logger) (int, error) {
	if path == "" {
		return 0, nil
	}
	seed, err := service.LoadKnowledgeSeed(path)
	if err != nil {
		return 0, err
	}
	n, err := svc.Knowledge().Seed(ctx, seed)
	if err != nil {
		return n, err
	}
	logger.Info("knowledge seeded", zap.String("file", path), zap.Int("entries", n))
	return n, nil
}
