// Package cli implements escalationctl, the operator tool for the escalation
// store.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/bootstrap"
	"github.com/spec-kit/escalation-service/internal/config"
	"github.com/spec-kit/escalation-service/internal/observability"
	"github.com/spec-kit/escalation-service/internal/repository"
	"github.com/spec-kit/escalation-service/internal/service"
)

// StoreOpener returns a store and a function releasing it.
type StoreOpener func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, func(), error)

// Options configures the root command.
type Options struct {
	Out        io.Writer
	LoadConfig func() (*config.Config, error)
	OpenStore  StoreOpener
}

// DefaultOptions reads configuration from the environment and opens the
// configured backend.
func DefaultOptions() Options {
	return Options{
		Out:        os.Stdout,
		LoadConfig: config.Load,
		OpenStore: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, func(), error) {
			store, pg, err := bootstrap.OpenStore(ctx, cfg, logger)
			if err != nil {
				return nil, nil, err
			}
			return store, func() {
				store.Close()
				pg.Close()
			}, nil
		},
	}
}

type runtime struct {
	opts   Options
	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds the escalationctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	rt := &runtime{opts: opts}
	var verbose bool

	root := &cobra.Command{
		Use:           "escalationctl",
		Short:         "Operate the front-desk escalation store",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.opts.Out == nil {
				rt.opts.Out = os.Stdout
			}
			cmd.SetOut(rt.opts.Out)
			cfg, err := rt.opts.LoadConfig()
			if err != nil {
				return err
			}
			rt.cfg = cfg
			cfg.Logger.Output = "stderr"
			cfg.Logger.Format = "console"
			if verbose {
				cfg.Logger.Level = "debug"
			}
			logger, err := observability.NewLogger(cfg.Logger, cfg.App)
			if err != nil {
				return err
			}
			rt.logger = logger
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newMigrateCommand(rt),
		newSeedCommand(rt),
		newSweepCommand(rt),
		newTicketsCommand(rt),
	)
	return root
}

func (rt *runtime) withService(ctx context.Context, fn func(*service.EscalationService) error) error {
	store, release, err := rt.opts.OpenStore(ctx, rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	defer release()
	svc := bootstrap.NewEscalationService(rt.cfg, store, service.EscalationDependencies{Logger: rt.logger})
	return fn(svc)
}
