package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/escalation-service/internal/api/dto"
	"github.com/spec-kit/escalation-service/internal/config"
	"github.com/spec-kit/escalation-service/internal/persistence"
	"github.com/spec-kit/escalation-service/internal/service"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the postgres store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfg.Store.Backend != config.StoreBackendPostgres {
				return errors.New("migrate requires STORE_BACKEND=postgres")
			}
			pg, err := persistence.NewPostgres(cmd.Context(), rt.cfg.Postgres, rt.logger)
			if err != nil {
				return err
			}
			defer pg.Close()
			if err := persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), rt.cfg.Postgres.MigrationsDir, rt.logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newSeedCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load question/answer pairs from a YAML file into the knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := service.LoadKnowledgeSeed(args[0])
			if err != nil {
				return err
			}
			return rt.withService(cmd.Context(), func(svc *service.EscalationService) error {
				n, err := svc.Knowledge().Seed(cmd.Context(), seed)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d knowledge entries\n", n)
				return nil
			})
		},
	}
}

func newSweepCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Time out stale pending help requests once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withService(cmd.Context(), func(svc *service.EscalationService) error {
				ids, err := svc.SweepExpired(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "timed out %d help requests\n", len(ids))
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			})
		},
	}
}

func newTicketsCommand(rt *runtime) *cobra.Command {
	var (
		limit  int
		output string
	)
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "List help requests, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "table" && output != "json" {
				return fmt.Errorf("unsupported output %q: want table or json", output)
			}
			return rt.withService(cmd.Context(), func(svc *service.EscalationService) error {
				tickets, err := svc.ListTickets(cmd.Context(), limit)
				if err != nil {
					return err
				}
				items := make([]dto.TicketResponse, 0, len(tickets))
				for i := range tickets {
					items = append(items, dto.NewTicketResponse(&tickets[i]))
				}
				if output == "json" {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(items)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCUSTOMER\tSTATUS\tCREATED\tQUESTION")
				for _, t := range items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.CustomerID, t.Status, t.CreatedAt.UTC().Format(time.RFC3339), t.Question)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of help requests to list")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	return cmd
}
