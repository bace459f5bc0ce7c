package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"kiln_studio/internal/config"
	"kiln_studio/internal/logger"
	"kiln_studio/internal/repository"
	"kiln_studio/internal/repository/db"
	"kiln_studio/internal/seed"
	"kiln_studio/internal/server"
	"kiln_studio/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// app is everything a command needs once config and storage are open.
type app struct {
	cfg   config.Config
	log   *logger.Logger
	db    *sql.DB
	repos *repository.Repository
	svc   *service.Service
	reg   *prometheus.Registry
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "kiln_studio",
		Short:         "Kiln studio firing log and glaze project tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: configs/config.yml)")

	cmd.AddCommand(newRunCommand(&configPath))
	cmd.AddCommand(newSeedCommand(&configPath))
	cmd.AddCommand(newFiringsCommand(&configPath))
	return cmd
}

func newRunCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Restore the studio store and keep it persisted until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.SeedPath != "" && a.repos.Store.Version() == 0 {
				if err := a.seed(ctx, a.cfg.SeedPath); err != nil {
					return err
				}
			}

			// start snapshot persister (via composed service)
			go a.svc.Run(ctx, a.cfg.SnapshotInterval)

			srv := &server.Server{}
			if a.cfg.MetricsAddr != "" {
				runMetricsServer(srv, a.cfg.MetricsAddr, a.reg, a.log)
			}
			a.log.Infow("studio store ready", "db", a.cfg.DBPath, "metrics", a.cfg.MetricsAddr)

			<-ctx.Done()
			return shutdown(srv, a)
		},
	}
}

func newSeedCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load YAML fixtures into the stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.seed(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.svc.Flush(cmd.Context())
		},
	}
}

func newFiringsCommand(configPath *string) *cobra.Command {
	var (
		userID string
		asJSON bool
		filter service.FiringFilter
	)
	cmd := &cobra.Command{
		Use:   "firings",
		Short: "List the firings of a user's studio, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			user, err := a.svc.CurrentUser(cmd.Context(), userID)
			if err != nil {
				return err
			}
			firings, err := a.svc.ListFirings(cmd.Context(), user, filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(firings)
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKILN\tTYPE\tCONE\tSTATUS\tSTART\tMAX\tMINUTES")
			for _, f := range firings {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					f.ID, f.KilnName, f.FiringType, f.TargetCone, f.Status,
					f.StartTime.Format(time.RFC3339), orDash(f.MaxTemp), orDash(f.DurationMinutes))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id whose studio is listed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	cmd.Flags().StringVar(&filter.Keyword, "keyword", "", "case-insensitive substring of the notes")
	cmd.Flags().StringVar(&filter.KilnID, "kiln", "", "kiln id")
	cmd.Flags().StringVar((*string)(&filter.Status), "status", "", "ONGOING, COMPLETED, ABORTED or TEST")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// openApp loads config, opens sqlite, restores the last snapshot and wires
// the services.
func openApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logger.Get(cfg.LogLevel)

	sqlDB, err := db.InitDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init sqlite: %w", err)
	}

	repos := repository.NewRepository(sqlDB)
	if err := repos.Restore(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := service.NewService(repos, service.Deps{
		Logger:          log,
		Metrics:         service.NewMetrics(reg),
		MaxIncludeDepth: cfg.MaxIncludeDepth,
	})
	return &app{cfg: cfg, log: log, db: sqlDB, repos: repos, svc: svc, reg: reg}, nil
}

func (a *app) seed(ctx context.Context, path string) error {
	fx, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	_, err = seed.NewSeeder(a.svc, a.log).Apply(ctx, fx)
	return err
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Errorw("failed to close sqlite", "err", err)
	}
}

// runMetricsServer runs the metrics endpoint in a separate goroutine.
func runMetricsServer(srv *server.Server, addr string, reg *prometheus.Registry, log *logger.Logger) {
	go func() {
		if err := srv.Run(addr, server.MetricsHandler(reg)); err != nil {
			log.Errorw("metrics server stopped", "err", err)
		}
	}()
}

// shutdown stops the metrics server and writes a final snapshot.
func shutdown(srv *server.Server, a *app) error {
	a.log.Infow("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.log.Warnw("metrics server forced to shutdown", "err", err)
	}
	if err := a.svc.Flush(ctx); err != nil {
		return fmt.Errorf("final snapshot: %w", err)
	}
	return nil
}

func orDash[T any](v *T) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
