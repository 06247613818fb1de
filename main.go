// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kyipho/wikilynx/config"
	"github.com/kyipho/wikilynx/database"
	"github.com/kyipho/wikilynx/handlers"
	"github.com/kyipho/wikilynx/models"
	"github.com/kyipho/wikilynx/scraper"
	"github.com/kyipho/wikilynx/services"
)

var (
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:           "wikilynx",
		Short:         "Keeps a MySQL copy of the simplewiki dumps fresh and serves it",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: search config.yaml, config/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	root.AddCommand(refreshCmd(), statusCmd(), serveCmd())

	if err := root.Execute(); err != nil {
		slog.Error("wikilynx failed", "error", err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the default logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading configuration: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		"dataset", cfg.Dumps.Dataset,
		"dumps", cfg.Dumps.BaseURL,
		"db", cfg.Database.DBName,
		"scratch", cfg.Refresh.ScratchDir,
	)
	return cfg, logger, nil
}

// buildPipeline assembles a refresh pipeline. The returned closer releases
// the registry connection, if one was opened.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*services.RefreshPipeline, func(), error) {
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, nil, err
	}
	scratch, err := scraper.NewScratchDir(cfg.Refresh.ScratchDir)
	if err != nil {
		return nil, nil, err
	}

	closer := func() {}
	var registry services.RegistryReader
	if cfg.Registry.QueryAPIURL != "" {
		registry = database.NewQueryAPIRegistry(cfg.Registry.QueryAPIURL, &http.Client{Timeout: cfg.HTTP.ListingTimeout})
	} else {
		db, err := database.Open(ctx, cfg.Database, database.RoleReader)
		if err != nil {
			return nil, nil, models.NewRefreshError(models.ErrRegistryUnavailable, "", err)
		}
		closer = func() { db.Close() }
		registry = database.NewRegistryStore(db)
	}

	return &services.RefreshPipeline{
		Catalog:  catalog,
		Probe:    scraper.NewListingProbe(cfg.Dumps.BaseURL, cfg.HTTP.ListingTimeout, logger),
		Registry: registry,
		Fetcher:  scraper.NewDumpFetcher(cfg.Dumps.BaseURL, cfg.HTTP.DownloadTimeout, scratch, logger),
		Scratch:  scratch,
		Executor: services.NewRefreshExecutor(scratch, logger),
		Cascade:  services.NewCascadeRunner(cfg.Refresh.CascadeScript, logger),
		Open:     database.AdminOpener(cfg.Database),
		Logger:   logger,
	}, closer, nil
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one refresh: reload every table whose published dump is newer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pipeline, closer, err := buildPipeline(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closer()

			report, err := pipeline.Run(ctx)
			if err != nil {
				return err
			}
			if len(report.Downloaded) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "All tables are up to date.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refreshed %s (run %s).\n", strings.Join(report.Downloaded, ", "), report.RunID)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show published and recorded dump dates without changing anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			pipeline, closer, err := buildPipeline(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closer()

			status, err := pipeline.Status(cmd.Context())
			if err != nil {
				return err
			}
			renderStatus(cmd, status)
			return nil
		},
	}
}

func renderStatus(cmd *cobra.Command, status []models.TableStatus) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Table", "Dump file", "Published", "Loaded", "Needs update"})
	for _, s := range status {
		loaded := s.RegistryDate.String()
		if loaded == "" {
			loaded = "never"
		}
		table.Append([]string{s.Table, s.FileName, s.SourceDate.String(), loaded, strconv.FormatBool(s.NeedsUpdate)})
	}
	table.Render()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the query, category and admin HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reader, err := database.Open(ctx, cfg.Database, database.RoleReader)
			if err != nil {
				return fmt.Errorf("error initializing database: %w", err)
			}
			defer reader.Close()

			pipeline, closer, err := buildPipeline(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closer()

			api := handlers.NewAPI(database.NewQueryStore(reader), pipeline, logger)
			srv := &http.Server{
				Addr:              ":" + cfg.Server.Port,
				Handler:           handlers.NewRouter(api),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Server starting", "addr", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error starting server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("Server shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
