package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/acquisition"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/config"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/database"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/discovery"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/ingestion"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/metrics"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/report"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/transform"
	"github.com/ThiagoRGoveia/ans-operadoras/pkg/logger"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs. The database pool is opened lazily
// because discover and annex never touch it.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	runID   string
	cleanup []func()
}

func setup() (*app, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	base, err := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	runID := uuid.NewString()
	return &app{cfg: cfg, logger: logger.ForRun(base, runID), runID: runID}, nil
}

func (a *app) connect(ctx context.Context) (*database.PostgresDBManager, error) {
	if err := a.cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	dbpool, err := database.ConnectDB(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	a.cleanup = append(a.cleanup, dbpool.Close)
	return database.NewPostgresDBManager(dbpool, a.logger), nil
}

func (a *app) close() {
	for _, fn := range a.cleanup {
		fn()
	}
}

func (a *app) dataDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.DataDir
}

func (a *app) runCmd() *cobra.Command {
	var skipDownload bool

	cmd := &cobra.Command{
		Use:   "run [data-dir]",
		Short: "Acquire, extract, transform and load operators and statements",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dbManager, err := a.connect(ctx)
			if err != nil {
				return err
			}

			pipeline := metrics.New()
			service := ingestion.NewIngestionService(
				dbManager,
				ingestion.NewLoader(dbManager, a.logger, a.cfg.DBBatchSize),
				ingestion.NewAsyncWorker(a.cfg.NumParserWorkers, transform.StatementOptions(), a.logger),
				ingestion.NewFileProcessor(a.cfg.OperatorsFile, a.cfg.IgnoreFiles, a.logger),
				*a.cfg,
				a.logger,
			).
				WithRunID(a.runID).
				WithMetrics(pipeline).
				WithReporter(report.NewReporter(dbManager, a.logger, *a.cfg))

			if !skipDownload {
				downloader := acquisition.NewDownloader(a.logger, a.cfg.HTTPTimeout, pipeline)
				service.WithAcquirer(ingestion.NewSourceAcquirer(
					downloader, a.logger, a.cfg.OperatorsURL, a.cfg.StatementsURLs, a.cfg.NumDownloaders,
				))
			}

			dir := a.dataDir(args)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create data dir: %w", err)
			}

			summary, err := service.Execute(ctx, dir)
			if err != nil {
				return fmt.Errorf("run aborted: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "files processed: %d, failed: %d, rows inserted: %d, rows filtered: %d\n",
				summary.FilesProcessed, summary.FilesFailed, summary.RowsInserted, summary.RowsFiltered)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipDownload, "skip-download", false, "only load files already present in the data dir")
	return cmd
}

func (a *app) setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the operadoras and demonstracoes_contabeis tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbManager, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			return dbManager.EnsureSchema(cmd.Context())
		},
	}
}

func (a *app) annexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "annex [data-dir]",
		Short: "Extract the annex PDF tables into tables_ans.zip",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.AnnexPageURL == "" {
				return fmt.Errorf("ANNEX_PAGE_URL environment variable is not set")
			}
			dir := a.dataDir(args)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create data dir: %w", err)
			}

			downloader := acquisition.NewDownloader(a.logger, a.cfg.HTTPTimeout, nil)
			exporter := ingestion.NewAnnexExporter(downloader, a.logger, a.cfg.AnnexPageURL, a.cfg.AnnexLabelPattern, a.cfg.NumDownloaders)
			zipPath, err := exporter.ExtractAnnexes(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), zipPath)
			return nil
		},
	}
}

func (a *app) reportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the top operators by expense for the last quarter and year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbManager, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}

			lines, err := report.NewReporter(dbManager, a.logger, *a.cfg).Build(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" {
				output = a.cfg.ReportOutput
			}
			if output != "" {
				return report.Export(lines, output)
			}
			for _, l := range lines {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\t%s\n", l.Window, l.Rank, l.RazaoSocial, l.TotalDespesas)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report as CSV to this path")
	return cmd
}

func (a *app) discoverCmd() *cobra.Command {
	var filter discovery.Filter

	cmd := &cobra.Command{
		Use:   "discover <page-url>",
		Short: "List the document links found on a listing page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			downloader := acquisition.NewDownloader(a.logger, a.cfg.HTTPTimeout, nil)
			links, err := discoverLinks(cmd.Context(), downloader, a.logger, args[0], filter)
			if err != nil {
				return err
			}
			for _, link := range links {
				fmt.Fprintln(cmd.OutOrStdout(), link)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Label, "label", "", "case-insensitive pattern matched against the link text")
	cmd.Flags().StringVar(&filter.Class, "class", "", "case-insensitive pattern matched against each class token")
	cmd.Flags().StringVar(&filter.Suffix, "suffix", "", "literal href suffix, e.g. .pdf")
	return cmd
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "ans-ingestion",
		Short:         "ANS operator registry and accounting statements pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(a.runCmd(), a.setupCmd(), a.annexCmd(), a.reportCmd(), a.discoverCmd())
	return root
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	startTime := time.Now()

	a, err := setup()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = newRootCmd(a).ExecuteContext(ctx)
	stop()
	a.close()

	if err != nil {
		a.logger.Error("command failed", "error", err, "elapsed", time.Since(startTime))
		os.Exit(1)
	}
	a.logger.Info("command finished", "elapsed", time.Since(startTime))
}
