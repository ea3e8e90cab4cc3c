package ingestion

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/config"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/database"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/metrics"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/parser"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/transform"
	"github.com/google/uuid"
)

type State string

const (
	StateInit              State = "Init"
	StateSchemaReady       State = "SchemaReady"
	StateLoadingOperators  State = "LoadingOperators"
	StateLoadingStatements State = "LoadingStatements"
	StateReporting         State = "Reporting"
	StateDone              State = "Done"
	StateFailed            State = "Failed"
)

const (
	DatasetOperators  = "operators"
	DatasetStatements = "statements"
)

// ReportRunner produces the read-only reports at the end of a run.
type ReportRunner interface {
	Run(ctx context.Context) error
}

type IngestionService struct {
	dbManager     database.DBManager
	loader        TableLoader
	asyncWorker   Worker
	fileProcessor Processor
	acquirer      Acquirer
	reporter      ReportRunner
	metrics       *metrics.Pipeline
	config        config.Config
	logger        *slog.Logger

	runID string
	state State
}

func NewIngestionService(dbManager database.DBManager, loader TableLoader, worker Worker, processor Processor, cfg config.Config, logger *slog.Logger) *IngestionService {
	return &IngestionService{
		dbManager:     dbManager,
		loader:        loader,
		asyncWorker:   worker,
		fileProcessor: processor,
		config:        cfg,
		logger:        logger,
		runID:         uuid.NewString(),
		state:         StateInit,
	}
}

func (s *IngestionService) WithAcquirer(acquirer Acquirer) *IngestionService {
	s.acquirer = acquirer
	return s
}

func (s *IngestionService) WithReporter(reporter ReportRunner) *IngestionService {
	s.reporter = reporter
	return s
}

func (s *IngestionService) WithMetrics(m *metrics.Pipeline) *IngestionService {
	s.metrics = m
	return s
}

func (s *IngestionService) WithRunID(runID string) *IngestionService {
	s.runID = runID
	return s
}

func (s *IngestionService) State() State {
	return s.state
}

func (s *IngestionService) transition(to State) {
	s.logger.Info("state changed", "from", s.state, "to", to)
	s.state = to
}

// Execute runs the pipeline over dataDir. Only a schema or scan failure aborts the
// run; every other failure is recorded per file in the returned summary.
func (s *IngestionService) Execute(ctx context.Context, dataDir string) (*models.RunSummary, error) {
	summary := &models.RunSummary{RunID: s.runID, StartedAt: time.Now()}
	s.state = StateInit

	// Step 0: Bring remote sources into the data directory, when configured.
	if s.acquirer != nil {
		s.acquirer.Acquire(ctx, dataDir)
	}

	// Step 1: Make sure both tables exist. Nothing is loaded without them.
	if err := s.dbManager.EnsureSchema(ctx); err != nil {
		s.logger.Error("failed to bootstrap schema", "error", err)
		s.transition(StateFailed)
		return s.finish(ctx, summary), err
	}
	s.transition(StateSchemaReady)

	// Step 2: Classify the files on disk.
	sources, err := s.fileProcessor.ScanForFiles(dataDir)
	if err != nil {
		s.logger.Error("failed to scan files", "error", err)
		s.transition(StateFailed)
		return s.finish(ctx, summary), err
	}

	// Step 3: Operators first, statements reference them.
	s.transition(StateLoadingOperators)
	summary.Record(s.loadOperators(ctx, dataDir, sources.Operators))

	// Step 4: Statements are parsed concurrently and loaded one file per transaction,
	// in the order parsing completes.
	s.transition(StateLoadingStatements)
	paths := make([]string, len(sources.Statements))
	for i, f := range sources.Statements {
		paths[i] = f.Path
	}
	for prepared := range s.asyncWorker.PrepareStatements(ctx, paths) {
		summary.Record(s.loadStatement(ctx, prepared))
	}

	// Step 5: Reports are informational only.
	s.transition(StateReporting)
	if s.reporter != nil {
		if err := s.reporter.Run(ctx); err != nil {
			s.logger.Warn("reporting failed", "error", err)
		}
	}

	s.transition(StateDone)
	return s.finish(ctx, summary), nil
}

func (s *IngestionService) loadOperators(ctx context.Context, dataDir string, source *models.SourceFile) models.FileOutcome {
	if source == nil {
		path := filepath.Join(dataDir, s.config.OperatorsFile)
		outcome := models.FileOutcome{
			Path:    path,
			Dataset: DatasetOperators,
			Err:     models.NewAppError(models.KindExtraction, path, "operator registry not found", nil),
		}
		s.logger.Error("operator registry missing, skipping", "file", path)
		s.metrics.FileProcessed(DatasetOperators, 0, 0, outcome.Err)
		return outcome
	}

	outcome := models.FileOutcome{Path: source.Path, Dataset: DatasetOperators}
	table, err := parser.ReadCSV(source.Path)
	if err == nil {
		outcome = s.load(ctx, outcome, transform.Transform(table, transform.OperatorOptions()), models.OperatorEntity)
	} else {
		outcome.Err = err
		s.logFailure(outcome)
	}
	s.metrics.FileProcessed(DatasetOperators, outcome.Inserted, outcome.Filtered, outcome.Err)
	return outcome
}

func (s *IngestionService) loadStatement(ctx context.Context, prepared PreparedFile) models.FileOutcome {
	outcome := models.FileOutcome{Path: prepared.Path, Dataset: DatasetStatements}
	if prepared.Err != nil {
		outcome.Err = prepared.Err
		s.logFailure(outcome)
	} else {
		outcome = s.load(ctx, outcome, prepared.Table, models.StatementEntity)
	}
	s.metrics.FileProcessed(DatasetStatements, outcome.Inserted, outcome.Filtered, outcome.Err)
	return outcome
}

func (s *IngestionService) load(ctx context.Context, outcome models.FileOutcome, table *models.RawTable, entity models.Entity) models.FileOutcome {
	result, err := s.loader.Load(ctx, table, entity)
	if err != nil {
		outcome.Err = err
		s.logFailure(outcome)
		return outcome
	}

	outcome.Inserted = result.Inserted
	outcome.Filtered = result.Filtered
	s.logger.Info("file loaded", "file", outcome.Path, "dataset", outcome.Dataset,
		"rows_inserted", result.Inserted, "rows_filtered", result.Filtered)
	return outcome
}

func (s *IngestionService) logFailure(outcome models.FileOutcome) {
	s.logger.Error("file failed, continuing with the next one", "file", outcome.Path,
		"dataset", outcome.Dataset, "kind", models.KindOf(outcome.Err), "error", outcome.Err)
}

func (s *IngestionService) finish(ctx context.Context, summary *models.RunSummary) *models.RunSummary {
	summary.FinishedAt = time.Now()

	s.logger.Info("run finished",
		"state", s.state,
		"files_processed", summary.FilesProcessed,
		"files_succeeded", summary.FilesSucceeded,
		"files_failed", summary.FilesFailed,
		"rows_inserted", summary.RowsInserted,
		"rows_filtered", summary.RowsFiltered,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)
	for _, failure := range summary.Failures {
		s.logger.Warn("failed file", "file", failure.Path, "kind", models.KindOf(failure.Err), "error", failure.Err)
	}

	if err := s.metrics.Push(ctx, s.config.PushgatewayURL, s.runID); err != nil {
		s.logger.Warn("could not push metrics", "error", err)
	}
	return summary
}
