package ingestion

import (
	"context"
	"log/slog"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/parser"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/transform"
	"golang.org/x/sync/errgroup"
)

// PreparedFile is a statement file read and transformed, ready to be loaded.
type PreparedFile struct {
	Path  string
	Table *models.RawTable
	Err   error
}

// Worker prepares files concurrently; loading stays with the caller.
type Worker interface {
	PrepareStatements(ctx context.Context, files []string) <-chan PreparedFile
}

type AsyncWorker struct {
	numWorkers int
	options    transform.Options
	logger     *slog.Logger
}

func NewAsyncWorker(numWorkers int, options transform.Options, logger *slog.Logger) *AsyncWorker {
	return &AsyncWorker{
		numWorkers: max(numWorkers, 1),
		options:    options,
		logger:     logger,
	}
}

// PrepareStatements reads and transforms files with a bounded number of goroutines.
// Results arrive in completion order; the channel holds at most one result per
// worker, so parsing never runs far ahead of the consumer. Once ctx is done no
// new file is parsed, and every remaining file is reported with ctx.Err(), so the
// channel yields exactly one result per file before it is closed. The caller must
// drain it.
func (w *AsyncWorker) PrepareStatements(ctx context.Context, files []string) <-chan PreparedFile {
	results := make(chan PreparedFile, w.numWorkers)

	go func() {
		defer close(results)

		var g errgroup.Group
		g.SetLimit(w.numWorkers)

		for i, file := range files {
			if err := ctx.Err(); err != nil {
				g.Wait()
				for _, skipped := range files[i:] {
					w.logger.Warn("file not parsed, run cancelled", "file", skipped)
					results <- PreparedFile{Path: skipped, Err: err}
				}
				return
			}
			g.Go(func() error {
				results <- w.prepare(file)
				return nil
			})
		}
		g.Wait()
	}()

	return results
}

func (w *AsyncWorker) prepare(file string) PreparedFile {
	w.logger.Debug("parser worker started", "file", file)

	table, err := parser.ReadCSV(file)
	if err != nil {
		return PreparedFile{Path: file, Err: err}
	}

	prepared := PreparedFile{Path: file, Table: transform.Transform(table, w.options)}
	w.logger.Debug("parser worker finished", "file", file, "rows", prepared.Table.Len())
	return prepared
}
