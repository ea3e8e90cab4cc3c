package ingestion

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/acquisition"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/discovery"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/parser"
)

const (
	AnnexCSVName = "tables_ans.csv"
	AnnexZipName = "tables_ans.zip"
)

// AnnexRenames expands the coverage abbreviations used in the annex headers.
var AnnexRenames = map[string]string{
	"OD":  "Seg. Odontológica",
	"AMB": "Seg. Ambulatorial",
}

type AnnexExporter struct {
	fetcher      Fetcher
	logger       *slog.Logger
	pageURL      string
	labelPattern string
	workers      int
}

func NewAnnexExporter(fetcher Fetcher, logger *slog.Logger, pageURL, labelPattern string, workers int) *AnnexExporter {
	return &AnnexExporter{
		fetcher:      fetcher,
		logger:       logger,
		pageURL:      pageURL,
		labelPattern: labelPattern,
		workers:      workers,
	}
}

// ExtractAnnexes downloads the annex PDFs linked from the annex page and exports the
// table of the first one that yields a table, in link order, as CSV and zip. PDFs
// without a table are skipped.
func (e *AnnexExporter) ExtractAnnexes(ctx context.Context, dataDir string) (string, error) {
	page, err := e.fetcher.FetchPage(ctx, e.pageURL)
	if err != nil {
		return "", err
	}

	hrefs, err := discovery.FindLinks(e.logger, page, discovery.Filter{Label: e.labelPattern, Suffix: ".pdf"})
	if err != nil {
		return "", err
	}
	if len(hrefs) == 0 {
		return "", models.NewAppError(models.KindExtraction, e.pageURL, "no annex link found", nil)
	}

	var table *models.RawTable
	for _, result := range e.fetcher.DownloadAll(ctx, discovery.Resolve(e.pageURL, hrefs), dataDir, e.workers) {
		if result.Err != nil {
			continue
		}
		t, err := parser.ExtractTables(result.Path, AnnexRenames)
		if err != nil {
			e.logger.Warn("annex skipped", "file", result.Path, "error", err)
			continue
		}
		e.logger.Info("annex tables extracted", "file", result.Path, "rows", t.Len(), "columns", len(t.Columns))
		table = t
		break
	}
	if table == nil {
		return "", models.NewAppError(models.KindExtraction, e.pageURL, "no annex produced a table", nil)
	}

	csvPath := filepath.Join(dataDir, AnnexCSVName)
	if err := parser.WriteCSV(table, csvPath); err != nil {
		return "", err
	}

	zipPath := filepath.Join(dataDir, AnnexZipName)
	if err := acquisition.Compress([]string{csvPath}, zipPath); err != nil {
		return "", err
	}

	e.logger.Info("annex exported", "csv", csvPath, "zip", zipPath)
	return zipPath, nil
}
