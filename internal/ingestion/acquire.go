package ingestion

import (
	"context"
	"log/slog"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/acquisition"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/discovery"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
)

// Fetcher is the transport used to reach the regulator's listing pages.
type Fetcher interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
	DownloadAll(ctx context.Context, urls []string, destDir string, workers int) []acquisition.Result
}

// Acquirer brings remote sources into the data directory before a run. What gets
// loaded is decided by the scan of the data directory that follows.
type Acquirer interface {
	Acquire(ctx context.Context, dataDir string)
}

// SourceAcquirer downloads the operator registry and the zipped statement files
// linked from their listing pages. Failures are logged and never stop the batch.
type SourceAcquirer struct {
	fetcher        Fetcher
	logger         *slog.Logger
	operatorsURL   string
	statementsURLs []string
	workers        int
}

func NewSourceAcquirer(fetcher Fetcher, logger *slog.Logger, operatorsURL string, statementsURLs []string, workers int) *SourceAcquirer {
	return &SourceAcquirer{
		fetcher:        fetcher,
		logger:         logger,
		operatorsURL:   operatorsURL,
		statementsURLs: statementsURLs,
		workers:        workers,
	}
}

func (a *SourceAcquirer) Acquire(ctx context.Context, dataDir string) {
	var files int

	if a.operatorsURL != "" {
		files += len(a.collect(ctx, a.operatorsURL, ".csv", models.SourceOperatorCSV, dataDir))
	}

	for _, listing := range a.statementsURLs {
		for _, archive := range a.collect(ctx, listing, ".zip", models.SourceStatementArchive, dataDir) {
			paths, err := acquisition.Unpack(archive.Path, dataDir)
			if err != nil {
				a.logger.Error("could not unpack archive", "file", archive.Path, "error", err)
			}
			for _, p := range paths {
				a.logger.Debug("statement file unpacked", "url", archive.URL, "file", p)
			}
			files += len(paths)
		}
	}

	a.logger.Info("acquisition finished", "files", files)
}

func (a *SourceAcquirer) collect(ctx context.Context, listing, suffix string, kind models.SourceKind, dataDir string) []models.SourceFile {
	page, err := a.fetcher.FetchPage(ctx, listing)
	if err != nil {
		a.logger.Error("could not fetch listing", "url", listing, "error", err)
		return nil
	}

	hrefs, err := discovery.FindLinks(a.logger, page, discovery.Filter{Suffix: suffix})
	if err != nil {
		a.logger.Error("could not discover links", "url", listing, "error", err)
		return nil
	}

	var files []models.SourceFile
	for _, result := range a.fetcher.DownloadAll(ctx, discovery.Resolve(listing, hrefs), dataDir, a.workers) {
		if result.Err != nil {
			continue
		}
		files = append(files, models.SourceFile{URL: result.URL, Path: result.Path, Kind: kind})
	}
	return files
}
