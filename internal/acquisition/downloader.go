// Package acquisition retrieves remote documents into local storage.
package acquisition

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/metrics"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"golang.org/x/sync/errgroup"
)

const DefaultChunkSize = 8192

type Downloader struct {
	client    *http.Client
	logger    *slog.Logger
	chunkSize int
	metrics   *metrics.Pipeline
}

// Result is the outcome of one download in a batch. Path is empty when Err is set.
type Result struct {
	URL   string
	Path  string
	Bytes int64
	Err   error
}

func NewDownloader(logger *slog.Logger, timeout time.Duration, m *metrics.Pipeline) *Downloader {
	return &Downloader{
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
		chunkSize: DefaultChunkSize,
		metrics:   m,
	}
}

// FetchPage returns the body of a listing page as text.
func (d *Downloader) FetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", models.NewAppError(models.KindFetchFailure, pageURL, "invalid request", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", models.NewAppError(models.KindFetchFailure, pageURL, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", models.NewAppError(models.KindFetchFailure, pageURL, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewAppError(models.KindFetchFailure, pageURL, "failed to read body", err)
	}

	d.logger.Debug("page fetched", "url", pageURL, "bytes", len(body))
	return string(body), nil
}

// Download streams url into destDir, named after the last segment of the URL path.
// The payload is written to a .part file first; on any failure nothing is left behind.
func (d *Downloader) Download(ctx context.Context, rawURL, destDir string) (string, error) {
	localPath, n, err := d.download(ctx, rawURL, destDir)
	d.metrics.Download(n, err)
	if err != nil {
		d.logger.Error("download failed", "url", rawURL, "outcome", "failure", "error", err)
		return "", err
	}

	d.logger.Info("download finished", "url", rawURL, "outcome", "success", "bytes", n, "path", localPath)
	return localPath, nil
}

func (d *Downloader) download(ctx context.Context, rawURL, destDir string) (string, int64, error) {
	name, err := fileName(rawURL)
	if err != nil {
		return "", 0, models.NewAppError(models.KindDownloadFailure, rawURL, "cannot derive file name", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, models.NewAppError(models.KindDownloadFailure, rawURL, "invalid request", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", 0, models.NewAppError(models.KindDownloadFailure, rawURL, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, models.NewAppError(models.KindDownloadFailure, rawURL, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", 0, models.NewAppError(models.KindDownloadFailure, rawURL, "cannot create destination", err)
	}

	localPath := filepath.Join(destDir, name)
	partPath := localPath + ".part"

	n, err := d.writeChunks(partPath, resp.Body)
	if err != nil {
		os.Remove(partPath)
		return "", n, models.NewAppError(models.KindDownloadFailure, rawURL, "partial write", err)
	}

	if err := os.Rename(partPath, localPath); err != nil {
		os.Remove(partPath)
		return "", n, models.NewAppError(models.KindDownloadFailure, rawURL, "cannot finalize file", err)
	}

	return localPath, n, nil
}

func (d *Downloader) writeChunks(partPath string, body io.Reader) (int64, error) {
	file, err := os.Create(partPath)
	if err != nil {
		return 0, err
	}

	var written int64
	buf := make([]byte, d.chunkSize)
	for {
		nr, readErr := body.Read(buf)
		if nr > 0 {
			nw, writeErr := file.Write(buf[:nr])
			written += int64(nw)
			if writeErr != nil {
				file.Close()
				return written, writeErr
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			file.Close()
			return written, readErr
		}
	}

	return written, file.Close()
}

// DownloadAll downloads urls with at most workers requests in flight.
// Results keep the order of urls; a failed download never stops the others.
func (d *Downloader) DownloadAll(ctx context.Context, urls []string, destDir string, workers int) []Result {
	results := make([]Result, len(urls))

	var g errgroup.Group
	g.SetLimit(max(workers, 1))

	for i, u := range urls {
		g.Go(func() error {
			p, err := d.Download(ctx, u, destDir)
			results[i] = Result{URL: u, Path: p, Err: err}
			if err == nil {
				if info, statErr := os.Stat(p); statErr == nil {
					results[i].Bytes = info.Size()
				}
			}
			return nil
		})
	}
	g.Wait()

	return results
}

func fileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("url %s has no file name", rawURL)
	}
	return name, nil
}
