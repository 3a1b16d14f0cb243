// Package downloader fetches manifest records sequentially, streaming each
// file to disk in fixed-size chunks with a console progress indicator.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/archivedl/go-archive-dl/config"
	"github.com/archivedl/go-archive-dl/metrics"
	"github.com/archivedl/go-archive-dl/models"
)

// Downloader streams files from manifest records into a destination
// directory. Files are fetched one at a time; a failure on one file never
// aborts the batch.
type Downloader struct {
	cfg     *config.Config
	client  *http.Client
	metrics *metrics.Metrics

	// Output receives the progress bar and per-file summaries. Defaults to
	// os.Stdout.
	Output io.Writer
}

// New builds a downloader from cfg. Metrics may be nil. The client bounds
// the dial, TLS, and response-header phases by cfg.Timeout while leaving the
// body stream unbounded in duration.
func New(cfg *config.Config, m *metrics.Metrics) *Downloader {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
	}

	return &Downloader{
		cfg:     cfg,
		client:  &http.Client{Transport: transport},
		metrics: m,
		Output:  os.Stdout,
	}
}

// FetchOne downloads a single record into destDir. A file that already
// exists under the record's name is treated as satisfied without any network
// call. All failures are terminal for this record only and are reported in
// the returned result, never as a panic or batch-level error.
func (d *Downloader) FetchOne(ctx context.Context, rec models.DownloadRecord, destDir string) *models.DownloadResult {
	res := &models.DownloadResult{Record: rec, TotalSize: -1}
	start := time.Now()

	path := filepath.Join(destDir, rec.Name)
	if _, err := os.Stat(path); err == nil {
		slog.Info("file already exists, skipping", slog.String("file", rec.Name))
		res.Outcome = models.OutcomeSkipped
		res.Duration = time.Since(start)
		d.metrics.IncFile(string(models.OutcomeSkipped))
		return res
	}

	if free, ok := diskFree(destDir); ok {
		slog.Info("available disk space", slog.Uint64("free_gb", free/(1024*1024*1024)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rec.URL, nil)
	if err != nil {
		return d.fail(res, start, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return d.fail(res, start, Classify(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return d.fail(res, start, &StatusError{URL: rec.URL, Status: resp.StatusCode})
	}

	// ContentLength is -1 when the server declared nothing; a declared zero
	// is equally unusable for percentage math.
	total := resp.ContentLength
	res.TotalSize = total

	file, err := os.Create(path)
	if err != nil {
		return d.fail(res, start, &FilesystemError{Op: "create", Err: err})
	}
	defer file.Close()

	prog := newProgress(d.Output, rec.Name, total, d.cfg.BarWidth, start)
	buf := make([]byte, d.cfg.ChunkSize)

	for {
		n, readErr := io.ReadFull(resp.Body, buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return d.fail(res, start, &FilesystemError{Op: "write", Err: writeErr})
			}
			res.BytesWritten += int64(n)
			res.Chunks++
			d.metrics.AddBytes(int64(n))
			prog.Update(res.BytesWritten)
		}
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			break
		}
		if readErr != nil {
			// Partial file stays on disk.
			return d.fail(res, start, Classify(readErr))
		}
	}

	if total > 0 && res.BytesWritten < total {
		return d.fail(res, start, &ConnectionError{
			Err: fmt.Errorf("truncated body: got %d of %d bytes", res.BytesWritten, total),
		})
	}

	prog.Finish(res.BytesWritten)
	res.Outcome = models.OutcomeCompleted
	res.Duration = time.Since(start)
	d.metrics.IncFile(string(models.OutcomeCompleted))
	d.metrics.ObserveDownloadDuration(res.Duration)
	slog.Info("download complete",
		slog.String("file", rec.Name),
		slog.Int64("bytes", res.BytesWritten),
		slog.Duration("elapsed", res.Duration),
	)
	return res
}

// RunBatch creates destDir if needed and fetches every record in order.
// Failed and skipped records never stop the loop; the only early exit is
// context cancellation, checked between files.
func (d *Downloader) RunBatch(ctx context.Context, records []models.DownloadRecord, destDir string) (*models.BatchResult, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, &FilesystemError{Op: "mkdir", Err: err}
	}

	batch := &models.BatchResult{
		StartTime:    time.Now(),
		ErrorsByType: make(map[string]int),
	}

	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}

		res := d.FetchOne(ctx, rec, destDir)
		batch.Results = append(batch.Results, res)

		switch res.Outcome {
		case models.OutcomeCompleted:
			batch.Completed++
			batch.BytesTotal += res.BytesWritten
		case models.OutcomeSkipped:
			batch.Skipped++
		case models.OutcomeFailed:
			batch.Failed++
			batch.FailedURLs = append(batch.FailedURLs, rec.URL)
			batch.ErrorsByType[CategoryOf(res.Err)]++
		}
	}

	batch.EndTime = time.Now()
	return batch, ctx.Err()
}

func (d *Downloader) fail(res *models.DownloadResult, start time.Time, err error) *models.DownloadResult {
	res.Outcome = models.OutcomeFailed
	res.Err = err
	res.Duration = time.Since(start)

	category := CategoryOf(err)
	d.metrics.IncFile(string(models.OutcomeFailed))
	d.metrics.IncDownloadError(category)
	slog.Error("download failed",
		slog.String("file", res.Record.Name),
		slog.String("url", res.Record.URL),
		slog.String("category", category),
		slog.Any("error", err),
	)
	return res
}
