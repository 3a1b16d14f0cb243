package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/archivedl/go-archive-dl/config"
	"github.com/archivedl/go-archive-dl/downloader"
	"github.com/archivedl/go-archive-dl/manifest"
	"github.com/archivedl/go-archive-dl/metrics"
	"github.com/archivedl/go-archive-dl/models"
	"github.com/archivedl/go-archive-dl/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaultCfg := config.DefaultConfig()

	urlDefault := defaultCfg.ListingURL
	if value, ok := config.EnvString("ARCHIVEDL_URL"); ok {
		urlDefault = value
	}
	dirDefault := ""
	if value, ok := config.EnvString("ARCHIVEDL_DIR"); ok {
		dirDefault = value
	}
	manifestDefault := defaultCfg.ManifestFile
	if value, ok := config.EnvString("ARCHIVEDL_MANIFEST"); ok {
		manifestDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("ARCHIVEDL_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	timeoutDefault := int(defaultCfg.Timeout / time.Second)
	if value, ok, err := config.EnvInt("ARCHIVEDL_TIMEOUT"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid ARCHIVEDL_TIMEOUT: %v\n", err)
		os.Exit(1)
	} else if ok {
		timeoutDefault = value
	}
	chunkDefault := defaultCfg.ChunkSize
	if value, ok, err := config.EnvInt("ARCHIVEDL_CHUNK_SIZE"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid ARCHIVEDL_CHUNK_SIZE: %v\n", err)
		os.Exit(1)
	} else if ok {
		chunkDefault = value
	}

	listingURL := flag.String("url", urlDefault, "Directory listing URL to scrape")
	outputDir := flag.String("dir", dirDefault, "Folder to save downloads into")
	manifestFile := flag.String("manifest", manifestDefault, "Manifest file path")
	manifestFormat := flag.String("format", "csv", "Manifest format: csv or dual")
	timeoutSec := flag.Int("timeout", timeoutDefault, "Request timeout (seconds)")
	chunkSize := flag.Int("chunk-size", chunkDefault, "Download chunk size (bytes)")
	userAgent := flag.String("user-agent", defaultCfg.UserAgent, "User-Agent header")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	assumeYes := flag.Bool("yes", false, "Skip interactive prompts and pauses")
	skipScrape := flag.Bool("skip-scrape", false, "Reuse an existing manifest instead of scraping")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := buildConfigFromFlags(*listingURL, *outputDir, *manifestFile, *manifestFormat, *timeoutSec, *chunkSize, *userAgent, *metricsAddr, *verbose, *assumeYes)

	stdin := bufio.NewReader(os.Stdin)
	interactive := !cfg.AssumeYes && isTerminal(os.Stdin)

	if !*skipScrape && cfg.ListingURL == "" && interactive {
		cfg.ListingURL = promptLine(stdin, "Enter a directory listing URL (e.g. https://archive.org/download/Sega-32x-Romset-us/): ")
	}
	if cfg.OutputDir == "" && interactive {
		cfg.OutputDir = promptLine(stdin, "Enter the folder name to save the downloads: ")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultCfg.OutputDir
	}
	if !*skipScrape && cfg.ListingURL == "" {
		slog.Error("a listing URL is required unless -skip-scrape is set")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing the current file")
	}()

	m := metrics.New()
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	if !*skipScrape {
		runListingPhase(ctx, cfg, m)
		waitEnter(stdin, interactive, "Press Enter to continue...")
	}

	runDownloadPhase(ctx, cfg, m)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	waitEnter(stdin, interactive, "Press Enter to quit...")
}

func runListingPhase(ctx context.Context, cfg *config.Config, m *metrics.Metrics) {
	slog.Info("scraping listing page", slog.String("url", cfg.ListingURL))

	s := scraper.New(cfg, m)
	result, err := s.Run(ctx, cfg.ListingURL)
	if err != nil {
		slog.Error("failed to retrieve the listing page", slog.Any("error", err))
		return
	}
	if len(result.Entries) == 0 {
		slog.Warn("no files found on the listing page", slog.String("url", cfg.ListingURL))
		return
	}

	fmt.Printf("\nNumber of files found: %d\n", len(result.Entries))
	fmt.Printf("Estimated total size: %.2f GB\n", float64(result.TotalSizeBytes)/(1024*1024*1024))

	writer, err := createWriter(cfg.ManifestFormat, cfg.ManifestFile)
	if err != nil {
		slog.Error("creating manifest writer", slog.Any("error", err))
		return
	}
	if err := writer.Write(result.Entries); err != nil {
		slog.Error("writing manifest", slog.Any("error", err))
		writer.Close()
		return
	}
	if err := writer.Validate(); err != nil {
		slog.Error("manifest validation failed", slog.Any("error", err))
	}
	if err := writer.Close(); err != nil {
		slog.Error("closing manifest writer", slog.Any("error", err))
		return
	}

	fmt.Printf("File list saved to %q.\n", cfg.ManifestFile)
	fmt.Println("\nYou can now edit the file list before downloading starts.")
}

func runDownloadPhase(ctx context.Context, cfg *config.Config, m *metrics.Metrics) {
	records, err := manifest.ReadRecords(cfg.ManifestFile)
	if err != nil {
		slog.Error("reading manifest", slog.Any("error", err))
		return
	}
	if len(records) == 0 {
		slog.Warn("manifest has no records, nothing to download", slog.String("manifest", cfg.ManifestFile))
		return
	}

	slog.Info("starting downloads",
		slog.Int("records", len(records)),
		slog.String("dir", cfg.OutputDir),
	)

	d := downloader.New(cfg, m)
	batch, err := d.RunBatch(ctx, records, cfg.OutputDir)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("download batch aborted", slog.Any("error", err))
	}
	if batch != nil {
		printSummary(batch, cfg.OutputDir)
	}
}

func buildConfigFromFlags(listingURL, outputDir, manifestFile, manifestFormat string, timeoutSec, chunkSize int, userAgent, metricsAddr string, verbose, assumeYes bool) *config.Config {
	cfg := config.DefaultConfig()
	cfg.ListingURL = strings.TrimSpace(listingURL)
	cfg.OutputDir = strings.TrimSpace(outputDir)
	cfg.ManifestFile = manifestFile
	cfg.ManifestFormat = strings.ToLower(manifestFormat)
	cfg.Timeout = time.Duration(timeoutSec) * time.Second
	cfg.ChunkSize = chunkSize
	cfg.UserAgent = userAgent
	cfg.MetricsAddr = metricsAddr
	cfg.Verbose = verbose
	cfg.AssumeYes = assumeYes
	return cfg
}

func createWriter(format, filename string) (manifest.Writer, error) {
	switch format {
	case "csv":
		return manifest.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".jsonl"
		return manifest.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(batch *models.BatchResult, outputDir string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Download batch complete")
	fmt.Printf("  Records:       %d\n", len(batch.Results))
	fmt.Printf("  Completed:     %d\n", batch.Completed)
	fmt.Printf("  Skipped:       %d\n", batch.Skipped)
	fmt.Printf("  Failed:        %d\n", batch.Failed)
	fmt.Printf("  Downloaded:    %.2f MB\n", float64(batch.BytesTotal)/(1024*1024))
	if len(batch.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", batch.ErrorsByType)
	}
	if len(batch.FailedURLs) > 0 {
		fmt.Printf("  Failed URLs:   %d\n", len(batch.FailedURLs))
	}
	fmt.Printf("  Duration:      %v\n", batch.EndTime.Sub(batch.StartTime))
	fmt.Printf("  Output folder: %s\n", outputDir)
	fmt.Println(separator)
}

func promptLine(r *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

func waitEnter(r *bufio.Reader, interactive bool, message string) {
	if !interactive {
		return
	}
	fmt.Print(message)
	r.ReadString('\n')
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
