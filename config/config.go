package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds settings for both the listing and download phases.
type Config struct {
	ListingURL     string
	OutputDir      string
	ManifestFile   string
	ManifestFormat string // csv or dual
	Timeout        time.Duration
	ChunkSize      int
	BarWidth       int
	UserAgent      string
	MetricsAddr    string
	Verbose        bool
	AssumeYes      bool
}

// DefaultConfig returns the defaults used when flags and environment
// variables are absent. ListingURL and OutputDir may be filled in later by
// the interactive prompts.
func DefaultConfig() *Config {
	return &Config{
		ListingURL:     "",
		OutputDir:      "downloads",
		ManifestFile:   "file_list.csv",
		ManifestFormat: "csv",
		Timeout:        10 * time.Second,
		ChunkSize:      100 * 1024,
		BarWidth:       30,
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		MetricsAddr:    "",
		Verbose:        false,
		AssumeYes:      false,
	}
}

// Validate ensures all configuration values are coherent. ListingURL may be
// empty when the download phase reuses an existing manifest; when set it must
// be a well-formed absolute URL.
func (c *Config) Validate() error {
	if c.ListingURL != "" {
		parsedURL, err := url.Parse(c.ListingURL)
		if err != nil {
			return fmt.Errorf("invalid listing URL: %w", err)
		}
		if parsedURL.Host == "" {
			return fmt.Errorf("listing URL must include a host")
		}
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.ManifestFile == "" {
		return fmt.Errorf("manifest file cannot be empty")
	}
	// The CSV file is the hand-off the download phase reads back, so it is
	// always written; dual adds a JSONL sidecar.
	if c.ManifestFormat != "csv" && c.ManifestFormat != "dual" {
		return fmt.Errorf("manifest format must be csv or dual")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}
	if c.BarWidth <= 0 {
		return fmt.Errorf("progress bar width must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
