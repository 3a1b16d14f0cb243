// Package models defines data structures shared by the listing and download phases.
package models

import "time"

// ListingEntry represents one downloadable file discovered on the index page.
type ListingEntry struct {
	Name      string `json:"file_name"`
	URL       string `json:"file_url"`
	SizeBytes int64  `json:"size_bytes"`
}

// ListingResult holds the outcome of scraping one index page. Entries keep
// document order and may contain duplicates.
type ListingResult struct {
	Entries        []ListingEntry
	TotalSizeBytes int64
	RowsSeen       int
	RowsSkipped    int
	StartTime      time.Time
	EndTime        time.Time
}

// DownloadRecord is one row of the persisted manifest. The download phase
// trusts only these two fields; the manifest may have been hand-edited
// between phases.
type DownloadRecord struct {
	Name string
	URL  string
}
