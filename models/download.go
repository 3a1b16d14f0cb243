package models

import "time"

// Outcome classifies what happened to a single download record.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// DownloadResult describes one attempt at fetching a record.
// TotalSize is the server-declared content length, or -1 when unknown.
type DownloadResult struct {
	Record       DownloadRecord
	Outcome      Outcome
	BytesWritten int64
	Chunks       int
	TotalSize    int64
	Duration     time.Duration
	Err          error
}

// BatchResult aggregates a full sequential pass over the manifest.
type BatchResult struct {
	Results      []*DownloadResult
	Completed    int
	Skipped      int
	Failed       int
	BytesTotal   int64
	FailedURLs   []string
	ErrorsByType map[string]int
	StartTime    time.Time
	EndTime      time.Time
}
