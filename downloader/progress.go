package downloader

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// progress renders the single-line download indicator. With a known total it
// shows a fixed-width bar and percentage; with an unknown total it shows
// bytes and speed only, so there is no division against a zero total.
type progress struct {
	w     io.Writer
	name  string
	total int64 // <= 0 means unknown
	width int
	start time.Time
}

func newProgress(w io.Writer, name string, total int64, width int, start time.Time) *progress {
	return &progress{
		w:     w,
		name:  name,
		total: total,
		width: width,
		start: start,
	}
}

// Update redraws the progress line for the cumulative byte count. Speed is a
// running average since the request began, not a sliding window.
func (p *progress) Update(downloaded int64) {
	elapsed := time.Since(p.start).Seconds()
	speed := 0.0
	if elapsed > 0 {
		speed = float64(downloaded) / elapsed / (1024 * 1024)
	}
	downloadedMB := downloaded / (1024 * 1024)

	if p.total <= 0 {
		fmt.Fprintf(p.w, "\rDownloading %s: %d MB (size unknown) Speed: %.2f MB/s",
			p.name, downloadedMB, speed)
		return
	}

	fraction := float64(downloaded) / float64(p.total)
	filled := int(fraction * float64(p.width))
	if filled > p.width {
		filled = p.width
	}
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", p.width-filled)

	fmt.Fprintf(p.w, "\rDownloading %s: [%s] %.2f%% (%d MB) Speed: %.2f MB/s",
		p.name, bar, fraction*100, downloadedMB, speed)
}

// Finish terminates the progress line and prints the completion summary.
func (p *progress) Finish(downloaded int64) {
	elapsed := time.Since(p.start)
	fmt.Fprintf(p.w, "\nDownload complete: %s\n", p.name)
	fmt.Fprintf(p.w, "Downloaded %d MB in %dm %02ds\n",
		downloaded/(1024*1024),
		int(elapsed.Minutes()),
		int(elapsed.Seconds())%60,
	)
}
