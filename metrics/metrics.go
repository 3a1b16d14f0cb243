// Package metrics bundles Prometheus collectors for both phases on a
// dedicated registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for the listing and download phases.
type Metrics struct {
	Registry             *prometheus.Registry
	ListingRequestsTotal *prometheus.CounterVec
	ListingDuration      prometheus.Histogram
	ListingRowsTotal     *prometheus.CounterVec
	FilesTotal           *prometheus.CounterVec
	BytesDownloaded      prometheus.Counter
	DownloadErrorsTotal  *prometheus.CounterVec
	DownloadDuration     prometheus.Histogram
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	listingRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archivedl_listing_requests_total",
			Help: "Index page requests by outcome.",
		},
		[]string{"outcome"},
	)
	listingDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "archivedl_listing_request_duration_seconds",
			Help:    "Index page request latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	listingRows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archivedl_listing_rows_total",
			Help: "Table rows inspected on the index page, by outcome.",
		},
		[]string{"outcome"},
	)
	files := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archivedl_files_total",
			Help: "Manifest records processed by the downloader, by outcome.",
		},
		[]string{"outcome"},
	)
	bytesDownloaded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "archivedl_download_bytes_total",
			Help: "Total bytes written to disk by the downloader.",
		},
	)
	downloadErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archivedl_download_errors_total",
			Help: "Download failures by error category.",
		},
		[]string{"category"},
	)
	downloadDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "archivedl_download_duration_seconds",
			Help:    "Per-file download duration.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	registry.MustRegister(listingRequests, listingDuration, listingRows, files, bytesDownloaded, downloadErrors, downloadDuration)

	return &Metrics{
		Registry:             registry,
		ListingRequestsTotal: listingRequests,
		ListingDuration:      listingDuration,
		ListingRowsTotal:     listingRows,
		FilesTotal:           files,
		BytesDownloaded:      bytesDownloaded,
		DownloadErrorsTotal:  downloadErrors,
		DownloadDuration:     downloadDuration,
	}
}

// IncListingRequest increments the index page request counter.
func (m *Metrics) IncListingRequest(outcome string) {
	if m == nil {
		return
	}
	m.ListingRequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveListingDuration records an index page request duration.
func (m *Metrics) ObserveListingDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.ListingDuration.Observe(d.Seconds())
}

// IncRow increments the listing row counter for an outcome label.
func (m *Metrics) IncRow(outcome string) {
	if m == nil {
		return
	}
	m.ListingRowsTotal.WithLabelValues(outcome).Inc()
}

// IncFile increments the processed files counter for an outcome label.
func (m *Metrics) IncFile(outcome string) {
	if m == nil {
		return
	}
	m.FilesTotal.WithLabelValues(outcome).Inc()
}

// AddBytes adds written bytes to the download byte counter.
func (m *Metrics) AddBytes(n int64) {
	if m == nil {
		return
	}
	m.BytesDownloaded.Add(float64(n))
}

// IncDownloadError increments the download error counter for a category.
func (m *Metrics) IncDownloadError(category string) {
	if m == nil {
		return
	}
	m.DownloadErrorsTotal.WithLabelValues(category).Inc()
}

// ObserveDownloadDuration records a per-file download duration.
func (m *Metrics) ObserveDownloadDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.DownloadDuration.Observe(d.Seconds())
}
