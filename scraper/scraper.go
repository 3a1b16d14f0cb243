// Package scraper extracts downloadable file entries from a directory index
// page such as an archive.org file listing.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/archivedl/go-archive-dl/config"
	"github.com/archivedl/go-archive-dl/metrics"
	"github.com/archivedl/go-archive-dl/models"
	"github.com/gocolly/colly/v2"
)

// Scraper fetches one index page and turns its table rows into listing
// entries.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	metrics   *metrics.Metrics

	handlersOnce sync.Once
}

// New builds a scraper configured from cfg. Metrics may be nil.
func New(cfg *config.Config, m *metrics.Metrics) *Scraper {
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Scraper{
		cfg:       cfg,
		collector: collector,
		metrics:   m,
	}
}

// Run fetches pageURL and extracts one entry per table row carrying both an
// anchor and a trailing size cell. Entries keep document order and
// duplicates are not collapsed. On any fetch failure the result is empty and
// the error is a *FetchError. A Scraper is single-use: call Run at most once.
func (s *Scraper) Run(ctx context.Context, pageURL string) (*models.ListingResult, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return &models.ListingResult{}, &FetchError{URL: pageURL, Err: err}
	}
	if parsed.Host == "" {
		return &models.ListingResult{}, &FetchError{URL: pageURL, Err: fmt.Errorf("url must include a host")}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return &models.ListingResult{}, &FetchError{URL: pageURL, Err: err}
	}

	result := &models.ListingResult{StartTime: time.Now()}
	var fetchErr *FetchError

	s.handlersOnce.Do(func() {
		s.collector.OnRequest(func(r *colly.Request) {
			r.Ctx.Put("start", time.Now())
		})

		s.collector.OnResponse(func(r *colly.Response) {
			s.metrics.IncListingRequest("success")
			if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
				s.metrics.ObserveListingDuration(time.Since(start))
			}
		})

		s.collector.OnError(func(r *colly.Response, err error) {
			s.metrics.IncListingRequest("error")
			status := 0
			if r != nil {
				status = r.StatusCode
			}
			fetchErr = &FetchError{URL: pageURL, Status: status, Err: err}
		})

		s.collector.OnHTML("tr", func(e *colly.HTMLElement) {
			s.scanRow(e, result)
		})
	})

	visitErr := s.collector.Visit(pageURL)
	s.collector.Wait()
	result.EndTime = time.Now()

	if fetchErr != nil {
		slog.Error("failed to retrieve listing page",
			slog.String("url", pageURL),
			slog.Int("status", fetchErr.Status),
			slog.Any("error", fetchErr.Err),
		)
		return &models.ListingResult{StartTime: result.StartTime, EndTime: result.EndTime}, fetchErr
	}
	if visitErr != nil {
		return &models.ListingResult{StartTime: result.StartTime, EndTime: result.EndTime},
			&FetchError{URL: pageURL, Err: visitErr}
	}

	slog.Info("listing extracted",
		slog.String("url", pageURL),
		slog.Int("entries", len(result.Entries)),
		slog.Int("rows_skipped", result.RowsSkipped),
		slog.Int64("total_bytes", result.TotalSizeBytes),
	)
	return result, nil
}

func (s *Scraper) scanRow(e *colly.HTMLElement, result *models.ListingResult) {
	result.RowsSeen++

	link, sizeCell, ok := rowParts(e.DOM)
	if !ok {
		// Header and separator rows lack an anchor or cells.
		result.RowsSkipped++
		s.metrics.IncRow("skipped")
		return
	}

	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		result.RowsSkipped++
		s.metrics.IncRow("skipped")
		return
	}

	absolute := e.Request.AbsoluteURL(href)
	if absolute == "" {
		slog.Warn("skipping row with unresolvable link", slog.String("href", href))
		result.RowsSkipped++
		s.metrics.IncRow("skipped")
		return
	}

	name, err := fileNameFromURL(absolute)
	if err != nil || name == "" {
		slog.Warn("skipping row without a usable file name",
			slog.String("url", absolute),
			slog.Any("error", err),
		)
		result.RowsSkipped++
		s.metrics.IncRow("skipped")
		return
	}

	// An unparsable size cell degrades to zero bytes; the row is still kept.
	size, _ := ParseSize(sizeCell.Text())

	result.Entries = append(result.Entries, models.ListingEntry{
		Name:      name,
		URL:       absolute,
		SizeBytes: size,
	})
	result.TotalSizeBytes += size
	s.metrics.IncRow("emitted")
}

// rowParts returns the first anchor and the last table cell of a row. Rows
// missing either are not file entries.
func rowParts(row *goquery.Selection) (link, sizeCell *goquery.Selection, ok bool) {
	anchor := row.Find("a").First()
	cells := row.Find("td")
	if anchor.Length() == 0 || cells.Length() == 0 {
		return nil, nil, false
	}
	return anchor, cells.Last(), true
}

// fileNameFromURL returns the percent-decoded final path segment of an
// absolute URL.
func fileNameFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	escaped := u.EscapedPath()
	segment := escaped[strings.LastIndex(escaped, "/")+1:]
	return url.PathUnescape(segment)
}
