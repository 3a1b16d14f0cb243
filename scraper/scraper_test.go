package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/archivedl/go-archive-dl/config"
	"github.com/archivedl/go-archive-dl/metrics"
	"github.com/jarcoal/httpmock"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.ListingURL = "http://example.test/download/test-set/"
	return cfg
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(http.StatusOK, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func listingPage(rows ...string) string {
	var builder strings.Builder
	builder.WriteString("<html><body><table>")
	builder.WriteString("<tr><th>Name</th><th>Last modified</th><th>Size</th></tr>")
	for _, row := range rows {
		builder.WriteString(row)
	}
	builder.WriteString("</table></body></html>")
	return builder.String()
}

func fileRow(href, size string) string {
	return fmt.Sprintf("<tr><td><a href=%q>%s</a></td><td>01-Jan-2020</td><td>%s</td></tr>", href, href, size)
}

func TestRunExtractsRows(t *testing.T) {
	cfg := testConfig()
	page := listingPage(
		fileRow("Sonic%20The%20Hedgehog.zip", "1.5G"),
		"<tr><td>separator row without a link</td><td>-</td></tr>",
		fileRow("Virtua%20Racing.zip", "300M"),
	)

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", cfg.ListingURL, htmlResponder(page))

	s := New(cfg, metrics.New())
	s.collector.WithTransport(transport)

	result, err := s.Run(context.Background(), cfg.ListingURL)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("entries=%d, want 2 (%+v)", len(result.Entries), result.Entries)
	}
	if result.Entries[0].Name != "Sonic The Hedgehog.zip" {
		t.Fatalf("first name=%q, want decoded name", result.Entries[0].Name)
	}
	if result.Entries[1].Name != "Virtua Racing.zip" {
		t.Fatalf("second name=%q, want decoded name", result.Entries[1].Name)
	}
	wantURL := "http://example.test/download/test-set/Sonic%20The%20Hedgehog.zip"
	if result.Entries[0].URL != wantURL {
		t.Fatalf("first url=%q, want %q", result.Entries[0].URL, wantURL)
	}

	wantTotal := int64(1610612736 + 314572800)
	if result.TotalSizeBytes != wantTotal {
		t.Fatalf("total=%d, want %d", result.TotalSizeBytes, wantTotal)
	}
	// Header row plus the anchorless separator row.
	if result.RowsSkipped != 2 {
		t.Fatalf("rows skipped=%d, want 2", result.RowsSkipped)
	}
	if result.RowsSeen != 4 {
		t.Fatalf("rows seen=%d, want 4", result.RowsSeen)
	}
}

func TestRunUnparsableSizeKeepsRow(t *testing.T) {
	cfg := testConfig()
	page := listingPage(
		fileRow("game.zip", "2048"),
		fileRow("cover.png", "-"),
	)

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", cfg.ListingURL, htmlResponder(page))

	s := New(cfg, nil)
	s.collector.WithTransport(transport)

	result, err := s.Run(context.Background(), cfg.ListingURL)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("entries=%d, want 2", len(result.Entries))
	}
	if result.Entries[1].SizeBytes != 0 {
		t.Fatalf("unparsable size should contribute zero, got %d", result.Entries[1].SizeBytes)
	}
	if result.TotalSizeBytes != 2048 {
		t.Fatalf("total=%d, want 2048", result.TotalSizeBytes)
	}
}

func TestRunPreservesDuplicates(t *testing.T) {
	cfg := testConfig()
	page := listingPage(
		fileRow("game.zip", "1K"),
		fileRow("game.zip", "1K"),
	)

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", cfg.ListingURL, htmlResponder(page))

	s := New(cfg, nil)
	s.collector.WithTransport(transport)

	result, err := s.Run(context.Background(), cfg.ListingURL)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("duplicate rows must be preserved, entries=%d", len(result.Entries))
	}
	if result.TotalSizeBytes != 2048 {
		t.Fatalf("total=%d, want 2048", result.TotalSizeBytes)
	}
}

func TestRunNotFound(t *testing.T) {
	cfg := testConfig()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", cfg.ListingURL,
		httpmock.NewStringResponder(http.StatusNotFound, "not here"))

	s := New(cfg, metrics.New())
	s.collector.WithTransport(transport)

	result, err := s.Run(context.Background(), cfg.ListingURL)
	if err == nil {
		t.Fatalf("expected error for http 404")
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
	if fetchErr.Status != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", fetchErr.Status)
	}
	if len(result.Entries) != 0 || result.TotalSizeBytes != 0 {
		t.Fatalf("result should be empty on fetch failure, got %+v", result)
	}
}

func TestRunRejectsBadURL(t *testing.T) {
	cfg := testConfig()
	s := New(cfg, nil)

	_, err := s.Run(context.Background(), "http://")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
}

func TestFileNameFromURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "http://example.test/dir/game.zip", expected: "game.zip"},
		{name: "percent encoded", input: "http://example.test/dir/Alien%203.zip", expected: "Alien 3.zip"},
		{name: "trailing slash", input: "http://example.test/dir/", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fileNameFromURL(tt.input)
			if err != nil {
				t.Fatalf("fileNameFromURL(%q): %v", tt.input, err)
			}
			if got != tt.expected {
				t.Fatalf("fileNameFromURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
