package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/archivedl/go-archive-dl/models"
)

// ReadRecords loads download records from the CSV manifest. The file may
// have been hand-edited between phases, so the reader tolerates reordered,
// added, and removed rows: malformed rows are skipped with a warning and the
// scan continues. Names are percent-decoded the same way the listing phase
// decodes them.
func ReadRecords(path string) ([]models.DownloadRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records []models.DownloadRecord
	line := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				slog.Warn("skipping malformed manifest row",
					slog.Int("line", parseErr.Line),
					slog.Any("error", err),
				)
				continue
			}
			return nil, fmt.Errorf("read manifest: %w", err)
		}

		if len(row) < 2 {
			slog.Warn("skipping manifest row with missing fields", slog.Int("line", line))
			continue
		}

		name := strings.TrimSpace(row[0])
		rawURL := strings.TrimSpace(row[1])
		if isHeaderRow(name, rawURL) {
			continue
		}
		if name == "" || rawURL == "" {
			slog.Warn("skipping manifest row with empty fields", slog.Int("line", line))
			continue
		}

		if decoded, err := url.PathUnescape(name); err == nil {
			name = decoded
		}

		records = append(records, models.DownloadRecord{
			Name: name,
			URL:  rawURL,
		})
	}

	return records, nil
}

func isHeaderRow(name, rawURL string) bool {
	return strings.EqualFold(name, Header[0]) && strings.EqualFold(rawURL, Header[1])
}
