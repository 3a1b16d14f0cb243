package downloader

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestProgressKnownTotal(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, "game.zip", 200, 30, time.Now().Add(-time.Second))

	p.Update(100)
	out := buf.String()

	wantBar := "[" + strings.Repeat("=", 15) + strings.Repeat(" ", 15) + "]"
	if !strings.Contains(out, wantBar) {
		t.Fatalf("output %q missing half-filled 30-column bar", out)
	}
	if !strings.Contains(out, "50.00%") {
		t.Fatalf("output %q missing percentage", out)
	}
	if !strings.Contains(out, "Speed: ") {
		t.Fatalf("output %q missing speed", out)
	}
}

func TestProgressFullBar(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, "game.zip", 200, 30, time.Now())

	p.Update(200)
	out := buf.String()

	if !strings.Contains(out, "["+strings.Repeat("=", 30)+"]") {
		t.Fatalf("output %q missing full bar", out)
	}
	if !strings.Contains(out, "100.00%") {
		t.Fatalf("output %q missing 100%%", out)
	}
}

func TestProgressUnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, "blob.bin", -1, 30, time.Now())

	p.Update(5 * 1024 * 1024)
	out := buf.String()

	if !strings.Contains(out, "size unknown") {
		t.Fatalf("output %q missing unknown-size marker", out)
	}
	if strings.Contains(out, "[") || strings.Contains(out, "%") {
		t.Fatalf("output %q must not render a bar or percentage without a total", out)
	}
	if !strings.Contains(out, "5 MB") {
		t.Fatalf("output %q missing downloaded megabytes", out)
	}
}

func TestProgressFinish(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, "game.zip", 200, 30, time.Now().Add(-65*time.Second))

	p.Finish(3 * 1024 * 1024)
	out := buf.String()

	if !strings.Contains(out, "Download complete: game.zip") {
		t.Fatalf("output %q missing completion line", out)
	}
	if !strings.Contains(out, "Downloaded 3 MB in 1m 05s") {
		t.Fatalf("output %q missing elapsed summary", out)
	}
}
