package scraper

import (
	"strconv"
	"strings"
)

// ParseSize converts a human-readable size string such as "1.5G", "300M",
// "100K" or "2048" into a byte count. The suffix is case-insensitive and
// surrounding whitespace is ignored. The second return value is false when
// the numeric prefix is unparsable; callers that want the historical
// degrade-to-zero behavior can ignore it.
func ParseSize(s string) (int64, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	multiplier := float64(1)
	switch s[len(s)-1] {
	case 'G':
		multiplier = 1 << 30
		s = s[:len(s)-1]
	case 'M':
		multiplier = 1 << 20
		s = s[:len(s)-1]
	case 'K':
		multiplier = 1 << 10
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return int64(value * multiplier), true
}
