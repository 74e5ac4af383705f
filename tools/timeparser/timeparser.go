package timeparser

import (
	"fmt"
	"time"
)

// ParseReadingTimestamp attempts to parse a sensor timestamp with multiple formats.
// Layouts without a zone are read as UTC.
func ParseReadingTimestamp(dateStr string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,      // 2025-01-20T10:05:00.123Z
		time.RFC3339,          // 2025-01-20T10:05:00Z
		"2006-01-02T15:04:05", // ISO without zone
		"2006-01-02 15:04:05", // SQL datetime
		"02/01/2006 15:04:05", // DD/MM/YYYY HH:mm:ss
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse timestamp '%s': %w", dateStr, lastErr)
}

// ReadingTimestampOrNow parses dateStr, falling back to now when it is empty
func ReadingTimestampOrNow(dateStr string, now time.Time) (time.Time, error) {
	if dateStr == "" {
		return now.UTC(), nil
	}
	return ParseReadingTimestamp(dateStr)
}
