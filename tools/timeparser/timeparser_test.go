package timeparser

import (
	"testing"
	"time"
)

func TestParseReadingTimestamp_RFC3339(t *testing.T) {
	result, err := ParseReadingTimestamp("2025-01-20T10:05:00Z")
	if err != nil {
		t.Fatalf("Failed to parse timestamp: %v", err)
	}

	expected := time.Date(2025, 1, 20, 10, 5, 0, 0, time.UTC)
	if !result.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestParseReadingTimestamp_FractionalAndOffset(t *testing.T) {
	result, err := ParseReadingTimestamp("2025-01-20T12:05:00.250+02:00")
	if err != nil {
		t.Fatalf("Failed to parse timestamp: %v", err)
	}

	expected := time.Date(2025, 1, 20, 10, 5, 0, 250_000_000, time.UTC)
	if !result.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
	if result.Location() != time.UTC {
		t.Errorf("Expected UTC location, got %v", result.Location())
	}
}

func TestParseReadingTimestamp_WithoutZone(t *testing.T) {
	for _, dateStr := range []string{"2025-01-20T10:05:00", "2025-01-20 10:05:00", "20/01/2025 10:05:00"} {
		result, err := ParseReadingTimestamp(dateStr)
		if err != nil {
			t.Fatalf("Failed to parse timestamp %q: %v", dateStr, err)
		}

		expected := time.Date(2025, 1, 20, 10, 5, 0, 0, time.UTC)
		if !result.Equal(expected) {
			t.Errorf("%q: expected %v, got %v", dateStr, expected, result)
		}
	}
}

func TestParseReadingTimestamp_Invalid(t *testing.T) {
	_, err := ParseReadingTimestamp("invalid-date-string")
	if err == nil {
		t.Error("Expected error for invalid timestamp")
	}
}

func TestReadingTimestampOrNow(t *testing.T) {
	now := time.Date(2025, 1, 20, 10, 5, 0, 0, time.UTC)

	result, err := ReadingTimestampOrNow("", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Equal(now) {
		t.Errorf("Expected fallback %v, got %v", now, result)
	}

	result, err = ReadingTimestampOrNow("2025-01-19T08:00:00Z", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Day() != 19 {
		t.Errorf("Expected parsed timestamp, got %v", result)
	}
}
