package calendar

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidDate indicates the input cannot be parsed as a date.
var ErrInvalidDate = errors.New("invalid date format")

// layouts lists the accepted textual date forms, most specific first.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/1/2",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"January 2, 2006",
	"Mon Jan 2 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// Day returns the UTC calendar day containing t, at midnight UTC.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Parse parses a date or timestamp string and returns its UTC calendar day.
// Inputs without a zone are read as UTC.
func Parse(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range layouts {
		if parsed, errParse := time.Parse(layout, trimmed); errParse == nil {
			return Day(parsed), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ParseOr parses raw when present and falls back to the day of now otherwise.
func ParseOr(raw *string, now time.Time) (time.Time, error) {
	if raw == nil {
		return Day(now), nil
	}
	return Parse(*raw)
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / (24 * time.Hour))
}

// AddDays shifts a calendar day by n days.
func AddDays(day time.Time, n int) time.Time {
	return Day(day).AddDate(0, 0, n)
}

// Key formats the calendar day as YYYY-MM-DD.
func Key(t time.Time) string {
	return Day(t).Format("2006-01-02")
}
