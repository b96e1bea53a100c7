package analytics

import (
	"math"
	"time"

	"github.com/personal-organizer/organizer/internal/calendar"
)

// WeekWindowDays is the length of the trailing completion window.
const WeekWindowDays = 7

// WeeklyCompletionRate returns the share of the last seven calendar days,
// today included, with at least one completion, as a 0-100 percentage.
func WeeklyCompletionRate(entries []Entry, now time.Time) int {
	today := calendar.Day(now)
	start := calendar.AddDays(today, -(WeekWindowDays - 1))

	inWindow := 0
	for _, day := range completedDays(entries) {
		if day.Before(start) || day.After(today) {
			continue
		}
		inWindow++
	}
	return Percent(inWindow, WeekWindowDays)
}

// Percent returns part/total as a percentage rounded half-up; 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 || part <= 0 {
		return 0
	}
	return int(math.Floor(float64(part)*100/float64(total) + 0.5))
}
