package analytics

import (
	"slices"
	"time"

	"github.com/personal-organizer/organizer/internal/calendar"
)

// Entry is one completion record as seen by the calculators.
type Entry struct {
	Date      time.Time
	Completed bool
}

// completedDays returns the distinct completed calendar days, newest first.
func completedDays(entries []Entry) []time.Time {
	seen := make(map[time.Time]struct{}, len(entries))
	days := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		if !entry.Completed {
			continue
		}
		day := calendar.Day(entry.Date)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	slices.SortFunc(days, func(a, b time.Time) int { return b.Compare(a) })
	return days
}

// CurrentStreak counts consecutive completed days ending at the latest
// completion. The streak is zero once the latest completion is older than
// yesterday relative to now.
func CurrentStreak(entries []Entry, now time.Time) int {
	days := completedDays(entries)
	if len(days) == 0 {
		return 0
	}

	latest := days[0]
	if calendar.DaysBetween(latest, now) > 1 {
		return 0
	}

	streak := 0
	cursor := latest
	for _, day := range days {
		switch {
		case day.Equal(cursor):
			streak++
			cursor = calendar.AddDays(cursor, -1)
		case day.After(cursor):
			continue
		default:
			return streak
		}
	}
	return streak
}
