package analytics

import (
	"math"
	"time"

	"github.com/personal-organizer/organizer/internal/calendar"
)

// GoalProgress returns the completed share of steps as a percentage.
func GoalProgress(completed, total int) int {
	return Percent(completed, total)
}

// ExpectedProgress returns how far through [start, due] now is, clamped to 0-100.
func ExpectedProgress(start, due, now time.Time) int {
	totalDays := calendar.DaysBetween(start, due)
	if totalDays <= 0 {
		if now.Before(start) {
			return 0
		}
		return 100
	}
	elapsed := calendar.DaysBetween(start, now)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= totalDays {
		return 100
	}
	return Percent(elapsed, totalDays)
}

// RoundedMean returns the mean of values rounded half-up; 0 for no values.
func RoundedMean(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return int(math.Floor(float64(sum)/float64(len(values)) + 0.5))
}
