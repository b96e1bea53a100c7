package models

import "time"

// HabitFrequency is how often a habit is meant to be performed.
type HabitFrequency string

// HabitFrequency values.
const (
	HabitFrequencyDaily  HabitFrequency = "daily"
	HabitFrequencyWeekly HabitFrequency = "weekly"
)

// Valid reports whether f is a known frequency.
func (f HabitFrequency) Valid() bool {
	return f == HabitFrequencyDaily || f == HabitFrequencyWeekly
}

// HabitStatus is the lifecycle state of a habit.
type HabitStatus string

// HabitStatus values.
const (
	HabitStatusActive   HabitStatus = "active"
	HabitStatusArchived HabitStatus = "archived"
)

// Valid reports whether s is a known status.
func (s HabitStatus) Valid() bool {
	return s == HabitStatusActive || s == HabitStatusArchived
}

// Habit is a recurring habit. CurrentStreak, BestStreak and
// WeeklyCompletionRate are derived from the habit's logs and are rewritten by
// reconciliation; BestStreak never decreases.
type Habit struct {
	ID     string `gorm:"type:varchar(36);primaryKey"`     // Opaque identifier.
	UserID string `gorm:"type:varchar(36);not null;index"` // Owner.

	Title       string         `gorm:"type:varchar(200);not null"`                       // Habit title.
	Description string         `gorm:"type:text"`                                        // Optional description.
	Category    string         `gorm:"type:varchar(50);index"`                           // Optional category.
	Frequency   HabitFrequency `gorm:"type:varchar(16);not null;default:'daily'"`        // daily or weekly.
	Status      HabitStatus    `gorm:"type:varchar(16);not null;default:'active';index"` // active or archived.

	CurrentStreak        int `gorm:"not null;default:0"` // Consecutive days ending today or yesterday.
	BestStreak           int `gorm:"not null;default:0"` // Highest streak ever reached.
	WeeklyCompletionRate int `gorm:"not null;default:0"` // Percent of the last 7 days completed.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`       // Last update timestamp.
}

// HabitLog records that a habit was done on one UTC calendar day.
// (HabitID, Date) is unique.
type HabitLog struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // Opaque identifier.

	HabitID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_habit_logs_habit_date,priority:1"` // Owning habit.
	Date        time.Time `gorm:"not null;uniqueIndex:idx_habit_logs_habit_date,priority:2"`                  // UTC midnight of the day.
	IsCompleted bool      `gorm:"not null"`                                                                   // Completion flag.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
