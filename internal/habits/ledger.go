package habits

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/personal-organizer/organizer/internal/calendar"
	"github.com/personal-organizer/organizer/internal/db"
	"github.com/personal-organizer/organizer/internal/models"
	"gorm.io/gorm"
)

// Ledger stores per-day completion entries for habits.
type Ledger interface {
	RecordCompletion(ctx context.Context, habitID string, day time.Time) (models.HabitLog, error)
	RemoveCompletion(ctx context.Context, habitID string, day time.Time) error
	EntriesFor(ctx context.Context, habitID string) iter.Seq2[models.HabitLog, error]
	DeleteAllFor(ctx context.Context, habitID string) error
}

// GormLedger is a Ledger backed by the habit_logs table. Uniqueness of
// (habit_id, date) comes from the table's unique index.
type GormLedger struct {
	db *gorm.DB
}

// NewGormLedger constructs a ledger over conn.
func NewGormLedger(conn *gorm.DB) *GormLedger {
	return &GormLedger{db: conn}
}

// RecordCompletion inserts a completed entry for the habit on day.
func (l *GormLedger) RecordCompletion(ctx context.Context, habitID string, day time.Time) (models.HabitLog, error) {
	entry := models.HabitLog{
		ID:          uuid.NewString(),
		HabitID:     habitID,
		Date:        calendar.Day(day),
		IsCompleted: true,
	}
	if errCreate := l.db.WithContext(ctx).Create(&entry).Error; errCreate != nil {
		if db.IsUniqueViolation(errCreate) {
			return models.HabitLog{}, ErrDuplicateCompletion
		}
		return models.HabitLog{}, persistenceError("record completion", errCreate)
	}
	return entry, nil
}

// RemoveCompletion deletes the entry for the habit on day.
func (l *GormLedger) RemoveCompletion(ctx context.Context, habitID string, day time.Time) error {
	res := l.db.WithContext(ctx).
		Where("habit_id = ? AND date = ?", habitID, calendar.Day(day)).
		Delete(&models.HabitLog{})
	if res.Error != nil {
		return persistenceError("remove completion", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// EntriesFor streams every entry of the habit in no particular order. The
// underlying cursor is released when iteration stops.
func (l *GormLedger) EntriesFor(ctx context.Context, habitID string) iter.Seq2[models.HabitLog, error] {
	return func(yield func(models.HabitLog, error) bool) {
		tx := l.db.WithContext(ctx).Model(&models.HabitLog{}).Where("habit_id = ?", habitID)
		rows, errRows := tx.Rows()
		if errRows != nil {
			yield(models.HabitLog{}, persistenceError("query entries", errRows))
			return
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var entry models.HabitLog
			if errScan := tx.ScanRows(rows, &entry); errScan != nil {
				yield(models.HabitLog{}, persistenceError("scan entry", errScan))
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
		if errIter := rows.Err(); errIter != nil {
			yield(models.HabitLog{}, persistenceError("iterate entries", errIter))
		}
	}
}

// DeleteAllFor removes every entry of the habit.
func (l *GormLedger) DeleteAllFor(ctx context.Context, habitID string) error {
	if errDelete := l.db.WithContext(ctx).Where("habit_id = ?", habitID).Delete(&models.HabitLog{}).Error; errDelete != nil {
		return persistenceError("delete entries", errDelete)
	}
	return nil
}
