package habits

import (
	"context"
	"fmt"
	"time"

	"github.com/personal-organizer/organizer/internal/analytics"
	"github.com/personal-organizer/organizer/internal/db"
	"github.com/personal-organizer/organizer/internal/models"
	"gorm.io/gorm"
)

// Reconciler recomputes a habit's cached aggregates from its ledger entries.
type Reconciler struct {
	db     *gorm.DB
	ledger Ledger
	now    func() time.Time
}

// NewReconciler constructs a reconciler. A nil now defaults to time.Now.
func NewReconciler(conn *gorm.DB, ledger Ledger, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{db: conn, ledger: ledger, now: now}
}

// Aggregates is the derived state of a habit at a point in time.
type Aggregates struct {
	CurrentStreak        int
	BestStreak           int
	WeeklyCompletionRate int
}

// Compute derives the aggregates for habit without persisting them.
func (r *Reconciler) Compute(ctx context.Context, habit *models.Habit) (Aggregates, error) {
	entries := make([]analytics.Entry, 0, 32)
	for entry, errEntry := range r.ledger.EntriesFor(ctx, habit.ID) {
		if errEntry != nil {
			return Aggregates{}, errEntry
		}
		entries = append(entries, analytics.Entry{Date: entry.Date, Completed: entry.IsCompleted})
	}

	now := r.now()
	current := analytics.CurrentStreak(entries, now)
	return Aggregates{
		CurrentStreak:        current,
		BestStreak:           max(habit.BestStreak, current),
		WeeklyCompletionRate: analytics.WeeklyCompletionRate(entries, now),
	}, nil
}

// Reconcile brings habit's aggregates in line with its ledger and persists
// them in one update, then reloads the stored best streak. habit is only
// modified when the update succeeds. When nothing changed no write is issued.
func (r *Reconciler) Reconcile(ctx context.Context, habit *models.Habit) error {
	if habit == nil {
		return fmt.Errorf("habits: nil habit")
	}
	agg, err := r.Compute(ctx, habit)
	if err != nil {
		return err
	}
	if agg.CurrentStreak == habit.CurrentStreak &&
		agg.BestStreak == habit.BestStreak &&
		agg.WeeklyCompletionRate == habit.WeeklyCompletionRate {
		return nil
	}

	conn := r.db.WithContext(ctx)
	updatedAt := r.now().UTC()
	res := conn.Model(&models.Habit{}).
		Where("id = ?", habit.ID).
		Updates(map[string]any{
			"current_streak":         agg.CurrentStreak,
			"weekly_completion_rate": agg.WeeklyCompletionRate,
			"best_streak":            gorm.Expr(db.GreatestIntExpr(conn, "best_streak"), agg.BestStreak),
			"updated_at":             updatedAt,
		})
	if res.Error != nil {
		return persistenceError("update aggregates", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrHabitNotFound
	}
	// The stored best may exceed agg.BestStreak when habit was a stale copy.
	var storedBest int
	if errRead := conn.Model(&models.Habit{}).Select("best_streak").Where("id = ?", habit.ID).Row().Scan(&storedBest); errRead != nil {
		return persistenceError("read best streak", errRead)
	}

	habit.CurrentStreak = agg.CurrentStreak
	habit.BestStreak = storedBest
	habit.WeeklyCompletionRate = agg.WeeklyCompletionRate
	habit.UpdatedAt = updatedAt
	return nil
}

// ReconcileAll reconciles every habit in place, stopping at the first error.
func (r *Reconciler) ReconcileAll(ctx context.Context, list []models.Habit) error {
	for i := range list {
		if errReconcile := r.Reconcile(ctx, &list[i]); errReconcile != nil {
			return errReconcile
		}
	}
	return nil
}
