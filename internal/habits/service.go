package habits

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/personal-organizer/organizer/internal/calendar"
	"github.com/personal-organizer/organizer/internal/db"
	"github.com/personal-organizer/organizer/internal/models"
	"gorm.io/gorm"
)

// Service implements habit operations for a single owner at a time. Every
// habit returned by a read has been reconciled against its ledger.
type Service struct {
	db         *gorm.DB
	ledger     *GormLedger
	reconciler *Reconciler
	now        func() time.Time
}

// NewService constructs a habit service. A nil now defaults to time.Now.
func NewService(conn *gorm.DB, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	ledger := NewGormLedger(conn)
	return &Service{
		db:         conn,
		ledger:     ledger,
		reconciler: NewReconciler(conn, ledger, now),
		now:        now,
	}
}

// Reconciler exposes the service's reconciler.
func (s *Service) Reconciler() *Reconciler {
	return s.reconciler
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.now()
}

// ListFilter narrows List results. Empty fields match everything.
type ListFilter struct {
	Status    models.HabitStatus
	Frequency models.HabitFrequency
	Query     string
}

// CreateInput carries the fields of a new habit.
type CreateInput struct {
	Title       string
	Description string
	Category    string
	Frequency   models.HabitFrequency
	Status      models.HabitStatus
}

// UpdateInput carries optional habit field changes.
type UpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Frequency   *models.HabitFrequency
	Status      *models.HabitStatus
}

// Empty reports whether no field is set.
func (in UpdateInput) Empty() bool {
	return in.Title == nil && in.Description == nil && in.Category == nil && in.Frequency == nil && in.Status == nil
}

// List returns the owner's habits, newest first, reconciled.
func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]models.Habit, error) {
	q := s.db.WithContext(ctx).Model(&models.Habit{}).Where("user_id = ?", userID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Frequency != "" {
		q = q.Where("frequency = ?", filter.Frequency)
	}
	if term := strings.TrimSpace(filter.Query); term != "" {
		q = q.Where(db.CaseInsensitiveLikeExpr(s.db, "title"), db.ContainsPattern(s.db, term))
	}

	var list []models.Habit
	if errFind := q.Order("created_at DESC").Find(&list).Error; errFind != nil {
		return nil, persistenceError("list habits", errFind)
	}
	if errReconcile := s.reconciler.ReconcileAll(ctx, list); errReconcile != nil {
		return nil, errReconcile
	}
	return list, nil
}

// Get returns one reconciled habit of the owner.
func (s *Service) Get(ctx context.Context, userID, habitID string) (models.Habit, error) {
	habit, err := s.find(ctx, userID, habitID)
	if err != nil {
		return models.Habit{}, err
	}
	if errReconcile := s.reconciler.Reconcile(ctx, &habit); errReconcile != nil {
		return models.Habit{}, errReconcile
	}
	return habit, nil
}

// Create stores a new habit with zeroed aggregates.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (models.Habit, error) {
	if in.Frequency == "" {
		in.Frequency = models.HabitFrequencyDaily
	}
	if in.Status == "" {
		in.Status = models.HabitStatusActive
	}
	habit := models.Habit{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Frequency:   in.Frequency,
		Status:      in.Status,
	}
	if errCreate := s.db.WithContext(ctx).Create(&habit).Error; errCreate != nil {
		return models.Habit{}, persistenceError("create habit", errCreate)
	}
	return habit, nil
}

// Update applies the set fields of in and returns the reconciled habit.
func (s *Service) Update(ctx context.Context, userID, habitID string, in UpdateInput) (models.Habit, error) {
	habit, err := s.find(ctx, userID, habitID)
	if err != nil {
		return models.Habit{}, err
	}

	updates := map[string]any{"updated_at": s.now().UTC()}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		updates["category"] = strings.TrimSpace(*in.Category)
	}
	if in.Frequency != nil {
		updates["frequency"] = *in.Frequency
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if errUpdate := s.db.WithContext(ctx).Model(&habit).Updates(updates).Error; errUpdate != nil {
		return models.Habit{}, persistenceError("update habit", errUpdate)
	}
	return s.Get(ctx, userID, habitID)
}

// Delete removes the habit together with its ledger entries.
func (s *Service) Delete(ctx context.Context, userID, habitID string) error {
	habit, err := s.find(ctx, userID, habitID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errEntries := NewGormLedger(tx).DeleteAllFor(ctx, habit.ID); errEntries != nil {
			return errEntries
		}
		if errDelete := tx.Delete(&models.Habit{}, "id = ?", habit.ID).Error; errDelete != nil {
			return persistenceError("delete habit", errDelete)
		}
		return nil
	})
}

// Log records a completion for rawDate, or today when rawDate is nil, and
// returns the stored entry with the reconciled habit.
func (s *Service) Log(ctx context.Context, userID, habitID string, rawDate *string) (models.HabitLog, models.Habit, error) {
	habit, day, err := s.prepareEntry(ctx, userID, habitID, rawDate)
	if err != nil {
		return models.HabitLog{}, models.Habit{}, err
	}
	entry, errRecord := s.ledger.RecordCompletion(ctx, habit.ID, day)
	if errRecord != nil {
		return models.HabitLog{}, models.Habit{}, errRecord
	}
	if errReconcile := s.reconciler.Reconcile(ctx, &habit); errReconcile != nil {
		return models.HabitLog{}, models.Habit{}, errReconcile
	}
	return entry, habit, nil
}

// Unlog removes the completion for rawDate, or today when rawDate is nil, and
// returns the reconciled habit.
func (s *Service) Unlog(ctx context.Context, userID, habitID string, rawDate *string) (models.Habit, error) {
	habit, day, err := s.prepareEntry(ctx, userID, habitID, rawDate)
	if err != nil {
		return models.Habit{}, err
	}
	if errRemove := s.ledger.RemoveCompletion(ctx, habit.ID, day); errRemove != nil {
		return models.Habit{}, errRemove
	}
	if errReconcile := s.reconciler.Reconcile(ctx, &habit); errReconcile != nil {
		return models.Habit{}, errReconcile
	}
	return habit, nil
}

// Entries returns the habit's log entries, newest first.
func (s *Service) Entries(ctx context.Context, userID, habitID string) ([]models.HabitLog, error) {
	habit, err := s.find(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}
	out := make([]models.HabitLog, 0, 32)
	for entry, errEntry := range s.ledger.EntriesFor(ctx, habit.ID) {
		if errEntry != nil {
			return nil, errEntry
		}
		out = append(out, entry)
	}
	slices.SortFunc(out, func(a, b models.HabitLog) int { return b.Date.Compare(a.Date) })
	return out, nil
}

// prepareEntry validates the date then loads the owner's habit.
func (s *Service) prepareEntry(ctx context.Context, userID, habitID string, rawDate *string) (models.Habit, time.Time, error) {
	day, errDate := calendar.ParseOr(rawDate, s.now())
	if errDate != nil {
		return models.Habit{}, time.Time{}, errDate
	}
	habit, err := s.find(ctx, userID, habitID)
	if err != nil {
		return models.Habit{}, time.Time{}, err
	}
	return habit, day, nil
}

func (s *Service) find(ctx context.Context, userID, habitID string) (models.Habit, error) {
	var habit models.Habit
	errFind := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", habitID, userID).
		First(&habit).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return models.Habit{}, ErrHabitNotFound
		}
		return models.Habit{}, persistenceError(fmt.Sprintf("find habit %s", habitID), errFind)
	}
	return habit, nil
}
