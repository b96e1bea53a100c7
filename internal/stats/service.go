package stats

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/personal-organizer/organizer/internal/analytics"
	"github.com/personal-organizer/organizer/internal/calendar"
	"github.com/personal-organizer/organizer/internal/habits"
	"github.com/personal-organizer/organizer/internal/models"
	"gorm.io/gorm"
)

// Uncategorized is the bucket for goals and habits without a category.
const Uncategorized = "Uncategorized"

// HeatmapDays is how far back the completion heatmap reaches.
const HeatmapDays = 365

// Service aggregates goals and habits into dashboard and overview views.
type Service struct {
	db     *gorm.DB
	habits *habits.Service
}

// NewService constructs a stats service on top of the habit service, whose
// clock and reconciler it shares.
func NewService(conn *gorm.DB, habitSvc *habits.Service) *Service {
	return &Service{db: conn, habits: habitSvc}
}

// TodayHabit is an active daily habit together with today's completion state.
type TodayHabit struct {
	Habit          models.Habit
	CompletedToday bool
}

// Dashboard is the landing summary for one user.
type Dashboard struct {
	CompletedGoals int64
	BestStreak     int
	HabitsToday    []TodayHabit
}

// GoalProgression compares actual against time-based expected progress.
type GoalProgression struct {
	Goal     models.Goal
	Category string
	Expected int
}

// HeatmapDay counts completions on one calendar day.
type HeatmapDay struct {
	Date  string
	Count int
}

// GoalCategory summarises the goals of one category.
type GoalCategory struct {
	Total       int
	Completed   int
	Active      int
	Abandoned   int
	SuccessRate int
}

// HabitCategory summarises the active habits of one category.
type HabitCategory struct {
	Total                   int
	Active                  int
	Archived                int
	AverageStreak           int
	AverageWeeklyCompletion int
}

// Overview is the statistics page payload.
type Overview struct {
	GoalProgression []GoalProgression
	Heatmap         []HeatmapDay
	GoalCategories  map[string]GoalCategory
	HabitCategories map[string]HabitCategory
}

// Dashboard builds the user's dashboard. Active habits are reconciled first so
// streaks reflect the current day.
func (s *Service) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	var out Dashboard
	errCount := s.db.WithContext(ctx).Model(&models.Goal{}).
		Where("user_id = ? AND status = ?", userID, models.GoalStatusCompleted).
		Count(&out.CompletedGoals).Error
	if errCount != nil {
		return Dashboard{}, fmt.Errorf("stats: count completed goals: %w", errCount)
	}

	active, errList := s.habits.List(ctx, userID, habits.ListFilter{Status: models.HabitStatusActive})
	if errList != nil {
		return Dashboard{}, errList
	}
	for _, habit := range active {
		out.BestStreak = max(out.BestStreak, habit.BestStreak)
	}

	done, errDone := s.completedOn(ctx, active, calendar.Day(s.habits.Now()))
	if errDone != nil {
		return Dashboard{}, errDone
	}
	out.HabitsToday = make([]TodayHabit, 0, len(active))
	for _, habit := range active {
		if habit.Frequency != models.HabitFrequencyDaily {
			continue
		}
		_, ok := done[habit.ID]
		out.HabitsToday = append(out.HabitsToday, TodayHabit{Habit: habit, CompletedToday: ok})
	}
	return out, nil
}

func (s *Service) completedOn(ctx context.Context, list []models.Habit, day time.Time) (map[string]struct{}, error) {
	done := make(map[string]struct{}, len(list))
	if len(list) == 0 {
		return done, nil
	}
	ids := make([]string, 0, len(list))
	for _, habit := range list {
		ids = append(ids, habit.ID)
	}
	var hits []string
	errPluck := s.db.WithContext(ctx).Model(&models.HabitLog{}).
		Where("habit_id IN ? AND date = ? AND is_completed = ?", ids, day, true).
		Pluck("habit_id", &hits).Error
	if errPluck != nil {
		return nil, fmt.Errorf("stats: load today's logs: %w", errPluck)
	}
	for _, id := range hits {
		done[id] = struct{}{}
	}
	return done, nil
}

// Overview builds the statistics overview for the user.
func (s *Service) Overview(ctx context.Context, userID string) (Overview, error) {
	now := s.habits.Now()

	var goalList []models.Goal
	errGoals := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("due_date ASC").
		Find(&goalList).Error
	if errGoals != nil {
		return Overview{}, fmt.Errorf("stats: load goals: %w", errGoals)
	}

	activeHabits, errHabits := s.habits.List(ctx, userID, habits.ListFilter{Status: models.HabitStatusActive})
	if errHabits != nil {
		return Overview{}, errHabits
	}

	heatmap, errHeatmap := s.heatmap(ctx, userID, now)
	if errHeatmap != nil {
		return Overview{}, errHeatmap
	}

	return Overview{
		GoalProgression: goalProgression(goalList, now),
		Heatmap:         heatmap,
		GoalCategories:  goalCategories(goalList),
		HabitCategories: habitCategories(activeHabits),
	}, nil
}

func goalProgression(list []models.Goal, now time.Time) []GoalProgression {
	out := make([]GoalProgression, 0, len(list))
	for _, goal := range list {
		if goal.Status != models.GoalStatusActive && goal.Status != models.GoalStatusCompleted {
			continue
		}
		out = append(out, GoalProgression{
			Goal:     goal,
			Category: categoryOf(goal.Category),
			Expected: analytics.ExpectedProgress(goal.StartDate, goal.DueDate, now),
		})
	}
	return out
}

func (s *Service) heatmap(ctx context.Context, userID string, now time.Time) ([]HeatmapDay, error) {
	since := calendar.AddDays(now, -HeatmapDays)
	var dates []time.Time
	errPluck := s.db.WithContext(ctx).Model(&models.HabitLog{}).
		Joins("JOIN habits ON habits.id = habit_logs.habit_id").
		Where("habits.user_id = ? AND habits.status = ?", userID, models.HabitStatusActive).
		Where("habit_logs.is_completed = ? AND habit_logs.date >= ?", true, since).
		Pluck("habit_logs.date", &dates).Error
	if errPluck != nil {
		return nil, fmt.Errorf("stats: load heatmap: %w", errPluck)
	}

	counts := make(map[string]int)
	for _, date := range dates {
		counts[calendar.Key(date)]++
	}
	out := make([]HeatmapDay, 0, len(counts))
	for key, count := range counts {
		out = append(out, HeatmapDay{Date: key, Count: count})
	}
	slices.SortFunc(out, func(a, b HeatmapDay) int { return strings.Compare(a.Date, b.Date) })
	return out, nil
}

func goalCategories(list []models.Goal) map[string]GoalCategory {
	out := make(map[string]GoalCategory)
	for _, goal := range list {
		key := categoryOf(goal.Category)
		cat := out[key]
		cat.Total++
		switch goal.Status {
		case models.GoalStatusCompleted:
			cat.Completed++
		case models.GoalStatusActive:
			cat.Active++
		case models.GoalStatusAbandoned:
			cat.Abandoned++
		}
		out[key] = cat
	}
	for key, cat := range out {
		cat.SuccessRate = analytics.Percent(cat.Completed, cat.Total)
		out[key] = cat
	}
	return out
}

func habitCategories(list []models.Habit) map[string]HabitCategory {
	out := make(map[string]HabitCategory)
	streaks := make(map[string][]int)
	rates := make(map[string][]int)
	for _, habit := range list {
		key := categoryOf(habit.Category)
		cat := out[key]
		cat.Total++
		switch habit.Status {
		case models.HabitStatusActive:
			cat.Active++
		case models.HabitStatusArchived:
			cat.Archived++
		}
		out[key] = cat
		streaks[key] = append(streaks[key], habit.CurrentStreak)
		rates[key] = append(rates[key], habit.WeeklyCompletionRate)
	}
	for key, cat := range out {
		cat.AverageStreak = analytics.RoundedMean(streaks[key])
		cat.AverageWeeklyCompletion = analytics.RoundedMean(rates[key])
		out[key] = cat
	}
	return out
}

func categoryOf(raw string) string {
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		return trimmed
	}
	return Uncategorized
}
