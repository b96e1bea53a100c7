package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/personal-organizer/organizer/internal/calendar"
	"github.com/personal-organizer/organizer/internal/stats"
)

// StatsHandler serves the dashboard and statistics views.
type StatsHandler struct {
	svc *stats.Service
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(svc *stats.Service) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// Dashboard returns the landing summary.
func (h *StatsHandler) Dashboard(c *gin.Context) {
	dash, err := h.svc.Dashboard(c.Request.Context(), getUserID(c))
	if err != nil {
		respondServiceError(c, err, "load dashboard failed")
		return
	}
	today := make([]gin.H, 0, len(dash.HabitsToday))
	for _, item := range dash.HabitsToday {
		today = append(today, gin.H{
			"id":                     item.Habit.ID,
			"title":                  item.Habit.Title,
			"description":            item.Habit.Description,
			"category":               item.Habit.Category,
			"current_streak":         item.Habit.CurrentStreak,
			"best_streak":            item.Habit.BestStreak,
			"weekly_completion_rate": item.Habit.WeeklyCompletionRate,
			"is_completed_today":     item.CompletedToday,
		})
	}
	respondOK(c, http.StatusOK, gin.H{
		"completed_goals_count": dash.CompletedGoals,
		"best_streak":           dash.BestStreak,
		"habits_today":          today,
	})
}

// Overview returns goal progression, the completion heatmap and per-category stats.
func (h *StatsHandler) Overview(c *gin.Context) {
	overview, err := h.svc.Overview(c.Request.Context(), getUserID(c))
	if err != nil {
		respondServiceError(c, err, "load stats failed")
		return
	}

	progression := make([]gin.H, 0, len(overview.GoalProgression))
	for _, item := range overview.GoalProgression {
		progression = append(progression, gin.H{
			"id":                item.Goal.ID,
			"title":             item.Goal.Title,
			"category":          item.Category,
			"start_date":        calendar.Key(item.Goal.StartDate),
			"due_date":          calendar.Key(item.Goal.DueDate),
			"current_progress":  item.Goal.Progress,
			"expected_progress": item.Expected,
			"status":            item.Goal.Status,
			"priority":          item.Goal.Priority,
		})
	}
	heatmap := make([]gin.H, 0, len(overview.Heatmap))
	for _, day := range overview.Heatmap {
		heatmap = append(heatmap, gin.H{"date": day.Date, "count": day.Count})
	}
	goalCats := make(gin.H, len(overview.GoalCategories))
	for name, cat := range overview.GoalCategories {
		goalCats[name] = gin.H{
			"total":        cat.Total,
			"completed":    cat.Completed,
			"active":       cat.Active,
			"abandoned":    cat.Abandoned,
			"success_rate": cat.SuccessRate,
		}
	}
	habitCats := make(gin.H, len(overview.HabitCategories))
	for name, cat := range overview.HabitCategories {
		habitCats[name] = gin.H{
			"total":                     cat.Total,
			"active":                    cat.Active,
			"archived":                  cat.Archived,
			"average_streak":            cat.AverageStreak,
			"average_weekly_completion": cat.AverageWeeklyCompletion,
		}
	}

	respondOK(c, http.StatusOK, gin.H{
		"goal_progression": progression,
		"habit_heatmap":    heatmap,
		"category_stats":   gin.H{"goals": goalCats, "habits": habitCats},
	})
}
