package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/personal-organizer/organizer/internal/calendar"
	"github.com/personal-organizer/organizer/internal/goals"
	"github.com/personal-organizer/organizer/internal/models"
	log "github.com/sirupsen/logrus"
)

func formatUser(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"created_at": user.CreatedAt,
		"updated_at": user.UpdatedAt,
	}
}

func formatHabit(habit models.Habit) gin.H {
	return gin.H{
		"id":                     habit.ID,
		"user_id":                habit.UserID,
		"title":                  habit.Title,
		"description":            habit.Description,
		"category":               habit.Category,
		"frequency":              habit.Frequency,
		"status":                 habit.Status,
		"current_streak":         habit.CurrentStreak,
		"best_streak":            habit.BestStreak,
		"weekly_completion_rate": habit.WeeklyCompletionRate,
		"created_at":             habit.CreatedAt,
		"updated_at":             habit.UpdatedAt,
	}
}

func formatHabitLog(entry models.HabitLog) gin.H {
	return gin.H{
		"id":           entry.ID,
		"habit_id":     entry.HabitID,
		"date":         calendar.Key(entry.Date),
		"is_completed": entry.IsCompleted,
		"created_at":   entry.CreatedAt,
	}
}

func formatGoal(goal models.Goal) gin.H {
	return gin.H{
		"id":          goal.ID,
		"user_id":     goal.UserID,
		"title":       goal.Title,
		"description": goal.Description,
		"start_date":  calendar.Key(goal.StartDate),
		"due_date":    calendar.Key(goal.DueDate),
		"priority":    goal.Priority,
		"category":    goal.Category,
		"status":      goal.Status,
		"progress":    goal.Progress,
		"created_at":  goal.CreatedAt,
		"updated_at":  goal.UpdatedAt,
	}
}

func formatStep(step models.Step) gin.H {
	var due any
	if step.DueDate != nil {
		due = calendar.Key(*step.DueDate)
	}
	return gin.H{
		"id":           step.ID,
		"goal_id":      step.GoalID,
		"title":        step.Title,
		"due_date":     due,
		"is_completed": step.IsCompleted,
		"position":     step.Position,
		"created_at":   step.CreatedAt,
		"updated_at":   step.UpdatedAt,
	}
}

func formatSteps(steps []models.Step) []gin.H {
	out := make([]gin.H, 0, len(steps))
	for _, step := range steps {
		out = append(out, formatStep(step))
	}
	return out
}

func formatGoalWithSteps(bundle goals.GoalWithSteps) gin.H {
	out := formatGoal(bundle.Goal)
	out["steps"] = formatSteps(bundle.Steps)
	return out
}

func formatTemplate(tpl models.GoalTemplate) gin.H {
	steps, errSteps := goals.TemplateSteps(tpl)
	if errSteps != nil {
		log.WithError(errSteps).WithField("template_id", tpl.ID).Warn("template steps unreadable")
		steps = nil
	}
	if steps == nil {
		steps = []models.TemplateStep{}
	}
	return gin.H{
		"id":                 tpl.ID,
		"name":               tpl.Name,
		"description":        tpl.Description,
		"category":           tpl.Category,
		"priority":           tpl.Priority,
		"steps":              steps,
		"estimated_duration": tpl.EstimatedDuration,
		"is_system":          tpl.IsSystem,
		"created_by":         tpl.CreatedBy,
		"created_at":         tpl.CreatedAt,
		"updated_at":         tpl.UpdatedAt,
	}
}
