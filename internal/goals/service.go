package goals

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/personal-organizer/organizer/internal/analytics"
	"github.com/personal-organizer/organizer/internal/calendar"
	"github.com/personal-organizer/organizer/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service implements goal, step and template operations scoped to an owner.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService constructs a goal service. A nil now defaults to time.Now.
func NewService(conn *gorm.DB, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{db: conn, now: now}
}

// ListFilter narrows List results. Empty fields match everything.
type ListFilter struct {
	Status   models.GoalStatus
	Priority models.GoalPriority
}

// GoalInput carries goal fields. Nil fields are left unchanged on update and
// defaulted on create.
type GoalInput struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	DueDate     *time.Time
	Priority    *models.GoalPriority
	Category    *string
	Status      *models.GoalStatus
	Progress    *int
}

// StepInput carries step fields. Nil fields are left unchanged on update.
type StepInput struct {
	Title       *string
	DueDate     *time.Time
	IsCompleted *bool
	Position    *int
}

// DuplicateInput overrides fields of a duplicated goal.
type DuplicateInput struct {
	Title     string
	StartDate *time.Time
	DueDate   *time.Time
}

// FromTemplateInput overrides fields of a goal created from a template.
type FromTemplateInput struct {
	Title     string
	Priority  models.GoalPriority
	Category  string
	StartDate *time.Time
	DueDate   *time.Time
}

// GoalWithSteps bundles a goal and its ordered steps.
type GoalWithSteps struct {
	Goal  models.Goal
	Steps []models.Step
}

// List returns the owner's goals, newest first.
func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]models.Goal, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	var list []models.Goal
	if errFind := q.Order("created_at DESC").Find(&list).Error; errFind != nil {
		return nil, fmt.Errorf("goals: list: %w", errFind)
	}
	return list, nil
}

// Get returns one goal of the owner.
func (s *Service) Get(ctx context.Context, userID, goalID string) (models.Goal, error) {
	return s.find(ctx, s.db, userID, goalID)
}

// Create stores a new goal. Title, StartDate and DueDate are required.
func (s *Service) Create(ctx context.Context, userID string, in GoalInput) (models.Goal, error) {
	if in.Title == nil || in.StartDate == nil || in.DueDate == nil {
		return models.Goal{}, fmt.Errorf("goals: title, start date and due date are required")
	}
	goal := models.Goal{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     strings.TrimSpace(*in.Title),
		StartDate: calendar.Day(*in.StartDate),
		DueDate:   calendar.Day(*in.DueDate),
		Priority:  models.GoalPriorityMedium,
		Status:    models.GoalStatusActive,
	}
	if in.Description != nil {
		goal.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		goal.Category = strings.TrimSpace(*in.Category)
	}
	if in.Priority != nil {
		goal.Priority = *in.Priority
	}
	if in.Status != nil {
		goal.Status = *in.Status
	}
	if in.Progress != nil {
		goal.Progress = *in.Progress
	}
	if goal.DueDate.Before(goal.StartDate) {
		return models.Goal{}, ErrInvalidRange
	}
	if errCreate := s.db.WithContext(ctx).Create(&goal).Error; errCreate != nil {
		return models.Goal{}, fmt.Errorf("goals: create: %w", errCreate)
	}
	return goal, nil
}

// Update applies the set fields of in.
func (s *Service) Update(ctx context.Context, userID, goalID string, in GoalInput) (models.Goal, error) {
	goal, err := s.find(ctx, s.db, userID, goalID)
	if err != nil {
		return models.Goal{}, err
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
	if in.Priority != nil {
		updates["priority"] = *in.Priority
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.Progress != nil {
		updates["progress"] = *in.Progress
	}
	start, due := goal.StartDate, goal.DueDate
	if in.StartDate != nil {
		start = calendar.Day(*in.StartDate)
		updates["start_date"] = start
	}
	if in.DueDate != nil {
		due = calendar.Day(*in.DueDate)
		updates["due_date"] = due
	}
	if due.Before(start) {
		return models.Goal{}, ErrInvalidRange
	}

	if errUpdate := s.db.WithContext(ctx).Model(&goal).Updates(updates).Error; errUpdate != nil {
		return models.Goal{}, fmt.Errorf("goals: update: %w", errUpdate)
	}
	return s.find(ctx, s.db, userID, goalID)
}

// Delete removes the goal and its steps.
func (s *Service) Delete(ctx context.Context, userID, goalID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		goal, err := s.find(ctx, tx, userID, goalID)
		if err != nil {
			return err
		}
		if errSteps := tx.Where("goal_id = ?", goal.ID).Delete(&models.Step{}).Error; errSteps != nil {
			return fmt.Errorf("goals: delete steps: %w", errSteps)
		}
		if errDelete := tx.Delete(&models.Goal{}, "id = ?", goal.ID).Error; errDelete != nil {
			return fmt.Errorf("goals: delete: %w", errDelete)
		}
		return nil
	})
}

// Steps returns the goal's steps ordered by position then creation.
func (s *Service) Steps(ctx context.Context, userID, goalID string) ([]models.Step, error) {
	goal, err := s.find(ctx, s.db, userID, goalID)
	if err != nil {
		return nil, err
	}
	return s.loadSteps(ctx, s.db, goal.ID)
}

// AddStep appends a step to the goal and recomputes its progress.
func (s *Service) AddStep(ctx context.Context, userID, goalID string, in StepInput) (models.Step, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return models.Step{}, fmt.Errorf("goals: step title is required")
	}
	var step models.Step
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		goal, err := s.find(ctx, tx, userID, goalID)
		if err != nil {
			return err
		}
		position := 0
		if in.Position != nil {
			position = *in.Position
		} else {
			var maxPosition sql.NullInt64
			if errMax := tx.Model(&models.Step{}).Where("goal_id = ?", goal.ID).
				Select("MAX(position)").Row().Scan(&maxPosition); errMax != nil {
				return fmt.Errorf("goals: next position: %w", errMax)
			}
			if maxPosition.Valid {
				position = int(maxPosition.Int64) + 1
			}
		}
		step = models.Step{
			ID:       uuid.NewString(),
			GoalID:   goal.ID,
			Title:    strings.TrimSpace(*in.Title),
			Position: position,
		}
		if in.DueDate != nil {
			due := calendar.Day(*in.DueDate)
			step.DueDate = &due
		}
		if in.IsCompleted != nil {
			step.IsCompleted = *in.IsCompleted
		}
		if errCreate := tx.Create(&step).Error; errCreate != nil {
			return fmt.Errorf("goals: create step: %w", errCreate)
		}
		return s.recomputeProgress(ctx, tx, goal.ID)
	})
	if errTx != nil {
		return models.Step{}, errTx
	}
	return step, nil
}

// UpdateStep applies the set fields of in and recomputes the goal progress.
func (s *Service) UpdateStep(ctx context.Context, userID, goalID, stepID string, in StepInput) (models.Step, error) {
	var step models.Step
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		goal, err := s.find(ctx, tx, userID, goalID)
		if err != nil {
			return err
		}
		if step, err = s.findStep(ctx, tx, goal.ID, stepID); err != nil {
			return err
		}
		updates := map[string]any{"updated_at": s.now().UTC()}
		if in.Title != nil {
			updates["title"] = strings.TrimSpace(*in.Title)
		}
		if in.DueDate != nil {
			updates["due_date"] = calendar.Day(*in.DueDate)
		}
		if in.IsCompleted != nil {
			updates["is_completed"] = *in.IsCompleted
		}
		if in.Position != nil {
			updates["position"] = *in.Position
		}
		if errUpdate := tx.Model(&step).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("goals: update step: %w", errUpdate)
		}
		if step, err = s.findStep(ctx, tx, goal.ID, stepID); err != nil {
			return err
		}
		return s.recomputeProgress(ctx, tx, goal.ID)
	})
	if errTx != nil {
		return models.Step{}, errTx
	}
	return step, nil
}

// DeleteStep removes a step and recomputes the goal progress.
func (s *Service) DeleteStep(ctx context.Context, userID, goalID, stepID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		goal, err := s.find(ctx, tx, userID, goalID)
		if err != nil {
			return err
		}
		res := tx.Where("id = ? AND goal_id = ?", stepID, goal.ID).Delete(&models.Step{})
		if res.Error != nil {
			return fmt.Errorf("goals: delete step: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStepNotFound
		}
		return s.recomputeProgress(ctx, tx, goal.ID)
	})
}

// Duplicate copies a goal and its steps. The copy is active with no progress
// and uncompleted steps. Without both dates the copy starts today and keeps
// the original duration; step due dates keep their offset from the start.
func (s *Service) Duplicate(ctx context.Context, userID, goalID string, in DuplicateInput) (GoalWithSteps, error) {
	var out GoalWithSteps
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		original, err := s.find(ctx, tx, userID, goalID)
		if err != nil {
			return err
		}
		steps, err := s.loadSteps(ctx, tx, original.ID)
		if err != nil {
			return err
		}

		var start, due time.Time
		if in.StartDate != nil && in.DueDate != nil {
			start, due = calendar.Day(*in.StartDate), calendar.Day(*in.DueDate)
		} else {
			start = calendar.Day(s.now())
			due = calendar.AddDays(start, calendar.DaysBetween(original.StartDate, original.DueDate))
		}
		if due.Before(start) {
			return ErrInvalidRange
		}

		title := strings.TrimSpace(in.Title)
		if title == "" {
			title = original.Title + " (Copy)"
		}
		goal := models.Goal{
			ID:          uuid.NewString(),
			UserID:      userID,
			Title:       title,
			Description: original.Description,
			StartDate:   start,
			DueDate:     due,
			Priority:    original.Priority,
			Category:    original.Category,
			Status:      models.GoalStatusActive,
		}
		if errCreate := tx.Create(&goal).Error; errCreate != nil {
			return fmt.Errorf("goals: duplicate: %w", errCreate)
		}

		copies := make([]models.Step, 0, len(steps))
		for _, step := range steps {
			reference := original.StartDate
			if step.DueDate != nil {
				reference = *step.DueDate
			}
			stepDue := calendar.AddDays(start, calendar.DaysBetween(original.StartDate, reference))
			copies = append(copies, models.Step{
				ID:       uuid.NewString(),
				GoalID:   goal.ID,
				Title:    step.Title,
				DueDate:  &stepDue,
				Position: step.Position,
			})
		}
		if len(copies) > 0 {
			if errCreate := tx.Create(&copies).Error; errCreate != nil {
				return fmt.Errorf("goals: duplicate steps: %w", errCreate)
			}
		}
		out = GoalWithSteps{Goal: goal, Steps: copies}
		return nil
	})
	if errTx != nil {
		return GoalWithSteps{}, errTx
	}
	return out, nil
}

// Templates lists system templates and the owner's templates, system first.
func (s *Service) Templates(ctx context.Context, userID string) ([]models.GoalTemplate, error) {
	var list []models.GoalTemplate
	errFind := s.db.WithContext(ctx).
		Where("is_system = ? OR created_by = ?", true, userID).
		Order("is_system DESC, created_at DESC").
		Find(&list).Error
	if errFind != nil {
		return nil, fmt.Errorf("goals: list templates: %w", errFind)
	}
	return list, nil
}

// Template returns a template visible to the owner.
func (s *Service) Template(ctx context.Context, userID, templateID string) (models.GoalTemplate, error) {
	var tpl models.GoalTemplate
	if errFind := s.db.WithContext(ctx).First(&tpl, "id = ?", templateID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return models.GoalTemplate{}, ErrTemplateNotFound
		}
		return models.GoalTemplate{}, fmt.Errorf("goals: find template: %w", errFind)
	}
	if !tpl.IsSystem && (tpl.CreatedBy == nil || *tpl.CreatedBy != userID) {
		return models.GoalTemplate{}, ErrTemplateForbidden
	}
	return tpl, nil
}

// CreateTemplate stores a private template owned by userID.
func (s *Service) CreateTemplate(ctx context.Context, userID string, tpl models.GoalTemplate, steps []models.TemplateStep) (models.GoalTemplate, error) {
	for i := range steps {
		if steps[i].Order == 0 {
			steps[i].Order = i + 1
		}
	}
	payload, errMarshal := json.Marshal(steps)
	if errMarshal != nil {
		return models.GoalTemplate{}, fmt.Errorf("goals: marshal template steps: %w", errMarshal)
	}
	owner := userID
	tpl.ID = uuid.NewString()
	tpl.Steps = datatypes.JSON(payload)
	tpl.IsSystem = false
	tpl.CreatedBy = &owner
	if tpl.Priority == "" {
		tpl.Priority = models.GoalPriorityMedium
	}
	if tpl.EstimatedDuration <= 0 {
		tpl.EstimatedDuration = defaultEstimatedDuration
	}
	if errCreate := s.db.WithContext(ctx).Create(&tpl).Error; errCreate != nil {
		return models.GoalTemplate{}, fmt.Errorf("goals: create template: %w", errCreate)
	}
	return tpl, nil
}

const defaultEstimatedDuration = 30

// TemplateSteps decodes the template's steps sorted by order.
func TemplateSteps(tpl models.GoalTemplate) ([]models.TemplateStep, error) {
	var steps []models.TemplateStep
	if len(tpl.Steps) > 0 {
		if errUnmarshal := json.Unmarshal(tpl.Steps, &steps); errUnmarshal != nil {
			return nil, fmt.Errorf("goals: decode template steps: %w", errUnmarshal)
		}
	}
	slices.SortStableFunc(steps, func(a, b models.TemplateStep) int { return a.Order - b.Order })
	return steps, nil
}

// FromTemplate creates a goal and its steps from a template. Without both
// dates the goal starts today and lasts the template's estimated duration.
// Step due dates are spread evenly and never pass the goal due date.
func (s *Service) FromTemplate(ctx context.Context, userID, templateID string, in FromTemplateInput) (GoalWithSteps, error) {
	tpl, err := s.Template(ctx, userID, templateID)
	if err != nil {
		return GoalWithSteps{}, err
	}
	blueprint, err := TemplateSteps(tpl)
	if err != nil {
		return GoalWithSteps{}, err
	}

	var start, due time.Time
	if in.StartDate != nil && in.DueDate != nil {
		start, due = calendar.Day(*in.StartDate), calendar.Day(*in.DueDate)
	} else {
		duration := tpl.EstimatedDuration
		if duration <= 0 {
			duration = defaultEstimatedDuration
		}
		start = calendar.Day(s.now())
		due = calendar.AddDays(start, duration)
	}
	if due.Before(start) {
		return GoalWithSteps{}, ErrInvalidRange
	}

	goal := models.Goal{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       firstNonEmpty(in.Title, tpl.Name),
		Description: tpl.Description,
		StartDate:   start,
		DueDate:     due,
		Priority:    tpl.Priority,
		Category:    firstNonEmpty(in.Category, tpl.Category),
		Status:      models.GoalStatusActive,
	}
	if in.Priority != "" {
		goal.Priority = in.Priority
	}

	steps := make([]models.Step, 0, len(blueprint))
	if len(blueprint) > 0 {
		totalDays := max(1, calendar.DaysBetween(start, due))
		daysPerStep := max(1, totalDays/len(blueprint))
		for i, item := range blueprint {
			stepDue := calendar.AddDays(start, daysPerStep*(i+1))
			if stepDue.After(due) {
				stepDue = due
			}
			steps = append(steps, models.Step{
				ID:       uuid.NewString(),
				GoalID:   goal.ID,
				Title:    item.Title,
				DueDate:  &stepDue,
				Position: i,
			})
		}
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&goal).Error; errCreate != nil {
			return fmt.Errorf("goals: create from template: %w", errCreate)
		}
		if len(steps) > 0 {
			if errSteps := tx.Create(&steps).Error; errSteps != nil {
				return fmt.Errorf("goals: create template steps: %w", errSteps)
			}
		}
		return nil
	})
	if errTx != nil {
		return GoalWithSteps{}, errTx
	}
	return GoalWithSteps{Goal: goal, Steps: steps}, nil
}

// recomputeProgress stores round(completed/total*100) on the goal.
func (s *Service) recomputeProgress(ctx context.Context, tx *gorm.DB, goalID string) error {
	var total, completed int64
	if errTotal := tx.WithContext(ctx).Model(&models.Step{}).Where("goal_id = ?", goalID).Count(&total).Error; errTotal != nil {
		return fmt.Errorf("goals: count steps: %w", errTotal)
	}
	if errDone := tx.WithContext(ctx).Model(&models.Step{}).Where("goal_id = ? AND is_completed = ?", goalID, true).Count(&completed).Error; errDone != nil {
		return fmt.Errorf("goals: count completed steps: %w", errDone)
	}
	progress := analytics.GoalProgress(int(completed), int(total))
	if errUpdate := tx.WithContext(ctx).Model(&models.Goal{}).Where("id = ?", goalID).
		Updates(map[string]any{"progress": progress, "updated_at": s.now().UTC()}).Error; errUpdate != nil {
		return fmt.Errorf("goals: update progress: %w", errUpdate)
	}
	return nil
}

func (s *Service) loadSteps(ctx context.Context, conn *gorm.DB, goalID string) ([]models.Step, error) {
	var steps []models.Step
	if errFind := conn.WithContext(ctx).Where("goal_id = ?", goalID).
		Order("position ASC, created_at ASC").Find(&steps).Error; errFind != nil {
		return nil, fmt.Errorf("goals: list steps: %w", errFind)
	}
	return steps, nil
}

func (s *Service) find(ctx context.Context, conn *gorm.DB, userID, goalID string) (models.Goal, error) {
	var goal models.Goal
	errFind := conn.WithContext(ctx).Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return models.Goal{}, ErrNotFound
		}
		return models.Goal{}, fmt.Errorf("goals: find: %w", errFind)
	}
	return goal, nil
}

func (s *Service) findStep(ctx context.Context, conn *gorm.DB, goalID, stepID string) (models.Step, error) {
	var step models.Step
	errFind := conn.WithContext(ctx).Where("id = ? AND goal_id = ?", stepID, goalID).First(&step).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return models.Step{}, ErrStepNotFound
		}
		return models.Step{}, fmt.Errorf("goals: find step: %w", errFind)
	}
	return step, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
