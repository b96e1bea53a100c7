package goals

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/personal-organizer/organizer/internal/calendar"
	"github.com/personal-organizer/organizer/internal/db"
	"github.com/personal-organizer/organizer/internal/models"
)

var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	conn, err := db.Open(db.BuildSQLiteDSN(filepath.Join(t.TempDir(), "goals.db")))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return NewService(conn, func() time.Time { return fixedNow })
}

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	d, err := calendar.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func createGoal(t *testing.T, svc *Service, userID string) models.Goal {
	t.Helper()
	goal, err := svc.Create(context.Background(), userID, GoalInput{
		Title:     ptr("Run a marathon"),
		StartDate: ptr(day("2025-01-01")),
		DueDate:   ptr(day("2025-01-31")),
		Category:  ptr("Health"),
		Priority:  ptr(models.GoalPriorityHigh),
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return goal
}

func TestCreateRejectsInvertedRange(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), "user-1", GoalInput{
		Title:     ptr("Backwards"),
		StartDate: ptr(day("2025-02-01")),
		DueDate:   ptr(day("2025-01-01")),
	})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
}

func TestStepMutationsRecomputeProgress(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	goal := createGoal(t, svc, "user-1")

	var steps []models.Step
	for _, title := range []string{"Buy shoes", "Run 10k", "Run 21k"} {
		step, err := svc.AddStep(ctx, "user-1", goal.ID, StepInput{Title: ptr(title)})
		if err != nil {
			t.Fatalf("add step: %v", err)
		}
		steps = append(steps, step)
	}
	if steps[2].Position != 2 {
		t.Fatalf("expected appended position 2, got %d", steps[2].Position)
	}

	if _, err := svc.UpdateStep(ctx, "user-1", goal.ID, steps[0].ID, StepInput{IsCompleted: ptr(true)}); err != nil {
		t.Fatalf("complete step: %v", err)
	}
	reloaded, _ := svc.Get(ctx, "user-1", goal.ID)
	if reloaded.Progress != 33 {
		t.Fatalf("expected 33, got %d", reloaded.Progress)
	}

	if _, err := svc.UpdateStep(ctx, "user-1", goal.ID, steps[1].ID, StepInput{IsCompleted: ptr(true)}); err != nil {
		t.Fatalf("complete step: %v", err)
	}
	reloaded, _ = svc.Get(ctx, "user-1", goal.ID)
	if reloaded.Progress != 67 {
		t.Fatalf("expected 67, got %d", reloaded.Progress)
	}

	if err := svc.DeleteStep(ctx, "user-1", goal.ID, steps[2].ID); err != nil {
		t.Fatalf("delete step: %v", err)
	}
	reloaded, _ = svc.Get(ctx, "user-1", goal.ID)
	if reloaded.Progress != 100 {
		t.Fatalf("expected 100, got %d", reloaded.Progress)
	}

	if err := svc.DeleteStep(ctx, "user-1", goal.ID, steps[2].ID); !errors.Is(err, ErrStepNotFound) {
		t.Fatalf("expected step not found, got %v", err)
	}
}

func TestGoalOwnership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	goal := createGoal(t, svc, "user-1")

	if _, err := svc.Get(ctx, "user-2", goal.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.AddStep(ctx, "user-2", goal.ID, StepInput{Title: ptr("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on add step, got %v", err)
	}
	if err := svc.Delete(ctx, "user-2", goal.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestDeleteRemovesSteps(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	goal := createGoal(t, svc, "user-1")
	if _, err := svc.AddStep(ctx, "user-1", goal.ID, StepInput{Title: ptr("one")}); err != nil {
		t.Fatalf("add step: %v", err)
	}
	if err := svc.Delete(ctx, "user-1", goal.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var count int64
	svc.db.Model(&models.Step{}).Where("goal_id = ?", goal.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected steps removed, got %d", count)
	}
}

func TestDuplicateKeepsDurationAndOffsets(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	goal := createGoal(t, svc, "user-1")

	if _, err := svc.AddStep(ctx, "user-1", goal.ID, StepInput{Title: ptr("Week 1"), DueDate: ptr(day("2025-01-08")), IsCompleted: ptr(true)}); err != nil {
		t.Fatalf("add step: %v", err)
	}
	if _, err := svc.AddStep(ctx, "user-1", goal.ID, StepInput{Title: ptr("No date")}); err != nil {
		t.Fatalf("add step: %v", err)
	}

	copied, err := svc.Duplicate(ctx, "user-1", goal.ID, DuplicateInput{})
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if copied.Goal.Title != "Run a marathon (Copy)" || copied.Goal.Status != models.GoalStatusActive || copied.Goal.Progress != 0 {
		t.Fatalf("unexpected copy %+v", copied.Goal)
	}
	if calendar.Key(copied.Goal.StartDate) != "2025-03-10" || calendar.Key(copied.Goal.DueDate) != "2025-04-09" {
		t.Fatalf("unexpected dates %s..%s", calendar.Key(copied.Goal.StartDate), calendar.Key(copied.Goal.DueDate))
	}
	if len(copied.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(copied.Steps))
	}
	if copied.Steps[0].IsCompleted || calendar.Key(*copied.Steps[0].DueDate) != "2025-03-17" {
		t.Fatalf("unexpected first step %+v", copied.Steps[0])
	}
	if calendar.Key(*copied.Steps[1].DueDate) != "2025-03-10" {
		t.Fatalf("expected undated step at start, got %s", calendar.Key(*copied.Steps[1].DueDate))
	}

	custom, err := svc.Duplicate(ctx, "user-1", goal.ID, DuplicateInput{
		Title:     "Second marathon",
		StartDate: ptr(day("2025-06-01")),
		DueDate:   ptr(day("2025-06-30")),
	})
	if err != nil {
		t.Fatalf("duplicate with dates: %v", err)
	}
	if custom.Goal.Title != "Second marathon" || calendar.Key(*custom.Steps[0].DueDate) != "2025-06-08" {
		t.Fatalf("unexpected custom copy %+v", custom.Goal)
	}
}

func TestFromTemplateSpreadsSteps(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tpl, err := svc.CreateTemplate(ctx, "user-1", models.GoalTemplate{
		Name:              "Ship side project",
		Category:          "Development",
		Priority:          models.GoalPriorityLow,
		EstimatedDuration: 10,
	}, []models.TemplateStep{{Title: "Second", Order: 2}, {Title: "First", Order: 1}, {Title: "Third", Order: 3}})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	created, err := svc.FromTemplate(ctx, "user-1", tpl.ID, FromTemplateInput{Priority: models.GoalPriorityHigh})
	if err != nil {
		t.Fatalf("from template: %v", err)
	}
	if created.Goal.Title != "Ship side project" || created.Goal.Priority != models.GoalPriorityHigh {
		t.Fatalf("unexpected goal %+v", created.Goal)
	}
	if calendar.Key(created.Goal.DueDate) != "2025-03-20" {
		t.Fatalf("unexpected due date %s", calendar.Key(created.Goal.DueDate))
	}
	wantTitles := []string{"First", "Second", "Third"}
	wantDue := []string{"2025-03-13", "2025-03-16", "2025-03-19"}
	for i, step := range created.Steps {
		if step.Title != wantTitles[i] || calendar.Key(*step.DueDate) != wantDue[i] {
			t.Fatalf("step %d: got %s due %s", i, step.Title, calendar.Key(*step.DueDate))
		}
	}

	if _, err := svc.FromTemplate(ctx, "user-2", tpl.ID, FromTemplateInput{}); !errors.Is(err, ErrTemplateForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.FromTemplate(ctx, "user-1", "missing", FromTemplateInput{}); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected template not found, got %v", err)
	}
}

func TestFromTemplateCapsAtDueDate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	tpl, err := svc.CreateTemplate(ctx, "user-1", models.GoalTemplate{Name: "Sprint"}, []models.TemplateStep{
		{Title: "a"}, {Title: "b"}, {Title: "c"},
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	created, err := svc.FromTemplate(ctx, "user-1", tpl.ID, FromTemplateInput{
		StartDate: ptr(day("2025-03-10")),
		DueDate:   ptr(day("2025-03-11")),
	})
	if err != nil {
		t.Fatalf("from template: %v", err)
	}
	for _, step := range created.Steps[1:] {
		if calendar.Key(*step.DueDate) != "2025-03-11" {
			t.Fatalf("expected step capped at due date, got %s", calendar.Key(*step.DueDate))
		}
	}
}

func TestTemplatesListsSystemAndOwn(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateTemplate(ctx, "user-1", models.GoalTemplate{Name: "Mine"}, nil); err != nil {
		t.Fatalf("create template: %v", err)
	}
	if _, err := svc.CreateTemplate(ctx, "user-2", models.GoalTemplate{Name: "Theirs"}, nil); err != nil {
		t.Fatalf("create template: %v", err)
	}

	list, err := svc.Templates(ctx, "user-1")
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	if len(list) != 6 {
		t.Fatalf("expected 5 system templates plus one own, got %d", len(list))
	}
	if !list[0].IsSystem || list[len(list)-1].Name != "Mine" {
		t.Fatalf("expected system templates first")
	}
}
