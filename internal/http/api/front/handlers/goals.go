package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/personal-organizer/organizer/internal/goals"
	"github.com/personal-organizer/organizer/internal/models"
)

// GoalHandler serves goal and step endpoints for the authenticated user.
type GoalHandler struct {
	svc *goals.Service
}

// NewGoalHandler constructs a GoalHandler.
func NewGoalHandler(svc *goals.Service) *GoalHandler {
	return &GoalHandler{svc: svc}
}

// goalRequest defines the request body for goal create and update.
type goalRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StartDate   *string `json:"start_date"`
	DueDate     *string `json:"due_date"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category"`
	Status      *string `json:"status"`
	Progress    *int    `json:"progress"`
}

// stepRequest defines the request body for step create and update.
type stepRequest struct {
	Title       *string `json:"title"`
	DueDate     *string `json:"due_date"`
	IsCompleted *bool   `json:"is_completed"`
	Position    *int    `json:"position"`
}

// duplicateRequest defines the optional body of a goal duplication.
type duplicateRequest struct {
	Title     string  `json:"title"`
	StartDate *string `json:"start_date"`
	DueDate   *string `json:"due_date"`
}

// List returns the user's goals.
func (h *GoalHandler) List(c *gin.Context) {
	filter := goals.ListFilter{
		Status:   models.GoalStatus(strings.TrimSpace(c.Query("status"))),
		Priority: models.GoalPriority(strings.TrimSpace(c.Query("priority"))),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		respondError(c, http.StatusBadRequest, "invalid status")
		return
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		respondError(c, http.StatusBadRequest, "invalid priority")
		return
	}
	list, err := h.svc.List(c.Request.Context(), getUserID(c), filter)
	if err != nil {
		respondServiceError(c, err, "list goals failed")
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, goal := range list {
		out = append(out, formatGoal(goal))
	}
	respondList(c, out, len(out))
}

// Get returns one goal with its steps.
func (h *GoalHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	userID := getUserID(c)
	goal, err := h.svc.Get(ctx, userID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "get goal failed")
		return
	}
	steps, err := h.svc.Steps(ctx, userID, goal.ID)
	if err != nil {
		respondServiceError(c, err, "get goal failed")
		return
	}
	respondOK(c, http.StatusOK, formatGoalWithSteps(goals.GoalWithSteps{Goal: goal, Steps: steps}))
}

// Create creates a goal.
func (h *GoalHandler) Create(c *gin.Context) {
	var body goalRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Title == nil || strings.TrimSpace(*body.Title) == "" {
		respondError(c, http.StatusBadRequest, "title is required")
		return
	}
	if body.StartDate == nil || body.DueDate == nil {
		respondError(c, http.StatusBadRequest, "start_date and due_date are required")
		return
	}
	in, err := body.toInput()
	if err != nil {
		respondServiceError(c, err, "create goal failed")
		return
	}
	if in.StartDate == nil || in.DueDate == nil {
		respondError(c, http.StatusBadRequest, "start_date and due_date are required")
		return
	}
	goal, err := h.svc.Create(c.Request.Context(), getUserID(c), in)
	if err != nil {
		respondServiceError(c, err, "create goal failed")
		return
	}
	respondOK(c, http.StatusCreated, formatGoal(goal))
}

// Update changes goal fields.
func (h *GoalHandler) Update(c *gin.Context) {
	var body goalRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Title != nil && strings.TrimSpace(*body.Title) == "" {
		respondError(c, http.StatusBadRequest, "title is required")
		return
	}
	in, err := body.toInput()
	if err != nil {
		respondServiceError(c, err, "update goal failed")
		return
	}
	goal, err := h.svc.Update(c.Request.Context(), getUserID(c), c.Param("id"), in)
	if err != nil {
		respondServiceError(c, err, "update goal failed")
		return
	}
	respondOK(c, http.StatusOK, formatGoal(goal))
}

// Delete removes a goal and its steps.
func (h *GoalHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		respondServiceError(c, err, "delete goal failed")
		return
	}
	respondMessage(c, "goal deleted")
}

// Duplicate copies a goal and its steps.
func (h *GoalHandler) Duplicate(c *gin.Context) {
	var body duplicateRequest
	if errBind := bindOptionalJSON(c, &body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if tooLong(body.Title, maxTitleLength) {
		respondError(c, http.StatusBadRequest, "title is too long")
		return
	}
	start, errStart := parseOptionalDate(body.StartDate)
	if errStart != nil {
		respondServiceError(c, errStart, "duplicate goal failed")
		return
	}
	due, errDue := parseOptionalDate(body.DueDate)
	if errDue != nil {
		respondServiceError(c, errDue, "duplicate goal failed")
		return
	}
	out, err := h.svc.Duplicate(c.Request.Context(), getUserID(c), c.Param("id"), goals.DuplicateInput{
		Title:     body.Title,
		StartDate: start,
		DueDate:   due,
	})
	if err != nil {
		respondServiceError(c, err, "duplicate goal failed")
		return
	}
	respondOK(c, http.StatusCreated, formatGoalWithSteps(out))
}

// Steps lists the steps of a goal.
func (h *GoalHandler) Steps(c *gin.Context) {
	steps, err := h.svc.Steps(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "list steps failed")
		return
	}
	respondList(c, formatSteps(steps), len(steps))
}

// AddStep appends a step to a goal.
func (h *GoalHandler) AddStep(c *gin.Context) {
	var body stepRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Title == nil || strings.TrimSpace(*body.Title) == "" {
		respondError(c, http.StatusBadRequest, "title is required")
		return
	}
	in, err := body.toInput()
	if err != nil {
		respondServiceError(c, err, "create step failed")
		return
	}
	step, err := h.svc.AddStep(c.Request.Context(), getUserID(c), c.Param("id"), in)
	if err != nil {
		respondServiceError(c, err, "create step failed")
		return
	}
	respondOK(c, http.StatusCreated, formatStep(step))
}

// UpdateStep changes step fields.
func (h *GoalHandler) UpdateStep(c *gin.Context) {
	var body stepRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Title != nil && strings.TrimSpace(*body.Title) == "" {
		respondError(c, http.StatusBadRequest, "title is required")
		return
	}
	in, err := body.toInput()
	if err != nil {
		respondServiceError(c, err, "update step failed")
		return
	}
	step, err := h.svc.UpdateStep(c.Request.Context(), getUserID(c), c.Param("id"), c.Param("stepId"), in)
	if err != nil {
		respondServiceError(c, err, "update step failed")
		return
	}
	respondOK(c, http.StatusOK, formatStep(step))
}

// DeleteStep removes a step.
func (h *GoalHandler) DeleteStep(c *gin.Context) {
	if err := h.svc.DeleteStep(c.Request.Context(), getUserID(c), c.Param("id"), c.Param("stepId")); err != nil {
		respondServiceError(c, err, "delete step failed")
		return
	}
	respondMessage(c, "step deleted")
}

// toInput validates the body and converts it into a service input.
func (r goalRequest) toInput() (goals.GoalInput, error) {
	var in goals.GoalInput
	if r.Title != nil {
		if tooLong(*r.Title, maxTitleLength) {
			return in, badRequest("title is too long")
		}
		in.Title = r.Title
	}
	if r.Description != nil {
		if tooLong(*r.Description, maxDescriptionLength) {
			return in, badRequest("description is too long")
		}
		in.Description = r.Description
	}
	if r.Category != nil {
		if tooLong(*r.Category, maxCategoryLength) {
			return in, badRequest("category is too long")
		}
		in.Category = r.Category
	}
	if r.Priority != nil {
		priority := models.GoalPriority(strings.TrimSpace(*r.Priority))
		if !priority.Valid() {
			return in, badRequest("invalid priority")
		}
		in.Priority = &priority
	}
	if r.Status != nil {
		status := models.GoalStatus(strings.TrimSpace(*r.Status))
		if !status.Valid() {
			return in, badRequest("invalid status")
		}
		in.Status = &status
	}
	if r.Progress != nil {
		if *r.Progress < 0 || *r.Progress > 100 {
			return in, badRequest("progress must be between 0 and 100")
		}
		in.Progress = r.Progress
	}
	var err error
	if in.StartDate, err = parseOptionalDate(r.StartDate); err != nil {
		return in, err
	}
	if in.DueDate, err = parseOptionalDate(r.DueDate); err != nil {
		return in, err
	}
	return in, nil
}

func (r stepRequest) toInput() (goals.StepInput, error) {
	var in goals.StepInput
	if r.Title != nil {
		if tooLong(*r.Title, maxTitleLength) {
			return in, badRequest("title is too long")
		}
		in.Title = r.Title
	}
	if r.Position != nil && *r.Position < 0 {
		return in, badRequest("position must not be negative")
	}
	in.Position = r.Position
	in.IsCompleted = r.IsCompleted
	var err error
	if in.DueDate, err = parseOptionalDate(r.DueDate); err != nil {
		return in, err
	}
	return in, nil
}
