package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/personal-organizer/organizer/internal/goals"
	"github.com/personal-organizer/organizer/internal/models"
)

// TemplateHandler serves goal template endpoints.
type TemplateHandler struct {
	svc *goals.Service
}

// NewTemplateHandler constructs a TemplateHandler.
func NewTemplateHandler(svc *goals.Service) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// createTemplateRequest defines the request body for a user template.
type createTemplateRequest struct {
	Name              string                `json:"name"`
	Description       string                `json:"description"`
	Category          string                `json:"category"`
	Priority          string                `json:"priority"`
	EstimatedDuration int                   `json:"estimated_duration"`
	Steps             []models.TemplateStep `json:"steps"`
}

// fromTemplateRequest defines the optional overrides of a goal built from a template.
type fromTemplateRequest struct {
	Title     string  `json:"title"`
	Priority  string  `json:"priority"`
	Category  string  `json:"category"`
	StartDate *string `json:"start_date"`
	DueDate   *string `json:"due_date"`
}

// List returns system templates and the user's own.
func (h *TemplateHandler) List(c *gin.Context) {
	list, err := h.svc.Templates(c.Request.Context(), getUserID(c))
	if err != nil {
		respondServiceError(c, err, "list templates failed")
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, tpl := range list {
		out = append(out, formatTemplate(tpl))
	}
	respondList(c, out, len(out))
}

// Get returns one visible template.
func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, err := h.svc.Template(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "get template failed")
		return
	}
	respondOK(c, http.StatusOK, formatTemplate(tpl))
}

// Create stores a private template.
func (h *TemplateHandler) Create(c *gin.Context) {
	var body createTemplateRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	name := strings.TrimSpace(body.Name)
	switch {
	case name == "":
		respondError(c, http.StatusBadRequest, "name is required")
		return
	case tooLong(name, maxTitleLength):
		respondError(c, http.StatusBadRequest, "name is too long")
		return
	case tooLong(body.Description, maxDescriptionLength):
		respondError(c, http.StatusBadRequest, "description is too long")
		return
	case tooLong(body.Category, maxCategoryLength):
		respondError(c, http.StatusBadRequest, "category is too long")
		return
	case body.EstimatedDuration < 0:
		respondError(c, http.StatusBadRequest, "estimated_duration must not be negative")
		return
	}
	priority := models.GoalPriority(strings.TrimSpace(body.Priority))
	if priority != "" && !priority.Valid() {
		respondError(c, http.StatusBadRequest, "invalid priority")
		return
	}
	steps := make([]models.TemplateStep, 0, len(body.Steps))
	for _, step := range body.Steps {
		step.Title = strings.TrimSpace(step.Title)
		if step.Title == "" {
			respondError(c, http.StatusBadRequest, "step title is required")
			return
		}
		steps = append(steps, step)
	}

	tpl, err := h.svc.CreateTemplate(c.Request.Context(), getUserID(c), models.GoalTemplate{
		Name:              name,
		Description:       strings.TrimSpace(body.Description),
		Category:          strings.TrimSpace(body.Category),
		Priority:          priority,
		EstimatedDuration: body.EstimatedDuration,
	}, steps)
	if err != nil {
		respondServiceError(c, err, "create template failed")
		return
	}
	respondOK(c, http.StatusCreated, formatTemplate(tpl))
}

// CreateGoal instantiates a goal with steps from a template.
func (h *TemplateHandler) CreateGoal(c *gin.Context) {
	var body fromTemplateRequest
	if errBind := bindOptionalJSON(c, &body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if tooLong(body.Title, maxTitleLength) {
		respondError(c, http.StatusBadRequest, "title is too long")
		return
	}
	if tooLong(body.Category, maxCategoryLength) {
		respondError(c, http.StatusBadRequest, "category is too long")
		return
	}
	priority := models.GoalPriority(strings.TrimSpace(body.Priority))
	if priority != "" && !priority.Valid() {
		respondError(c, http.StatusBadRequest, "invalid priority")
		return
	}
	start, errStart := parseOptionalDate(body.StartDate)
	if errStart != nil {
		respondServiceError(c, errStart, "create goal from template failed")
		return
	}
	due, errDue := parseOptionalDate(body.DueDate)
	if errDue != nil {
		respondServiceError(c, errDue, "create goal from template failed")
		return
	}

	out, err := h.svc.FromTemplate(c.Request.Context(), getUserID(c), c.Param("id"), goals.FromTemplateInput{
		Title:     strings.TrimSpace(body.Title),
		Priority:  priority,
		Category:  strings.TrimSpace(body.Category),
		StartDate: start,
		DueDate:   due,
	})
	if err != nil {
		respondServiceError(c, err, "create goal from template failed")
		return
	}
	respondOK(c, http.StatusCreated, formatGoalWithSteps(out))
}
