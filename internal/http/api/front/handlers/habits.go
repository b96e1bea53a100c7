package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/personal-organizer/organizer/internal/habits"
	"github.com/personal-organizer/organizer/internal/models"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
	maxCategoryLength    = 50
)

// HabitHandler serves habit endpoints for the authenticated user.
type HabitHandler struct {
	svc *habits.Service
}

// NewHabitHandler constructs a HabitHandler.
func NewHabitHandler(svc *habits.Service) *HabitHandler {
	return &HabitHandler{svc: svc}
}

// habitRequest defines the request body for habit create and update.
type habitRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Frequency   *string `json:"frequency"`
	Status      *string `json:"status"`
}

// logRequest defines the optional body of log and unlog calls.
type logRequest struct {
	Date *string `json:"date"`
}

// List returns the user's habits.
func (h *HabitHandler) List(c *gin.Context) {
	filter := habits.ListFilter{
		Status:    models.HabitStatus(strings.TrimSpace(c.Query("status"))),
		Frequency: models.HabitFrequency(strings.TrimSpace(c.Query("frequency"))),
		Query:     c.Query("q"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		respondError(c, http.StatusBadRequest, "invalid status")
		return
	}
	if filter.Frequency != "" && !filter.Frequency.Valid() {
		respondError(c, http.StatusBadRequest, "invalid frequency")
		return
	}

	list, err := h.svc.List(c.Request.Context(), getUserID(c), filter)
	if err != nil {
		respondServiceError(c, err, "list habits failed")
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, habit := range list {
		out = append(out, formatHabit(habit))
	}
	respondList(c, out, len(out))
}

// Get returns one habit.
func (h *HabitHandler) Get(c *gin.Context) {
	habit, err := h.svc.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "get habit failed")
		return
	}
	respondOK(c, http.StatusOK, formatHabit(habit))
}

// Create creates a habit.
func (h *HabitHandler) Create(c *gin.Context) {
	var body habitRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Title == nil || strings.TrimSpace(*body.Title) == "" {
		respondError(c, http.StatusBadRequest, "title is required")
		return
	}
	in, msg := body.toUpdate()
	if msg != "" {
		respondError(c, http.StatusBadRequest, msg)
		return
	}

	create := habits.CreateInput{Title: *in.Title}
	if in.Description != nil {
		create.Description = *in.Description
	}
	if in.Category != nil {
		create.Category = *in.Category
	}
	if in.Frequency != nil {
		create.Frequency = *in.Frequency
	}
	if in.Status != nil {
		create.Status = *in.Status
	}
	habit, err := h.svc.Create(c.Request.Context(), getUserID(c), create)
	if err != nil {
		respondServiceError(c, err, "create habit failed")
		return
	}
	respondOK(c, http.StatusCreated, formatHabit(habit))
}

// Update changes habit fields.
func (h *HabitHandler) Update(c *gin.Context) {
	var body habitRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	in, msg := body.toUpdate()
	if msg != "" {
		respondError(c, http.StatusBadRequest, msg)
		return
	}
	if in.Empty() {
		respondError(c, http.StatusBadRequest, "no fields to update")
		return
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		respondError(c, http.StatusBadRequest, "title is required")
		return
	}

	habit, err := h.svc.Update(c.Request.Context(), getUserID(c), c.Param("id"), in)
	if err != nil {
		respondServiceError(c, err, "update habit failed")
		return
	}
	respondOK(c, http.StatusOK, formatHabit(habit))
}

// Delete removes a habit and its log.
func (h *HabitHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		respondServiceError(c, err, "delete habit failed")
		return
	}
	respondMessage(c, "habit deleted")
}

// Log marks the habit done for a day, today by default.
func (h *HabitHandler) Log(c *gin.Context) {
	rawDate, ok := requestDate(c)
	if !ok {
		return
	}
	entry, habit, err := h.svc.Log(c.Request.Context(), getUserID(c), c.Param("id"), rawDate)
	if err != nil {
		respondServiceError(c, err, "log habit failed")
		return
	}
	respondOK(c, http.StatusCreated, gin.H{
		"log":   formatHabitLog(entry),
		"habit": formatHabit(habit),
	})
}

// Unlog removes the completion of a day, today by default.
func (h *HabitHandler) Unlog(c *gin.Context) {
	rawDate, ok := requestDate(c)
	if !ok {
		return
	}
	habit, err := h.svc.Unlog(c.Request.Context(), getUserID(c), c.Param("id"), rawDate)
	if err != nil {
		respondServiceError(c, err, "unlog habit failed")
		return
	}
	respondOK(c, http.StatusOK, formatHabit(habit))
}

// Logs returns the habit's log entries, newest first.
func (h *HabitHandler) Logs(c *gin.Context) {
	entries, err := h.svc.Entries(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "list habit logs failed")
		return
	}
	out := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		out = append(out, formatHabitLog(entry))
	}
	respondList(c, out, len(out))
}

// requestDate reads the day from the JSON body or the date query parameter.
// A missing or blank value means today and is returned as nil.
func requestDate(c *gin.Context) (*string, bool) {
	var body logRequest
	if errBind := bindOptionalJSON(c, &body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return nil, false
	}
	raw := body.Date
	if raw == nil {
		if q, ok := c.GetQuery("date"); ok {
			raw = &q
		}
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, true
	}
	return raw, true
}

// toUpdate validates lengths and enums and converts the body.
func (r habitRequest) toUpdate() (habits.UpdateInput, string) {
	var in habits.UpdateInput
	if r.Title != nil {
		if tooLong(*r.Title, maxTitleLength) {
			return in, "title is too long"
		}
		in.Title = r.Title
	}
	if r.Description != nil {
		if tooLong(*r.Description, maxDescriptionLength) {
			return in, "description is too long"
		}
		in.Description = r.Description
	}
	if r.Category != nil {
		if tooLong(*r.Category, maxCategoryLength) {
			return in, "category is too long"
		}
		in.Category = r.Category
	}
	if r.Frequency != nil {
		freq := models.HabitFrequency(strings.TrimSpace(*r.Frequency))
		if !freq.Valid() {
			return in, "invalid frequency"
		}
		in.Frequency = &freq
	}
	if r.Status != nil {
		status := models.HabitStatus(strings.TrimSpace(*r.Status))
		if !status.Valid() {
			return in, "invalid status"
		}
		in.Status = &status
	}
	return in, ""
}
