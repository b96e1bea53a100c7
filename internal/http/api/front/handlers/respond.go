package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/personal-organizer/organizer/internal/calendar"
	"github.com/personal-organizer/organizer/internal/goals"
	"github.com/personal-organizer/organizer/internal/habits"
	log "github.com/sirupsen/logrus"
)

// ContextUserIDKey is the gin context key holding the authenticated user id.
const ContextUserIDKey = "userID"

// requestError is a validation failure reported to the client verbatim.
type requestError struct {
	msg string
}

func (e requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return requestError{msg: msg}
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondList(c *gin.Context, data any, count int) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "count": count})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// respondServiceError maps domain errors onto status codes. Unknown errors are
// logged and reported as a generic failure.
func respondServiceError(c *gin.Context, err error, fallback string) {
	var reqErr requestError
	switch {
	case errors.As(err, &reqErr):
		respondError(c, http.StatusBadRequest, reqErr.msg)
	case errors.Is(err, calendar.ErrInvalidDate):
		respondError(c, http.StatusBadRequest, calendar.ErrInvalidDate.Error())
	case errors.Is(err, habits.ErrDuplicateCompletion):
		respondError(c, http.StatusBadRequest, habits.ErrDuplicateCompletion.Error())
	case errors.Is(err, goals.ErrInvalidRange):
		respondError(c, http.StatusBadRequest, goals.ErrInvalidRange.Error())
	case errors.Is(err, habits.ErrHabitNotFound):
		respondError(c, http.StatusNotFound, "habit not found")
	case errors.Is(err, habits.ErrEntryNotFound):
		respondError(c, http.StatusNotFound, "log entry not found")
	case errors.Is(err, goals.ErrNotFound), errors.Is(err, goals.ErrStepNotFound), errors.Is(err, goals.ErrTemplateNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, goals.ErrTemplateForbidden):
		respondError(c, http.StatusForbidden, goals.ErrTemplateForbidden.Error())
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error(fallback)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

func getUserID(c *gin.Context) string {
	value, ok := c.Get(ContextUserIDKey)
	if !ok {
		return ""
	}
	id, _ := value.(string)
	return id
}

// bindOptionalJSON binds the body when one is present. An empty body leaves
// dst untouched.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if errBind := c.ShouldBindJSON(dst); errBind != nil && !errors.Is(errBind, io.EOF) {
		return errBind
	}
	return nil
}

// tooLong reports whether the trimmed value exceeds limit runes.
func tooLong(value string, limit int) bool {
	return len([]rune(strings.TrimSpace(value))) > limit
}

// parseOptionalDate parses raw into a calendar day. Nil or blank input yields nil.
func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	day, errParse := calendar.Parse(*raw)
	if errParse != nil {
		return nil, errParse
	}
	return &day, nil
}
