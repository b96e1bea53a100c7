package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/personal-organizer/organizer/internal/calendar"
	"github.com/personal-organizer/organizer/internal/goals"
	"github.com/personal-organizer/organizer/internal/habits"
)

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{password: "Ab1", ok: false},
		{password: "abcdef1", ok: false},
		{password: "ABCDEFG", ok: false},
		{password: "Abcdef1", ok: true},
	}
	for _, tc := range cases {
		if got := validatePassword(tc.password) == ""; got != tc.ok {
			t.Fatalf("%q: expected ok=%v, got %v", tc.password, tc.ok, got)
		}
	}
}

func TestRespondServiceErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		want int
	}{
		{err: badRequest("title is too long"), want: http.StatusBadRequest},
		{err: fmt.Errorf("parse: %w", calendar.ErrInvalidDate), want: http.StatusBadRequest},
		{err: habits.ErrDuplicateCompletion, want: http.StatusBadRequest},
		{err: goals.ErrInvalidRange, want: http.StatusBadRequest},
		{err: habits.ErrHabitNotFound, want: http.StatusNotFound},
		{err: goals.ErrStepNotFound, want: http.StatusNotFound},
		{err: goals.ErrTemplateForbidden, want: http.StatusForbidden},
		{err: errors.New("disk on fire"), want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		respondServiceError(c, tc.err, "failed")
		if rec.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}

func TestParseOptionalDate(t *testing.T) {
	blank := "  "
	if day, err := parseOptionalDate(&blank); err != nil || day != nil {
		t.Fatalf("expected nil for blank input, got %v (%v)", day, err)
	}
	raw := "2025-03-10T23:30:00Z"
	day, err := parseOptionalDate(&raw)
	if err != nil || day == nil || calendar.Key(*day) != "2025-03-10" {
		t.Fatalf("unexpected parse result %v (%v)", day, err)
	}
	bad := "10/03/2025"
	if _, err := parseOptionalDate(&bad); !errors.Is(err, calendar.ErrInvalidDate) {
		t.Fatalf("expected invalid date, got %v", err)
	}
}
