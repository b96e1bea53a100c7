package front

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/personal-organizer/organizer/internal/calendar"
	"github.com/personal-organizer/organizer/internal/config"
	"github.com/personal-organizer/organizer/internal/db"
	"github.com/personal-organizer/organizer/internal/ratelimit"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   int             `json:"count"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	now    time.Time
}

func newTestServer(t *testing.T, limiter *ratelimit.Manager) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open(db.BuildSQLiteDSN(filepath.Join(t.TempDir(), "front.db")))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	now := time.Now().UTC()
	engine := gin.New()
	RegisterFrontRoutes(engine, conn, config.JWTConfig{Secret: "test-secret", Expiry: time.Hour}, limiter, func() time.Time { return now })
	engine.NoRoute(NotFound)
	return &testServer{t: t, engine: engine, now: now}
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	var req *http.Request
	if reader != nil {
		req = httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var out envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			s.t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func (s *testServer) decode(raw json.RawMessage, dst any) {
	s.t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		s.t.Fatalf("decode data %s: %v", raw, err)
	}
}

// signup registers and logs in a user, returning the session token.
func (s *testServer) signup(name, email string) string {
	s.t.Helper()
	status, resp := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": name, "email": email, "password": "Secret1",
	})
	if status != http.StatusCreated {
		s.t.Fatalf("register %s: status %d (%s)", email, status, resp.Error)
	}
	status, resp = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "Secret1"})
	if status != http.StatusOK {
		s.t.Fatalf("login %s: status %d (%s)", email, status, resp.Error)
	}
	var data struct {
		Token string `json:"token"`
	}
	s.decode(resp.Data, &data)
	if data.Token == "" {
		s.t.Fatalf("expected token for %s", email)
	}
	return data.Token
}

type habitView struct {
	ID                   string `json:"id"`
	CurrentStreak        int    `json:"current_streak"`
	BestStreak           int    `json:"best_streak"`
	WeeklyCompletionRate int    `json:"weekly_completion_rate"`
}

type logResult struct {
	Log struct {
		ID          string `json:"id"`
		HabitID     string `json:"habit_id"`
		Date        string `json:"date"`
		IsCompleted bool   `json:"is_completed"`
	} `json:"log"`
	Habit habitView `json:"habit"`
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.signup("Ada", "ada@example.com")

	status, resp := srv.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Ada", "email": "ADA@example.com", "password": "Secret1",
	})
	if status != http.StatusBadRequest || resp.Error != "email already in use" {
		t.Fatalf("expected duplicate email rejection, got %d %q", status, resp.Error)
	}

	status, _ = srv.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Bob", "email": "bob@example.com", "password": "weakpass",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected weak password rejection, got %d", status)
	}

	_, wrongPassword := srv.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com", "password": "Wrong1"})
	status, unknown := srv.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "nobody@example.com", "password": "Secret1"})
	if status != http.StatusUnauthorized || wrongPassword.Error != unknown.Error {
		t.Fatalf("expected identical 401s, got %q vs %q (%d)", wrongPassword.Error, unknown.Error, status)
	}

	status, _ = srv.do(http.MethodGet, "/api/habits", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	status, _ = srv.do(http.MethodGet, "/api/habits", "not-a-token", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", status)
	}
}

func TestUpdateMe(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.signup("Ada", "ada@example.com")
	srv.signup("Bob", "bob@example.com")

	status, resp := srv.do(http.MethodPut, "/api/users/me", token, gin.H{"email": "bob@example.com"})
	if status != http.StatusBadRequest || resp.Error != "email already in use" {
		t.Fatalf("expected email conflict, got %d %q", status, resp.Error)
	}

	status, resp = srv.do(http.MethodPut, "/api/users/me", token, gin.H{"name": "Ada L.", "password": "Newpass2"})
	if status != http.StatusOK {
		t.Fatalf("update me: %d %q", status, resp.Error)
	}
	status, _ = srv.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com", "password": "Newpass2"})
	if status != http.StatusOK {
		t.Fatalf("expected login with new password, got %d", status)
	}

	status, resp = srv.do(http.MethodGet, "/api/users/me", token, nil)
	var me struct {
		Name string `json:"name"`
	}
	srv.decode(resp.Data, &me)
	if status != http.StatusOK || me.Name != "Ada L." {
		t.Fatalf("unexpected profile: %d %+v", status, me)
	}
}

func TestHabitLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.signup("Ada", "ada@example.com")
	other := srv.signup("Eve", "eve@example.com")

	status, resp := srv.do(http.MethodPost, "/api/habits", token, gin.H{"title": ""})
	if status != http.StatusBadRequest {
		t.Fatalf("expected missing title rejection, got %d", status)
	}

	status, resp = srv.do(http.MethodPost, "/api/habits", token, gin.H{"title": "Read", "category": "Mind"})
	if status != http.StatusCreated {
		t.Fatalf("create habit: %d %q", status, resp.Error)
	}
	var habit habitView
	srv.decode(resp.Data, &habit)
	base := "/api/habits/" + habit.ID

	var logged logResult
	status, resp = srv.do(http.MethodPost, base+"/log", token, nil)
	srv.decode(resp.Data, &logged)
	if status != http.StatusCreated || logged.Habit.CurrentStreak != 1 || logged.Habit.BestStreak != 1 || logged.Habit.WeeklyCompletionRate != 14 {
		t.Fatalf("unexpected state after first log: %d %+v", status, logged.Habit)
	}
	if logged.Log.ID == "" || logged.Log.HabitID != habit.ID || logged.Log.Date != calendar.Key(srv.now) || !logged.Log.IsCompleted {
		t.Fatalf("unexpected log entry: %+v", logged.Log)
	}

	status, resp = srv.do(http.MethodPost, base+"/log", token, nil)
	if status != http.StatusBadRequest || resp.Error != "habit already logged for this date" {
		t.Fatalf("expected duplicate rejection, got %d %q", status, resp.Error)
	}

	status, resp = srv.do(http.MethodPost, base+"/log", token, gin.H{"date": "not-a-date"})
	if status != http.StatusBadRequest || resp.Error != "invalid date format" {
		t.Fatalf("expected invalid date, got %d %q", status, resp.Error)
	}

	yesterday := calendar.Key(calendar.AddDays(srv.now, -1))
	status, resp = srv.do(http.MethodPost, base+"/log?date="+yesterday, token, nil)
	logged = logResult{}
	srv.decode(resp.Data, &logged)
	if status != http.StatusCreated || logged.Habit.CurrentStreak != 2 || logged.Habit.BestStreak != 2 || logged.Habit.WeeklyCompletionRate != 29 {
		t.Fatalf("unexpected state after yesterday: %d %+v", status, logged.Habit)
	}
	if logged.Log.Date != yesterday || !logged.Log.IsCompleted {
		t.Fatalf("unexpected log entry for yesterday: %+v", logged.Log)
	}

	status, resp = srv.do(http.MethodGet, base+"/logs", token, nil)
	var logs []struct {
		Date string `json:"date"`
	}
	srv.decode(resp.Data, &logs)
	if status != http.StatusOK || resp.Count != 2 || logs[0].Date != calendar.Key(srv.now) || logs[1].Date != yesterday {
		t.Fatalf("unexpected logs: %d %+v", status, logs)
	}

	status, _ = srv.do(http.MethodGet, base, other, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected other user to get 404, got %d", status)
	}
	status, _ = srv.do(http.MethodPost, base+"/log", other, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected other user log to get 404, got %d", status)
	}

	status, resp = srv.do(http.MethodGet, "/api/dashboard", token, nil)
	var dash struct {
		BestStreak  int `json:"best_streak"`
		HabitsToday []struct {
			ID               string `json:"id"`
			IsCompletedToday bool   `json:"is_completed_today"`
		} `json:"habits_today"`
	}
	srv.decode(resp.Data, &dash)
	if status != http.StatusOK || dash.BestStreak != 2 || len(dash.HabitsToday) != 1 || !dash.HabitsToday[0].IsCompletedToday {
		t.Fatalf("unexpected dashboard: %d %+v", status, dash)
	}

	status, resp = srv.do(http.MethodDelete, base+"/log", token, nil)
	srv.decode(resp.Data, &habit)
	if status != http.StatusOK || habit.CurrentStreak != 1 || habit.BestStreak != 2 || habit.WeeklyCompletionRate != 14 {
		t.Fatalf("unexpected state after unlog: %d %+v", status, habit)
	}

	status, resp = srv.do(http.MethodGet, "/api/stats", token, nil)
	var overview struct {
		Heatmap []struct {
			Date  string `json:"date"`
			Count int    `json:"count"`
		} `json:"habit_heatmap"`
		CategoryStats struct {
			Habits map[string]struct {
				Total int `json:"total"`
			} `json:"habits"`
		} `json:"category_stats"`
	}
	srv.decode(resp.Data, &overview)
	if status != http.StatusOK || len(overview.Heatmap) != 1 || overview.Heatmap[0].Date != yesterday {
		t.Fatalf("unexpected heatmap: %d %+v", status, overview.Heatmap)
	}
	if overview.CategoryStats.Habits["Mind"].Total != 1 {
		t.Fatalf("unexpected habit categories: %+v", overview.CategoryStats.Habits)
	}

	status, _ = srv.do(http.MethodPut, base, token, gin.H{})
	if status != http.StatusBadRequest {
		t.Fatalf("expected empty update rejection, got %d", status)
	}
	status, _ = srv.do(http.MethodPut, base, token, gin.H{"frequency": "hourly"})
	if status != http.StatusBadRequest {
		t.Fatalf("expected invalid frequency rejection, got %d", status)
	}

	status, _ = srv.do(http.MethodDelete, base, token, nil)
	if status != http.StatusOK {
		t.Fatalf("delete habit: %d", status)
	}
	status, _ = srv.do(http.MethodGet, base, token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
}

func TestGoalsAndTemplates(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.signup("Ada", "ada@example.com")
	other := srv.signup("Eve", "eve@example.com")

	status, resp := srv.do(http.MethodPost, "/api/goals", token, gin.H{
		"title": "Ship", "start_date": "2025-03-10", "due_date": "2025-03-01",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected inverted range rejection, got %d %q", status, resp.Error)
	}

	status, resp = srv.do(http.MethodPost, "/api/goals", token, gin.H{
		"title": "Ship", "start_date": "2025-03-10", "due_date": "2025-04-09", "priority": "high",
	})
	if status != http.StatusCreated {
		t.Fatalf("create goal: %d %q", status, resp.Error)
	}
	var goal struct {
		ID       string `json:"id"`
		Progress int    `json:"progress"`
		Title    string `json:"title"`
	}
	srv.decode(resp.Data, &goal)
	base := "/api/goals/" + goal.ID

	var stepIDs []string
	for _, title := range []string{"Design", "Build"} {
		status, resp = srv.do(http.MethodPost, base+"/steps", token, gin.H{"title": title, "due_date": "2025-03-20"})
		if status != http.StatusCreated {
			t.Fatalf("add step: %d %q", status, resp.Error)
		}
		var step struct {
			ID string `json:"id"`
		}
		srv.decode(resp.Data, &step)
		stepIDs = append(stepIDs, step.ID)
	}

	status, _ = srv.do(http.MethodPut, base+"/steps/"+stepIDs[0], token, gin.H{"is_completed": true})
	if status != http.StatusOK {
		t.Fatalf("complete step: %d", status)
	}
	status, resp = srv.do(http.MethodGet, base, token, nil)
	srv.decode(resp.Data, &goal)
	if status != http.StatusOK || goal.Progress != 50 {
		t.Fatalf("expected 50%% progress, got %d %+v", status, goal)
	}

	status, _ = srv.do(http.MethodGet, base, other, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected other user to get 404, got %d", status)
	}

	status, resp = srv.do(http.MethodPost, base+"/duplicate", token, nil)
	var dup struct {
		Title    string `json:"title"`
		Progress int    `json:"progress"`
		Steps    []struct {
			IsCompleted bool `json:"is_completed"`
		} `json:"steps"`
	}
	srv.decode(resp.Data, &dup)
	if status != http.StatusCreated || dup.Title != "Ship (Copy)" || dup.Progress != 0 || len(dup.Steps) != 2 || dup.Steps[0].IsCompleted {
		t.Fatalf("unexpected duplicate: %d %+v", status, dup)
	}

	status, resp = srv.do(http.MethodPost, "/api/templates", token, gin.H{
		"name":  "Private plan",
		"steps": []gin.H{{"title": "First"}, {"title": "Second"}},
	})
	if status != http.StatusCreated {
		t.Fatalf("create template: %d %q", status, resp.Error)
	}
	var tpl struct {
		ID    string `json:"id"`
		Steps []struct {
			Order int `json:"order"`
		} `json:"steps"`
	}
	srv.decode(resp.Data, &tpl)
	if len(tpl.Steps) != 2 || tpl.Steps[1].Order != 2 {
		t.Fatalf("unexpected template steps: %+v", tpl.Steps)
	}

	status, resp = srv.do(http.MethodGet, "/api/templates", token, nil)
	if status != http.StatusOK || resp.Count != 6 {
		t.Fatalf("expected 6 templates, got %d (%d)", resp.Count, status)
	}
	status, _ = srv.do(http.MethodGet, "/api/templates/"+tpl.ID, other, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 on private template, got %d", status)
	}
	status, _ = srv.do(http.MethodGet, "/api/templates/missing", token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for missing template, got %d", status)
	}

	status, resp = srv.do(http.MethodPost, "/api/templates/"+tpl.ID+"/goals", token, gin.H{
		"start_date": "2025-03-10", "due_date": "2025-03-20",
	})
	var fromTpl struct {
		Title string `json:"title"`
		Steps []struct {
			DueDate string `json:"due_date"`
		} `json:"steps"`
	}
	srv.decode(resp.Data, &fromTpl)
	if status != http.StatusCreated || fromTpl.Title != "Private plan" || len(fromTpl.Steps) != 2 {
		t.Fatalf("unexpected goal from template: %d %+v", status, fromTpl)
	}
	if fromTpl.Steps[0].DueDate != "2025-03-15" || fromTpl.Steps[1].DueDate != "2025-03-20" {
		t.Fatalf("unexpected step due dates: %+v", fromTpl.Steps)
	}
}

func TestRateLimitAndFallbacks(t *testing.T) {
	fixed := time.Unix(1_700_000_000, 0)
	limiter := ratelimit.NewManager(ratelimit.Settings{Limit: 2}, func() time.Time { return fixed }, nil)
	srv := newTestServer(t, limiter)
	token := srv.signup("Ada", "ada@example.com")

	for i := 0; i < 2; i++ {
		if status, _ := srv.do(http.MethodGet, "/api/habits", token, nil); status != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, status)
		}
	}
	status, resp := srv.do(http.MethodGet, "/api/habits", token, nil)
	if status != http.StatusTooManyRequests || resp.Error != "rate limit exceeded" {
		t.Fatalf("expected 429, got %d %q", status, resp.Error)
	}

	status, resp = srv.do(http.MethodGet, "/api/unknown", "", nil)
	if status != http.StatusNotFound || resp.Error != "route not found" {
		t.Fatalf("expected route not found, got %d %q", status, resp.Error)
	}

	status, resp = srv.do(http.MethodGet, "/health", "", nil)
	if status != http.StatusOK || resp.Message != "Server is running" {
		t.Fatalf("unexpected health: %d %+v", status, resp)
	}
}
