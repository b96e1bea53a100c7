package db

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/personal-organizer/organizer/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := Open(BuildSQLiteDSN(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = Close(conn) })
	return conn
}

func TestMigrateSeedsTemplatesOnce(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("second migrate: %v", errMigrate)
	}

	var count int64
	if errCount := conn.Model(&models.GoalTemplate{}).Where("is_system = ?", true).Count(&count).Error; errCount != nil {
		t.Fatalf("count templates: %v", errCount)
	}
	if count != int64(len(systemTemplates)) {
		t.Fatalf("expected %d system templates, got %d", len(systemTemplates), count)
	}

	created, errSeed := SeedSystemTemplates(conn)
	if errSeed != nil {
		t.Fatalf("seed: %v", errSeed)
	}
	if created != 0 {
		t.Fatalf("expected no new templates, got %d", created)
	}
}

func TestHabitLogUniqueIndex(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	day := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	first := models.HabitLog{ID: uuid.NewString(), HabitID: "habit-1", Date: day, IsCompleted: true}
	if errCreate := conn.Create(&first).Error; errCreate != nil {
		t.Fatalf("create first log: %v", errCreate)
	}
	second := models.HabitLog{ID: uuid.NewString(), HabitID: "habit-1", Date: day, IsCompleted: false}
	errCreate := conn.Create(&second).Error
	if errCreate == nil {
		t.Fatalf("expected unique violation")
	}
	if !IsUniqueViolation(errCreate) {
		t.Fatalf("expected unique violation, got %v", errCreate)
	}

	other := models.HabitLog{ID: uuid.NewString(), HabitID: "habit-2", Date: day, IsCompleted: true}
	if errOther := conn.Create(&other).Error; errOther != nil {
		t.Fatalf("create log for other habit: %v", errOther)
	}
}

func TestIsSQLiteDSN(t *testing.T) {
	cases := []struct {
		dsn  string
		want bool
	}{
		{dsn: "file:organizer.db", want: true},
		{dsn: "FILE:/tmp/x.db?_pragma=foreign_keys(1)", want: true},
		{dsn: ":memory:", want: true},
		{dsn: "postgres://u:p@localhost:5432/organizer", want: false},
		{dsn: "host=localhost user=u dbname=organizer", want: false},
	}
	for _, tc := range cases {
		if got := IsSQLiteDSN(tc.dsn); got != tc.want {
			t.Fatalf("IsSQLiteDSN(%q) = %v, want %v", tc.dsn, got, tc.want)
		}
	}
}

func TestBuildSQLiteDSN(t *testing.T) {
	got := BuildSQLiteDSN("data/app.db")
	want := "file:data/app.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
	if got != want {
		t.Fatalf("unexpected dsn %q", got)
	}
	if got := BuildSQLiteDSN(""); !strings.HasPrefix(got, "file:"+DefaultSQLitePath+"?") {
		t.Fatalf("expected default path, got %q", got)
	}
}

func TestContainsPatternEscapes(t *testing.T) {
	conn := openTestDB(t)
	if got := ContainsPattern(conn, "Run_100%"); got != `%run\_100\%%` {
		t.Fatalf("unexpected pattern %q", got)
	}
}
