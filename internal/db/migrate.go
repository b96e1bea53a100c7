package db

import (
	"fmt"

	"github.com/personal-organizer/organizer/internal/models"
	"gorm.io/gorm"
)

// schemaModels lists every table managed by the service.
func schemaModels() []any {
	return []any{
		&models.User{},
		&models.Habit{},
		&models.HabitLog{},
		&models.Goal{},
		&models.Step{},
		&models.GoalTemplate{},
	}
}

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// migratePostgres applies PostgreSQL-specific schema updates and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(schemaModels()...); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	if errIndexes := ensureIndexes(conn); errIndexes != nil {
		return errIndexes
	}
	if errCheck := conn.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_goals_due_after_start') THEN
				ALTER TABLE goals ADD CONSTRAINT chk_goals_due_after_start CHECK (due_date >= start_date);
			END IF;
		END $$;
	`).Error; errCheck != nil {
		return fmt.Errorf("db: add goal date check: %w", errCheck)
	}
	if _, errSeed := SeedSystemTemplates(conn); errSeed != nil {
		return errSeed
	}
	return nil
}

// migrateSQLite applies SQLite-specific schema updates and indexes.
func migrateSQLite(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(schemaModels()...); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	if errIndexes := ensureIndexes(conn); errIndexes != nil {
		return errIndexes
	}
	if _, errSeed := SeedSystemTemplates(conn); errSeed != nil {
		return errSeed
	}
	return nil
}

// ensureIndexes creates indexes that must exist regardless of how the
// tables were first created.
func ensureIndexes(conn *gorm.DB) error {
	if errUnique := conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_habit_logs_habit_date
		ON habit_logs (habit_id, date)
	`).Error; errUnique != nil {
		return fmt.Errorf("db: create habit log unique index: %w", errUnique)
	}
	if errSteps := conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_steps_goal_position
		ON steps (goal_id, position)
	`).Error; errSteps != nil {
		return fmt.Errorf("db: create step order index: %w", errSteps)
	}
	if errHabits := conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_habits_user_status
		ON habits (user_id, status)
	`).Error; errHabits != nil {
		return fmt.Errorf("db: create habit status index: %w", errHabits)
	}
	return nil
}
