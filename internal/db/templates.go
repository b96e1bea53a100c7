package db

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/personal-organizer/organizer/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type systemTemplate struct {
	name              string
	description       string
	category          string
	priority          models.GoalPriority
	estimatedDuration int
	steps             []string
}

var systemTemplates = []systemTemplate{
	{
		name:              "Learn a language",
		description:       "Reach conversational level in a new language with a structured path",
		category:          "Education",
		priority:          models.GoalPriorityHigh,
		estimatedDuration: 180,
		steps: []string{
			"Pick the language and set a target level",
			"Install a learning app",
			"Study 30 minutes a day for a month",
			"Join a conversation group or find a partner",
			"Read a simple book in the language",
			"Watch films or series with subtitles",
			"Hold a 15 minute conversation with a native speaker",
		},
	},
	{
		name:              "Lose weight",
		description:       "Reach a healthy weight with a balanced approach",
		category:          "Health",
		priority:          models.GoalPriorityHigh,
		estimatedDuration: 90,
		steps: []string{
			"See a doctor to set a realistic target",
			"Work out a daily calorie budget",
			"Plan exercise at least three times a week",
			"Keep a food diary for two weeks",
			"Cut processed food and added sugar",
			"Eat more vegetables and protein",
			"Weigh in and measure progress weekly",
		},
	},
	{
		name:              "Build a web application",
		description:       "Ship a complete web application end to end",
		category:          "Development",
		priority:          models.GoalPriorityMedium,
		estimatedDuration: 120,
		steps: []string{
			"Define the concept and core features",
			"Sketch wireframes and design",
			"Set up the development environment",
			"Build the backend API and database",
			"Build the frontend",
			"Add authentication and security",
			"Write unit and integration tests",
			"Deploy to production",
		},
	},
	{
		name:              "Read 12 books a year",
		description:       "Build a steady reading habit",
		category:          "Culture",
		priority:          models.GoalPriorityLow,
		estimatedDuration: 365,
		steps: []string{
			"List 12 books to read",
			"Reserve 30 minutes of reading a day",
			"Finish the first book",
			"Keep a reading journal",
			"Join a book club or share your reading",
			"Reach 6 books by mid-year",
			"Finish all 12 books and review the year",
		},
	},
	{
		name:              "Learn an instrument",
		description:       "Master the basics of a musical instrument",
		category:          "Leisure",
		priority:          models.GoalPriorityMedium,
		estimatedDuration: 90,
		steps: []string{
			"Choose and get the instrument",
			"Find a teacher or online lessons",
			"Learn posture, notes and chords",
			"Practice 30 minutes a day for a month",
			"Learn a first simple song",
			"Master three different songs",
			"Play for friends or family",
		},
	},
}

// SeedSystemTemplates inserts the built-in goal templates when no system
// template exists yet. It returns the number of templates created.
func SeedSystemTemplates(conn *gorm.DB) (int, error) {
	if conn == nil {
		return 0, fmt.Errorf("db: nil connection")
	}
	var existing int64
	if errCount := conn.Model(&models.GoalTemplate{}).Where("is_system = ?", true).Count(&existing).Error; errCount != nil {
		return 0, fmt.Errorf("db: count system templates: %w", errCount)
	}
	if existing > 0 {
		return 0, nil
	}

	rows := make([]models.GoalTemplate, 0, len(systemTemplates))
	for _, tpl := range systemTemplates {
		steps := make([]models.TemplateStep, 0, len(tpl.steps))
		for i, title := range tpl.steps {
			steps = append(steps, models.TemplateStep{Title: title, Order: i + 1})
		}
		payload, errMarshal := json.Marshal(steps)
		if errMarshal != nil {
			return 0, fmt.Errorf("db: marshal template steps: %w", errMarshal)
		}
		rows = append(rows, models.GoalTemplate{
			ID:                uuid.NewString(),
			Name:              tpl.name,
			Description:       tpl.description,
			Category:          tpl.category,
			Priority:          tpl.priority,
			Steps:             datatypes.JSON(payload),
			EstimatedDuration: tpl.estimatedDuration,
			IsSystem:          true,
		})
	}
	if errCreate := conn.Create(&rows).Error; errCreate != nil {
		return 0, fmt.Errorf("db: seed system templates: %w", errCreate)
	}
	log.Infof("seeded %d goal templates", len(rows))
	return len(rows), nil
}
