package models

import (
	"time"

	"gorm.io/datatypes"
)

// GoalPriority ranks goals.
type GoalPriority string

// GoalPriority values.
const (
	GoalPriorityLow    GoalPriority = "low"
	GoalPriorityMedium GoalPriority = "medium"
	GoalPriorityHigh   GoalPriority = "high"
)

// Valid reports whether p is a known priority.
func (p GoalPriority) Valid() bool {
	return p == GoalPriorityLow || p == GoalPriorityMedium || p == GoalPriorityHigh
}

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

// GoalStatus values.
const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusAbandoned GoalStatus = "abandoned"
)

// Valid reports whether s is a known status.
func (s GoalStatus) Valid() bool {
	return s == GoalStatusActive || s == GoalStatusCompleted || s == GoalStatusAbandoned
}

// Goal is a long-term objective broken into steps.
type Goal struct {
	ID     string `gorm:"type:varchar(36);primaryKey"`     // Opaque identifier.
	UserID string `gorm:"type:varchar(36);not null;index"` // Owner.

	Title       string       `gorm:"type:varchar(200);not null"`                       // Goal title.
	Description string       `gorm:"type:text"`                                        // Optional description.
	StartDate   time.Time    `gorm:"not null"`                                         // Start of the goal.
	DueDate     time.Time    `gorm:"not null"`                                         // Deadline, not before StartDate.
	Priority    GoalPriority `gorm:"type:varchar(16);not null;default:'medium';index"` // low, medium or high.
	Category    string       `gorm:"type:varchar(50)"`                                 // Optional category.
	Status      GoalStatus   `gorm:"type:varchar(16);not null;default:'active';index"` // active, completed or abandoned.
	Progress    int          `gorm:"not null;default:0"`                               // Percent of completed steps.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`       // Last update timestamp.
}

// Step is one ordered milestone of a goal.
type Step struct {
	ID     string `gorm:"type:varchar(36);primaryKey"`     // Opaque identifier.
	GoalID string `gorm:"type:varchar(36);not null;index"` // Owning goal.

	Title       string     `gorm:"type:varchar(200);not null"` // Step title.
	DueDate     *time.Time `gorm:"index"`                      // Optional deadline.
	IsCompleted bool       `gorm:"not null"`                   // Completion flag.
	Position    int        `gorm:"not null;default:0"`         // Ordering within the goal.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TemplateStep is a step blueprint stored inside a GoalTemplate.
type TemplateStep struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
}

// GoalTemplate is a reusable goal blueprint. System templates are visible to
// everyone; user templates only to their creator.
type GoalTemplate struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // Opaque identifier.

	Name              string         `gorm:"type:varchar(200);not null"`                 // Template name.
	Description       string         `gorm:"type:text"`                                  // Optional description.
	Category          string         `gorm:"type:varchar(50);index"`                     // Optional category.
	Priority          GoalPriority   `gorm:"type:varchar(16);not null;default:'medium'"` // Default goal priority.
	Steps             datatypes.JSON `gorm:"not null"`                                   // []TemplateStep.
	EstimatedDuration int            `gorm:"not null;default:30"`                        // Days from start to due.
	IsSystem          bool           `gorm:"not null;index"`                             // Built-in template.
	CreatedBy         *string        `gorm:"type:varchar(36);index"`                     // Creator for user templates.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
