package models

import "time"

// User represents an account owning goals and habits.
type User struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // Opaque identifier.

	Name     string `gorm:"type:varchar(100);not null"`             // Display name.
	Email    string `gorm:"type:varchar(255);not null;uniqueIndex"` // Login email, unique.
	Password string `gorm:"type:text;not null"`                     // Hashed password.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
