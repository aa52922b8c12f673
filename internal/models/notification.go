package models

import "github.com/google/uuid"

// Notification is a persisted in-app message for a user, written when a
// lifecycle event targets the user audience.
type Notification struct {
	BaseModel
	UserID  uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Read    bool      `json:"read"`
}
