package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting stores one global configuration value as JSON.
type Setting struct {
	Key string `gorm:"primaryKey;type:text"` // Setting key.

	// Stored as text so scalar JSON values ("3", "9.5") survive the SQLite
	// round-trip; a jsonb column would coerce them under NUMERIC affinity.
	Value datatypes.JSON `gorm:"type:text;not null;default:'{}'"` // JSON value payload.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
