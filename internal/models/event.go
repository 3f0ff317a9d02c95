package models

import (
	"time"

	"gorm.io/datatypes"
)

// Event records a single user action in the append-only ledger.
// Rows are never updated or deleted.
type Event struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Owning user ID.
	User   *User  `gorm:"foreignKey:UserID"` // Owning user.

	EventType     string         `gorm:"type:text;not null;index"`         // Canonical event type.
	PointsAwarded int            `gorm:"not null"`                         // Points granted for this event.
	Metadata      datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Open key-value payload.

	Timestamp time.Time `gorm:"not null;index;autoCreateTime"` // Event time.
}
