package models

import "time"

// Challenge statuses. A challenge moves from active to completed exactly
// once and never back.
const (
	ChallengeStatusActive    = "active"
	ChallengeStatusCompleted = "completed"
)

// Challenge is a user-scoped goal with a numeric target and a monotonic
// progress counter.
type Challenge struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Owning user ID.
	User   *User  `gorm:"foreignKey:UserID"` // Owning user.

	ChallengeType string `gorm:"type:text;not null"` // Challenge type tag.
	Title         string `gorm:"type:text;not null"` // Display title.
	Description   string `gorm:"type:text"`          // Display description.
	Category      string `gorm:"type:text"`          // Category tag.
	Difficulty    string `gorm:"type:text"`          // Difficulty tag.

	TargetValue     int `gorm:"not null"`           // Progress target, > 0.
	CurrentProgress int `gorm:"not null;default:0"` // Monotonic progress counter.

	Status       string `gorm:"type:text;not null;default:active;index"` // active or completed.
	RewardPoints int    `gorm:"not null;default:50"`                     // Points granted on completion.

	StartDate   time.Time  `gorm:"not null;autoCreateTime"` // Challenge start.
	EndDate     time.Time  `gorm:"not null;index"`          // Challenge deadline.
	CompletedAt *time.Time // Completion timestamp, set once.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
