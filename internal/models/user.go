package models

import (
	"time"

	"gorm.io/datatypes"
)

// User represents an end-user account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique display name.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Email address.

	Points int `gorm:"not null;default:0"` // Cumulative points earned.
	Level  int `gorm:"not null;default:1"` // Derived level, floor(points/100)+1.
	Streak int `gorm:"not null;default:0"` // Consecutive daily-login streak.

	Badges datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"` // Earned badge names.

	UnlockedPremiumDiscount bool `gorm:"not null;default:false"` // Premium discount unlocked at level 3.
	DiscountPercentage      int  `gorm:"not null;default:0"`     // Fixed 10 once premium is unlocked.

	AvatarURL  string     `gorm:"type:text"` // Optional avatar URL.
	LastActive *time.Time // Last recorded activity.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
