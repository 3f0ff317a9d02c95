package models

import (
	"time"

	"gorm.io/datatypes"
)

// EnrollmentStatusActive marks the single live enrollment a user may hold.
const EnrollmentStatusActive = "ACTIVE"

// InsurancePlan is immutable reference data describing a purchasable plan.
type InsurancePlan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string         `gorm:"type:text;not null;uniqueIndex"`    // Plan name.
	Type     string         `gorm:"type:text;not null"`                // Plan tier (BASIC, PREMIUM, FAMILY).
	Premium  float64        `gorm:"type:decimal(10,2);not null"`       // Monthly premium.
	Coverage float64        `gorm:"type:decimal(12,2);not null"`       // Coverage amount.
	Features datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"`  // Feature flags.

	MaxDiscount int `gorm:"not null;default:0"` // Maximum discount percentage cap.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// UserInsurance links a user to their active plan enrollment.
// One ACTIVE enrollment per user, enforced by application check.
type UserInsurance struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Enrolled user ID.
	User   *User  `gorm:"foreignKey:UserID"` // Enrolled user.

	PlanID uint64         `gorm:"not null;index"`    // Enrolled plan ID.
	Plan   *InsurancePlan `gorm:"foreignKey:PlanID"` // Enrolled plan.

	CurrentDiscount float64 `gorm:"type:decimal(5,4);not null;default:0"` // Current discount fraction, 0-0.30.

	StartDate      time.Time `gorm:"not null"`                 // Enrollment start.
	LastUpdateDate time.Time `gorm:"not null;autoUpdateTime"`  // Last discount recalculation.
	Status         string    `gorm:"type:text;not null;index"` // Enrollment status.
}

// DiscountHistory is an append-only audit log of discount changes.
type DiscountHistory struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"` // Affected user ID.
	PlanID uint64 `gorm:"not null"`       // Affected plan ID.

	DiscountType string  `gorm:"type:text;not null"`         // Change kind (UPDATE).
	Amount       float64 `gorm:"type:decimal(5,4);not null"` // Discount fraction applied.
	Reason       string  `gorm:"type:text;not null"`         // Human-readable reason.

	Timestamp time.Time `gorm:"not null;autoCreateTime"` // Change time.
}
