package insurance

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbutil "github.com/vitalpoint/wellness-backend/internal/db"
	"github.com/vitalpoint/wellness-backend/internal/models"
	"github.com/vitalpoint/wellness-backend/internal/points"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Engine errors.
var (
	// ErrPlanNotFound is returned when the referenced plan does not exist.
	ErrPlanNotFound = errors.New("insurance plan not found")
	// ErrAlreadyEnrolled is returned when the user already holds an active enrollment.
	ErrAlreadyEnrolled = errors.New("user already has active insurance")
	// ErrNoActiveInsurance is returned when the user has no active enrollment.
	ErrNoActiveInsurance = errors.New("no active insurance found")
)

// maxDiscount caps the combined activity discount.
const maxDiscount = 0.30

// Engine computes activity-based premium discounts and manages plan
// enrollments with an append-only discount audit trail.
type Engine struct {
	db *gorm.DB
}

// NewEngine constructs an insurance Engine.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// activityStats aggregates the ledger inputs to the discount computation.
type activityStats struct {
	ExerciseDays   int     `gorm:"column:exercise_days"`
	Checkups       int     `gorm:"column:checkups"`
	AvgHealthScore float64 `gorm:"column:avg_health_score"`
}

// CalculateDiscount derives the user's premium discount from all-time
// activity aggregates: average health score, exercise event count, and
// checkup event count. The three category bonuses are additive; within a
// category only the highest qualifying threshold applies. The result is
// capped at 0.30. Any aggregate failure yields 0 rather than an error so a
// broken computation can never inflate or block a quote.
func (e *Engine) CalculateDiscount(ctx context.Context, userID uint64) float64 {
	stats, errStats := e.activityStatsFor(ctx, userID)
	if errStats != nil {
		log.WithError(errStats).WithField("user_id", userID).Warn("insurance: discount aggregates unavailable, defaulting to 0")
		return 0
	}
	return discountFor(stats)
}

// discountFor applies the tier tables to the aggregated stats.
func discountFor(stats activityStats) float64 {
	total := 0.0

	switch {
	case stats.AvgHealthScore >= 90:
		total += 0.15
	case stats.AvgHealthScore >= 80:
		total += 0.12
	case stats.AvgHealthScore >= 70:
		total += 0.10
	case stats.AvgHealthScore >= 60:
		total += 0.07
	}

	switch {
	case stats.ExerciseDays >= 180:
		total += 0.08
	case stats.ExerciseDays >= 90:
		total += 0.05
	case stats.ExerciseDays >= 30:
		total += 0.02
	}

	if stats.Checkups > 0 {
		total += 0.03
	}

	if total > maxDiscount {
		total = maxDiscount
	}
	return total
}

// activityStatsFor runs the aggregate scan over the event ledger. Rows
// whose metadata lacks a numeric score are excluded from the average; a
// user with no health_score events averages to 0.
func (e *Engine) activityStatsFor(ctx context.Context, userID uint64) (activityStats, error) {
	scoreExpr := dbutil.JSONExtractNumericExpr(e.db, "metadata", "score")

	query := fmt.Sprintf(`SELECT
		COALESCE((SELECT COUNT(*) FROM events WHERE user_id = ? AND event_type = ?), 0) AS exercise_days,
		COALESCE((SELECT COUNT(*) FROM events WHERE user_id = ? AND event_type = ?), 0) AS checkups,
		COALESCE((SELECT AVG(%s) FROM events WHERE user_id = ? AND event_type = ?), 0) AS avg_health_score`,
		scoreExpr)

	var stats activityStats
	if errScan := e.db.WithContext(ctx).Raw(query,
		userID, string(points.EventTypeExercise),
		userID, string(points.EventTypeCheckup),
		userID, string(points.EventTypeHealthScore),
	).Scan(&stats).Error; errScan != nil {
		return activityStats{}, fmt.Errorf("insurance: aggregate activity: %w", errScan)
	}
	return stats, nil
}

// Plans lists all available insurance plans.
func (e *Engine) Plans(ctx context.Context) ([]models.InsurancePlan, error) {
	var plans []models.InsurancePlan
	if errFind := e.db.WithContext(ctx).Order("premium ASC").Find(&plans).Error; errFind != nil {
		return nil, fmt.Errorf("insurance: list plans: %w", errFind)
	}
	return plans, nil
}

// Plan returns a plan by ID.
func (e *Engine) Plan(ctx context.Context, planID uint64) (*models.InsurancePlan, error) {
	var plan models.InsurancePlan
	if errFind := e.db.WithContext(ctx).First(&plan, planID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("insurance: get plan: %w", errFind)
	}
	return &plan, nil
}

// Enrollment is an active enrollment joined with its plan.
type Enrollment struct {
	models.UserInsurance
	PlanDetails models.InsurancePlan
}

// CurrentForUser returns the user's active enrollment with plan details.
func (e *Engine) CurrentForUser(ctx context.Context, userID uint64) (*Enrollment, error) {
	var enrollment models.UserInsurance
	errFind := e.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.EnrollmentStatusActive).
		First(&enrollment).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveInsurance
		}
		return nil, fmt.Errorf("insurance: get enrollment: %w", errFind)
	}

	plan, errPlan := e.Plan(ctx, enrollment.PlanID)
	if errPlan != nil {
		return nil, errPlan
	}
	return &Enrollment{UserInsurance: enrollment, PlanDetails: *plan}, nil
}

// Enroll creates an active enrollment in the given plan and applies the
// initial activity discount. A user may hold at most one active enrollment;
// the check is an application-level read, not a database constraint.
func (e *Engine) Enroll(ctx context.Context, userID, planID uint64) (*Enrollment, float64, error) {
	plan, errPlan := e.Plan(ctx, planID)
	if errPlan != nil {
		return nil, 0, errPlan
	}

	if _, errCurrent := e.CurrentForUser(ctx, userID); errCurrent == nil {
		return nil, 0, ErrAlreadyEnrolled
	} else if !errors.Is(errCurrent, ErrNoActiveInsurance) {
		return nil, 0, errCurrent
	}

	initialDiscount := e.CalculateDiscount(ctx, userID)

	now := time.Now().UTC()
	enrollment := models.UserInsurance{
		UserID:         userID,
		PlanID:         planID,
		StartDate:      now,
		LastUpdateDate: now,
		Status:         models.EnrollmentStatusActive,
	}
	if errCreate := e.db.WithContext(ctx).Create(&enrollment).Error; errCreate != nil {
		return nil, 0, fmt.Errorf("insurance: create enrollment: %w", errCreate)
	}

	if errUpdate := e.UpdateDiscount(ctx, userID, planID, initialDiscount, "Initial enrollment discount"); errUpdate != nil {
		return nil, 0, errUpdate
	}
	enrollment.CurrentDiscount = initialDiscount

	return &Enrollment{UserInsurance: enrollment, PlanDetails: *plan}, initialDiscount, nil
}

// UpdateDiscount overwrites the enrollment's current discount and appends
// an audit row. The value is not re-derived from CalculateDiscount; callers
// own that trust boundary.
func (e *Engine) UpdateDiscount(ctx context.Context, userID, planID uint64, newDiscount float64, reason string) error {
	now := time.Now().UTC()
	if errUpdate := e.db.WithContext(ctx).Model(&models.UserInsurance{}).
		Where("user_id = ? AND plan_id = ?", userID, planID).
		Updates(map[string]any{
			"current_discount": newDiscount,
			"last_update_date": now,
		}).Error; errUpdate != nil {
		return fmt.Errorf("insurance: update discount: %w", errUpdate)
	}

	history := models.DiscountHistory{
		UserID:       userID,
		PlanID:       planID,
		DiscountType: "UPDATE",
		Amount:       newDiscount,
		Reason:       reason,
		Timestamp:    now,
	}
	if errCreate := e.db.WithContext(ctx).Create(&history).Error; errCreate != nil {
		return fmt.Errorf("insurance: append discount history: %w", errCreate)
	}
	return nil
}

// DiscountHistoryFor lists the user's discount audit rows, newest first.
func (e *Engine) DiscountHistoryFor(ctx context.Context, userID uint64) ([]models.DiscountHistory, error) {
	var rows []models.DiscountHistory
	if errFind := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("insurance: list discount history: %w", errFind)
	}
	return rows, nil
}

// FormatDiscount renders a discount fraction as a percentage string with
// one decimal, e.g. 0.125 -> "12.5%".
func FormatDiscount(discount float64) string {
	return fmt.Sprintf("%.1f%%", discount*100)
}
