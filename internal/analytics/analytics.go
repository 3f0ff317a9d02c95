package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dbutil "github.com/vitalpoint/wellness-backend/internal/db"
	"github.com/vitalpoint/wellness-backend/internal/models"
	"github.com/vitalpoint/wellness-backend/internal/points"
	"gorm.io/gorm"
)

// ErrUserNotFound is returned when the referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// Lookback windows for the per-user report.
const (
	progressWindow = 7 * 24 * time.Hour
	usageWindow    = 30 * 24 * time.Hour
)

// streakNudgeThreshold is the login streak below which the report
// recommends building one.
const streakNudgeThreshold = 3

// coreFeatures are the event types checked for discovery nudges.
var coreFeatures = []points.EventType{
	points.EventTypeExercise,
	points.EventTypeReadArticle,
	points.EventTypeViewPolicy,
	points.EventTypeInviteFriend,
}

// Service derives engagement reports from the event ledger and the
// challenge table. All numbers are computed on read.
type Service struct {
	db *gorm.DB
}

// NewService constructs an analytics Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// DailyProgress is one day of a user's activity.
type DailyProgress struct {
	Date         string   `json:"date"`
	TotalActions int      `json:"totalActions"`
	PointsEarned int      `json:"pointsEarned"`
	Activities   []string `json:"activities"`
}

// FeatureUsage is a user's per-type usage over the lookback window.
type FeatureUsage struct {
	Type   string `gorm:"column:event_type" json:"type"`
	Count  int    `gorm:"column:usage_count" json:"count"`
	Points int    `gorm:"column:total_points" json:"points"`
}

// ChallengeStats summarizes recent challenge outcomes.
type ChallengeStats struct {
	Total          int     `gorm:"column:total_challenges" json:"total"`
	Completed      int     `gorm:"column:completed_challenges" json:"completed"`
	CompletionRate float64 `gorm:"column:completion_rate" json:"completionRate"`
}

// Recommendation is a rule-derived engagement nudge.
type Recommendation struct {
	Type    string `json:"type"`
	Feature string `json:"feature,omitempty"`
	Message string `json:"message"`
}

// UserReport bundles a user's engagement analytics.
type UserReport struct {
	WeeklyProgress  []DailyProgress  `json:"weeklyProgress"`
	FeatureUsage    []FeatureUsage   `json:"featureUsage"`
	ChallengeStats  ChallengeStats   `json:"challengeStats"`
	Recommendations []Recommendation `json:"recommendations"`
}

// UserReportFor builds the per-user report: day-by-day progress over the
// trailing week, feature usage and challenge outcomes over the trailing
// month, and rule-based recommendations.
func (s *Service) UserReportFor(ctx context.Context, userID uint64) (*UserReport, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("analytics: get user: %w", errFind)
	}

	progress, errProgress := s.weeklyProgressFor(ctx, userID)
	if errProgress != nil {
		return nil, errProgress
	}

	usage, errUsage := s.featureUsageFor(ctx, userID)
	if errUsage != nil {
		return nil, errUsage
	}

	stats, errStats := s.challengeStatsFor(ctx, userID)
	if errStats != nil {
		return nil, errStats
	}

	recommendations, errRecs := s.recommendationsFor(ctx, &user)
	if errRecs != nil {
		return nil, errRecs
	}

	return &UserReport{
		WeeklyProgress:  progress,
		FeatureUsage:    usage,
		ChallengeStats:  stats,
		Recommendations: recommendations,
	}, nil
}

func (s *Service) weeklyProgressFor(ctx context.Context, userID uint64) ([]DailyProgress, error) {
	dateExpr := dbutil.DateExpr(s.db, "timestamp")
	concatExpr := "string_agg(DISTINCT event_type, ',')"
	if dbutil.IsSQLite(s.db) {
		concatExpr = "GROUP_CONCAT(DISTINCT event_type)"
	}

	type dailyRow struct {
		Date         string `gorm:"column:date"`
		TotalActions int    `gorm:"column:total_actions"`
		PointsEarned int    `gorm:"column:points_earned"`
		Activities   string `gorm:"column:activities"`
	}

	since := time.Now().UTC().Add(-progressWindow)
	var rows []dailyRow
	errScan := s.db.WithContext(ctx).Raw(fmt.Sprintf(`
		SELECT %[1]s AS date,
			COUNT(*) AS total_actions,
			SUM(points_awarded) AS points_earned,
			%[2]s AS activities
		FROM events
		WHERE user_id = ? AND timestamp > ?
		GROUP BY %[1]s
		ORDER BY date ASC`, dateExpr, concatExpr),
		userID, since).Scan(&rows).Error
	if errScan != nil {
		return nil, fmt.Errorf("analytics: weekly progress: %w", errScan)
	}

	progress := make([]DailyProgress, 0, len(rows))
	for _, row := range rows {
		progress = append(progress, DailyProgress{
			Date:         row.Date,
			TotalActions: row.TotalActions,
			PointsEarned: row.PointsEarned,
			Activities:   strings.Split(row.Activities, ","),
		})
	}
	return progress, nil
}

func (s *Service) featureUsageFor(ctx context.Context, userID uint64) ([]FeatureUsage, error) {
	since := time.Now().UTC().Add(-usageWindow)
	var usage []FeatureUsage
	errScan := s.db.WithContext(ctx).Model(&models.Event{}).
		Select("event_type, COUNT(*) AS usage_count, SUM(points_awarded) AS total_points").
		Where("user_id = ?", userID).
		Where("timestamp > ?", since).
		Group("event_type").
		Order("usage_count DESC").
		Scan(&usage).Error
	if errScan != nil {
		return nil, fmt.Errorf("analytics: feature usage: %w", errScan)
	}
	return usage, nil
}

func (s *Service) challengeStatsFor(ctx context.Context, userID uint64) (ChallengeStats, error) {
	since := time.Now().UTC().Add(-usageWindow)
	var stats ChallengeStats
	errScan := s.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS total_challenges,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed_challenges,
			COALESCE(AVG(CASE WHEN status = ? THEN 1.0 ELSE 0.0 END), 0) * 100 AS completion_rate
		FROM challenges
		WHERE user_id = ? AND created_at > ?`,
		models.ChallengeStatusCompleted, models.ChallengeStatusCompleted,
		userID, since).Scan(&stats).Error
	if errScan != nil {
		return ChallengeStats{}, fmt.Errorf("analytics: challenge stats: %w", errScan)
	}
	return stats, nil
}

// recommendationsFor applies the nudge rules: a login streak below the
// threshold recommends building one, and each core feature unused in the
// trailing month gets a discovery nudge.
func (s *Service) recommendationsFor(ctx context.Context, user *models.User) ([]Recommendation, error) {
	recommendations := []Recommendation{}

	if user.Streak < streakNudgeThreshold {
		recommendations = append(recommendations, Recommendation{
			Type:    "streak",
			Message: "Log in daily to build your streak and earn bonus points!",
		})
	}

	since := time.Now().UTC().Add(-usageWindow)
	var used []string
	errScan := s.db.WithContext(ctx).Model(&models.Event{}).
		Distinct("event_type").
		Where("user_id = ?", user.ID).
		Where("timestamp > ?", since).
		Pluck("event_type", &used).Error
	if errScan != nil {
		return nil, fmt.Errorf("analytics: used features: %w", errScan)
	}

	usedSet := make(map[string]struct{}, len(used))
	for _, eventType := range used {
		usedSet[eventType] = struct{}{}
	}

	for _, feature := range coreFeatures {
		if _, ok := usedSet[string(feature)]; ok {
			continue
		}
		readable := strings.ReplaceAll(string(feature), "_", " ")
		recommendations = append(recommendations, Recommendation{
			Type:    "feature_discovery",
			Feature: string(feature),
			Message: fmt.Sprintf("Try %s to earn points and unlock achievements!", readable),
		})
	}
	return recommendations, nil
}

// FeatureAdoption is platform-wide per-type usage.
type FeatureAdoption struct {
	Type         string  `gorm:"column:event_type" json:"type"`
	UniqueUsers  int     `gorm:"column:unique_users" json:"uniqueUsers"`
	TotalUses    int     `gorm:"column:total_uses" json:"totalUses"`
	AdoptionRate float64 `gorm:"-" json:"adoptionRate"`
}

// PremiumConversion summarizes premium discount uptake.
type PremiumConversion struct {
	TotalUsers     int     `gorm:"column:total_users" json:"totalUsers"`
	PremiumUsers   int     `gorm:"column:premium_users" json:"premiumUsers"`
	ConversionRate float64 `gorm:"-" json:"conversionRate"`
}

// PlatformReport bundles platform-wide engagement analytics.
type PlatformReport struct {
	DAU               int               `json:"dau"`
	MAU               int               `json:"mau"`
	FeatureAdoption   []FeatureAdoption `json:"featureAdoption"`
	PremiumConversion PremiumConversion `json:"premiumConversion"`
}

// PlatformReport builds the platform report: daily and monthly active
// users, per-type adoption over the trailing month, and the premium
// conversion rate. Rates are 0 when the platform has no users.
func (s *Service) PlatformReport(ctx context.Context) (*PlatformReport, error) {
	now := time.Now().UTC()

	dau, errDAU := s.activeUsersSince(ctx, now.AddDate(0, 0, -1))
	if errDAU != nil {
		return nil, errDAU
	}
	mau, errMAU := s.activeUsersSince(ctx, now.AddDate(0, 0, -30))
	if errMAU != nil {
		return nil, errMAU
	}

	var adoption []FeatureAdoption
	errAdoption := s.db.WithContext(ctx).Model(&models.Event{}).
		Select("event_type, COUNT(DISTINCT user_id) AS unique_users, COUNT(*) AS total_uses").
		Where("timestamp > ?", now.AddDate(0, 0, -30)).
		Group("event_type").
		Order("unique_users DESC").
		Scan(&adoption).Error
	if errAdoption != nil {
		return nil, fmt.Errorf("analytics: feature adoption: %w", errAdoption)
	}

	var conversion PremiumConversion
	errConversion := s.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS total_users,
			COALESCE(SUM(CASE WHEN unlocked_premium_discount THEN 1 ELSE 0 END), 0) AS premium_users
		FROM users`).Scan(&conversion).Error
	if errConversion != nil {
		return nil, fmt.Errorf("analytics: premium conversion: %w", errConversion)
	}

	if conversion.TotalUsers > 0 {
		conversion.ConversionRate = float64(conversion.PremiumUsers) / float64(conversion.TotalUsers) * 100
		for i := range adoption {
			adoption[i].AdoptionRate = float64(adoption[i].UniqueUsers) / float64(conversion.TotalUsers) * 100
		}
	}

	return &PlatformReport{
		DAU:               dau,
		MAU:               mau,
		FeatureAdoption:   adoption,
		PremiumConversion: conversion,
	}, nil
}

func (s *Service) activeUsersSince(ctx context.Context, since time.Time) (int, error) {
	var count int64
	errCount := s.db.WithContext(ctx).Model(&models.Event{}).
		Distinct("user_id").
		Where("timestamp > ?", since).
		Count(&count).Error
	if errCount != nil {
		return 0, fmt.Errorf("analytics: active users: %w", errCount)
	}
	return int(count), nil
}
