package challenges

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vitalpoint/wellness-backend/internal/models"
	"github.com/vitalpoint/wellness-backend/internal/points"
	"gorm.io/gorm"
)

// Challenge type tags.
const (
	TypeWorkoutStreak     = "workout_streak"
	TypeArticleReader     = "article_reader"
	TypePolicyExplorer    = "policy_explorer"
	TypeSocialConnector   = "social_connector"
	TypeFeatureDiscoverer = "feature_discoverer"
)

// ErrChallengeNotFound is returned when the referenced challenge does not exist.
var ErrChallengeNotFound = errors.New("challenge not found")

// Engine manages challenge lifecycle: creation, monotonic progress, and
// personalized generation from activity gaps.
type Engine struct {
	db *gorm.DB
}

// NewEngine constructs a challenge Engine.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Options configures challenge creation. Zero values fall back to the
// defaults used by personalized generation.
type Options struct {
	Title        string
	Description  string
	TargetValue  int
	Category     string
	Difficulty   string
	RewardPoints int
	DurationDays int
}

// Create inserts an active challenge with progress 0 and an end date of
// now plus the configured duration.
func (e *Engine) Create(ctx context.Context, userID uint64, challengeType string, opts Options) (*models.Challenge, error) {
	if opts.TargetValue <= 0 {
		return nil, fmt.Errorf("challenges: target value must be positive, got %d", opts.TargetValue)
	}
	if opts.RewardPoints <= 0 {
		opts.RewardPoints = 50
	}
	if opts.DurationDays <= 0 {
		opts.DurationDays = 7
	}
	if strings.TrimSpace(opts.Category) == "" {
		opts.Category = "general"
	}
	if strings.TrimSpace(opts.Difficulty) == "" {
		opts.Difficulty = "medium"
	}

	now := time.Now().UTC()
	challenge := models.Challenge{
		UserID:          userID,
		ChallengeType:   challengeType,
		Title:           strings.TrimSpace(opts.Title),
		Description:     strings.TrimSpace(opts.Description),
		Category:        opts.Category,
		Difficulty:      opts.Difficulty,
		TargetValue:     opts.TargetValue,
		CurrentProgress: 0,
		Status:          models.ChallengeStatusActive,
		RewardPoints:    opts.RewardPoints,
		StartDate:       now,
		EndDate:         now.AddDate(0, 0, opts.DurationDays),
	}
	if errCreate := e.db.WithContext(ctx).Create(&challenge).Error; errCreate != nil {
		return nil, fmt.Errorf("challenges: create: %w", errCreate)
	}
	return &challenge, nil
}

// Get returns a challenge by ID.
func (e *Engine) Get(ctx context.Context, id uint64) (*models.Challenge, error) {
	var challenge models.Challenge
	if errFind := e.db.WithContext(ctx).First(&challenge, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("challenges: get: %w", errFind)
	}
	return &challenge, nil
}

// UpdateProgress adds increment to the challenge's progress counter.
// Progress never decreases; when it first reaches the target the challenge
// becomes completed and completed_at is stamped, a terminal transition.
// The read-modify-write is unguarded: concurrent increments to the same
// challenge can lose an update.
func (e *Engine) UpdateProgress(ctx context.Context, id uint64, increment int) (*models.Challenge, error) {
	if increment <= 0 {
		increment = 1
	}

	challenge, errGet := e.Get(ctx, id)
	if errGet != nil {
		return nil, errGet
	}

	challenge.CurrentProgress += increment
	if challenge.Status == models.ChallengeStatusActive && challenge.CurrentProgress >= challenge.TargetValue {
		challenge.Status = models.ChallengeStatusCompleted
		now := time.Now().UTC()
		challenge.CompletedAt = &now
	}

	if errSave := e.db.WithContext(ctx).Model(&models.Challenge{}).
		Where("id = ?", challenge.ID).
		Updates(map[string]any{
			"current_progress": challenge.CurrentProgress,
			"status":           challenge.Status,
			"completed_at":     challenge.CompletedAt,
		}).Error; errSave != nil {
		return nil, fmt.Errorf("challenges: update progress: %w", errSave)
	}
	return challenge, nil
}

// ActiveForUser lists the user's active, unexpired challenges, newest first.
func (e *Engine) ActiveForUser(ctx context.Context, userID uint64) ([]models.Challenge, error) {
	var rows []models.Challenge
	if errFind := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("status = ?", models.ChallengeStatusActive).
		Where("end_date > ?", time.Now().UTC()).
		Order("created_at DESC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("challenges: list active: %w", errFind)
	}
	return rows, nil
}

// generationWindow is the activity lookback for personalized challenges.
const generationWindow = 30 * 24 * time.Hour

// GeneratePersonalized inspects the user's event counts over the trailing
// 30 days and creates the first challenge whose activity threshold is
// unmet. The priority order is fixed: workouts, articles, policy views,
// then a generic feature-discovery fallback.
func (e *Engine) GeneratePersonalized(ctx context.Context, userID uint64) (*models.Challenge, error) {
	type typeCount struct {
		EventType string `gorm:"column:event_type"`
		Count     int    `gorm:"column:count"`
	}

	since := time.Now().UTC().Add(-generationWindow)
	var rows []typeCount
	if errFind := e.db.WithContext(ctx).Model(&models.Event{}).
		Select("event_type, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Where("timestamp > ?", since).
		Group("event_type").
		Scan(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("challenges: count recent events: %w", errFind)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.EventType] = row.Count
	}

	var (
		challengeType string
		opts          Options
	)
	switch {
	case counts[string(points.EventTypeExercise)] < 3:
		challengeType = TypeWorkoutStreak
		opts = Options{Title: "Workout Warrior", Description: "Complete 3 workouts this week", TargetValue: 3}
	case counts[string(points.EventTypeReadArticle)] < 5:
		challengeType = TypeArticleReader
		opts = Options{Title: "Knowledge Seeker", Description: "Read 5 wellness articles", TargetValue: 5}
	case counts[string(points.EventTypeViewPolicy)] < 2:
		challengeType = TypePolicyExplorer
		opts = Options{Title: "Insurance Explorer", Description: "View 2 different insurance policies", TargetValue: 2}
	default:
		challengeType = TypeFeatureDiscoverer
		opts = Options{Title: "Feature Explorer", Description: "Try 3 different features you haven't used before", TargetValue: 3}
	}

	opts.Category = strings.SplitN(challengeType, "_", 2)[0]
	opts.Difficulty = "medium"
	opts.RewardPoints = 50
	opts.DurationDays = 7

	return e.Create(ctx, userID, challengeType, opts)
}
