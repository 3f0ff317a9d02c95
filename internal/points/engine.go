package points

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vitalpoint/wellness-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Level thresholds.
const (
	pointsPerLevel       = 100
	premiumUnlockLevel   = 3
	premiumDiscountValue = 10
)

// ErrUserNotFound is returned when the referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// Engine appends ledger events and derives levels and premium unlocks from
// cumulative points.
type Engine struct {
	db *gorm.DB
}

// NewEngine constructs a points Engine.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// RecordResult describes the outcome of recording an event.
type RecordResult struct {
	Event   models.Event
	User    models.User
	LevelUp bool
	Message string
}

// LevelFor returns the level derived from a cumulative point total.
func LevelFor(totalPoints int) int {
	if totalPoints < 0 {
		totalPoints = 0
	}
	return totalPoints/pointsPerLevel + 1
}

// Record appends an event to the ledger and applies its point award to the
// user. Unknown event types resolve to the use_new_feature fallback.
func (e *Engine) Record(ctx context.Context, userID uint64, rawType string, metadata map[string]any) (*RecordResult, error) {
	eventType, award := ResolveEventType(rawType)

	payload := datatypes.JSON([]byte("{}"))
	if len(metadata) > 0 {
		raw, errMarshal := json.Marshal(metadata)
		if errMarshal != nil {
			return nil, fmt.Errorf("points: marshal metadata: %w", errMarshal)
		}
		payload = datatypes.JSON(raw)
	}

	previousLevel, errLevel := e.currentLevel(ctx, userID)
	if errLevel != nil {
		return nil, errLevel
	}

	event := models.Event{
		UserID:        userID,
		EventType:     string(eventType),
		PointsAwarded: award,
		Metadata:      payload,
		Timestamp:     time.Now().UTC(),
	}
	if errCreate := e.db.WithContext(ctx).Create(&event).Error; errCreate != nil {
		return nil, fmt.Errorf("points: append event: %w", errCreate)
	}

	user, errApply := e.ApplyPoints(ctx, userID, award)
	if errApply != nil {
		return nil, errApply
	}

	levelUp := user.Level > previousLevel
	return &RecordResult{
		Event:   event,
		User:    *user,
		LevelUp: levelUp,
		Message: Message(eventType, levelUp),
	}, nil
}

// ApplyPoints adds delta to the user's cumulative points and recomputes the
// derived level and premium unlock. The read-modify-write is unguarded:
// concurrent calls for the same user can lose an increment. Not idempotent;
// callers retry the whole operation on failure.
func (e *Engine) ApplyPoints(ctx context.Context, userID uint64, delta int) (*models.User, error) {
	if delta < 0 {
		return nil, fmt.Errorf("points: negative delta %d", delta)
	}

	var user models.User
	if errFind := e.db.WithContext(ctx).First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("points: load user: %w", errFind)
	}

	newPoints := user.Points + delta
	newLevel := LevelFor(newPoints)

	user.Points = newPoints
	user.Level = newLevel
	user.UnlockedPremiumDiscount = newLevel >= premiumUnlockLevel
	if user.UnlockedPremiumDiscount {
		user.DiscountPercentage = premiumDiscountValue
	} else {
		user.DiscountPercentage = 0
	}
	now := time.Now().UTC()
	user.LastActive = &now

	if errSave := e.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"points":                    user.Points,
			"level":                     user.Level,
			"unlocked_premium_discount": user.UnlockedPremiumDiscount,
			"discount_percentage":       user.DiscountPercentage,
			"last_active":               user.LastActive,
		}).Error; errSave != nil {
		return nil, fmt.Errorf("points: update user: %w", errSave)
	}

	return &user, nil
}

// History returns the user's most recent events, newest first.
func (e *Engine) History(ctx context.Context, userID uint64, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	var events []models.Event
	if errFind := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&events).Error; errFind != nil {
		return nil, fmt.Errorf("points: list events: %w", errFind)
	}
	return events, nil
}

func (e *Engine) currentLevel(ctx context.Context, userID uint64) (int, error) {
	var user models.User
	if errFind := e.db.WithContext(ctx).Select("level").First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("points: load user level: %w", errFind)
	}
	return user.Level, nil
}
