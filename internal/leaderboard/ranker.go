package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vitalpoint/wellness-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Periods supported by the ranker.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodAllTime = "alltime"
)

// ErrUserNotFound is returned when the referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// defaultLimit bounds the ranking page when the caller passes none.
const defaultLimit = 50

// Ranker computes point leaderboards as SQL aggregates over the event
// ledger. Rankings are derived on read; nothing is cached.
type Ranker struct {
	db *gorm.DB
}

// NewRanker constructs a Ranker.
func NewRanker(db *gorm.DB) *Ranker {
	return &Ranker{db: db}
}

// Entry is one leaderboard row.
type Entry struct {
	UserID       uint64         `gorm:"column:user_id" json:"userId"`
	Username     string         `gorm:"column:username" json:"username"`
	Level        int            `gorm:"column:level" json:"level"`
	AvatarURL    string         `gorm:"column:avatar_url" json:"avatar"`
	Badges       datatypes.JSON `gorm:"column:badges" json:"badges"`
	PeriodPoints int            `gorm:"column:period_points" json:"points"`
	TotalPoints  int            `gorm:"column:total_points" json:"totalPoints"`
	Rank         int            `gorm:"column:rank" json:"rank"`
}

// NormalizePeriod maps a raw period string to a supported period.
// Anything unrecognized falls back to weekly.
func NormalizePeriod(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case PeriodMonthly:
		return PeriodMonthly
	case PeriodAllTime:
		return PeriodAllTime
	default:
		return PeriodWeekly
	}
}

// periodFloor returns the inclusive lower bound on event timestamps for
// the period. Alltime uses the epoch so the same query shape serves all
// three periods.
func periodFloor(period string) time.Time {
	now := time.Now().UTC()
	switch NormalizePeriod(period) {
	case PeriodMonthly:
		return now.AddDate(0, 0, -30)
	case PeriodAllTime:
		return time.Unix(0, 0).UTC()
	default:
		return now.AddDate(0, 0, -7)
	}
}

// Rank returns the top entries for the period. Every user appears, with 0
// period points when they have no qualifying events. Ties on period
// points break by lifetime points, then by user ID for a stable order.
func (r *Ranker) Rank(ctx context.Context, period string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	since := periodFloor(period)

	var entries []Entry
	errScan := r.db.WithContext(ctx).Raw(`
		SELECT u.id AS user_id, u.username, u.level, u.avatar_url, u.badges,
			COALESCE(SUM(e.points_awarded), 0) AS period_points,
			u.points AS total_points
		FROM users u
		LEFT JOIN events e ON e.user_id = u.id AND e.timestamp >= ?
		GROUP BY u.id, u.username, u.level, u.avatar_url, u.badges, u.points
		ORDER BY period_points DESC, total_points DESC, u.id ASC
		LIMIT ?`, since, limit).Scan(&entries).Error
	if errScan != nil {
		return nil, fmt.Errorf("leaderboard: rank: %w", errScan)
	}

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// RankOf returns the user's 1-based rank for the period: one more than
// the number of users whose period points strictly exceed theirs, so
// tied users share a rank.
func (r *Ranker) RankOf(ctx context.Context, userID uint64, period string) (int, error) {
	var known int64
	if errCount := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).Count(&known).Error; errCount != nil {
		return 0, fmt.Errorf("leaderboard: check user: %w", errCount)
	}
	if known == 0 {
		return 0, ErrUserNotFound
	}

	since := periodFloor(period)

	var rank int
	errScan := r.db.WithContext(ctx).Raw(`
		WITH period_points AS (
			SELECT u.id AS user_id, COALESCE(SUM(e.points_awarded), 0) AS pts
			FROM users u
			LEFT JOIN events e ON e.user_id = u.id AND e.timestamp >= ?
			GROUP BY u.id
		)
		SELECT COUNT(*) + 1
		FROM period_points
		WHERE pts > (SELECT pts FROM period_points WHERE user_id = ?)`,
		since, userID).Scan(&rank).Error
	if errScan != nil {
		return 0, fmt.Errorf("leaderboard: rank of user: %w", errScan)
	}
	return rank, nil
}

// Nearby returns the contiguous slice of the period ranking centered on
// the user: every row whose rank falls within rng of the user's own,
// ordered by rank. The window clamps at the top of the table.
func (r *Ranker) Nearby(ctx context.Context, userID uint64, period string, rng int) ([]Entry, error) {
	if rng <= 0 {
		rng = 5
	}
	since := periodFloor(period)

	var entries []Entry
	errScan := r.db.WithContext(ctx).Raw(`
		WITH ranked AS (
			SELECT u.id AS user_id, u.username, u.level, u.avatar_url, u.badges,
				COALESCE(SUM(e.points_awarded), 0) AS period_points,
				u.points AS total_points,
				RANK() OVER (ORDER BY COALESCE(SUM(e.points_awarded), 0) DESC) AS rank
			FROM users u
			LEFT JOIN events e ON e.user_id = u.id AND e.timestamp >= ?
			GROUP BY u.id, u.username, u.level, u.avatar_url, u.badges, u.points
		)
		SELECT * FROM ranked
		WHERE rank BETWEEN
			(SELECT rank FROM ranked WHERE user_id = ?) - ?
			AND (SELECT rank FROM ranked WHERE user_id = ?) + ?
		ORDER BY rank ASC, total_points DESC, user_id ASC`,
		since, userID, rng, userID, rng).Scan(&entries).Error
	if errScan != nil {
		return nil, fmt.Errorf("leaderboard: nearby: %w", errScan)
	}
	if len(entries) == 0 {
		return nil, ErrUserNotFound
	}
	return entries, nil
}
