package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/vitalpoint/wellness-backend/internal/models"
	"gorm.io/gorm"
)

func testDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := conn.AutoMigrate(&models.User{}, &models.Event{}, &models.Challenge{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, username string, streak int, premium bool) models.User {
	t.Helper()
	user := models.User{
		Username:                username,
		Email:                   username + "@example.com",
		Level:                   1,
		Streak:                  streak,
		UnlockedPremiumDiscount: premium,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	return user
}

func seedEvent(t *testing.T, conn *gorm.DB, userID uint64, eventType string, pts int, at time.Time) {
	t.Helper()
	event := models.Event{
		UserID:        userID,
		EventType:     eventType,
		PointsAwarded: pts,
		Metadata:      []byte("{}"),
		Timestamp:     at,
	}
	if errCreate := conn.Create(&event).Error; errCreate != nil {
		t.Fatalf("seed event: %v", errCreate)
	}
}

func TestUserReportFor_UnknownUser(t *testing.T) {
	conn := testDB(t, "analytics_missing")
	service := NewService(conn)

	if _, err := service.UserReportFor(context.Background(), 9999); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserReportFor_WeeklyProgressAndUsage(t *testing.T) {
	conn := testDB(t, "analytics_report")
	service := NewService(conn)
	user := seedUser(t, conn, "alice", 5, false)
	now := time.Now().UTC()

	seedEvent(t, conn, user.ID, "exercise", 10, now.Add(-time.Hour))
	seedEvent(t, conn, user.ID, "read_article", 7, now.Add(-2*time.Hour))
	seedEvent(t, conn, user.ID, "exercise", 10, now.AddDate(0, 0, -10)) // outside the week, inside the month
	seedEvent(t, conn, user.ID, "exercise", 10, now.AddDate(0, 0, -60)) // outside both windows

	report, err := service.UserReportFor(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("user report: %v", err)
	}

	var weekActions, weekPoints int
	for _, day := range report.WeeklyProgress {
		weekActions += day.TotalActions
		weekPoints += day.PointsEarned
	}
	if weekActions != 2 || weekPoints != 17 {
		t.Fatalf("expected 2 actions / 17 points this week, got %d / %d", weekActions, weekPoints)
	}

	usage := make(map[string]FeatureUsage, len(report.FeatureUsage))
	for _, row := range report.FeatureUsage {
		usage[row.Type] = row
	}
	if usage["exercise"].Count != 2 || usage["exercise"].Points != 20 {
		t.Fatalf("expected exercise 2/20 over the month, got %+v", usage["exercise"])
	}
	if usage["read_article"].Count != 1 {
		t.Fatalf("expected read_article once, got %+v", usage["read_article"])
	}
}

func TestUserReportFor_ChallengeStats(t *testing.T) {
	conn := testDB(t, "analytics_challenges")
	service := NewService(conn)
	user := seedUser(t, conn, "bob", 5, false)
	now := time.Now().UTC()

	for i, status := range []string{models.ChallengeStatusCompleted, models.ChallengeStatusActive, models.ChallengeStatusCompleted, models.ChallengeStatusActive} {
		challenge := models.Challenge{
			UserID:        user.ID,
			ChallengeType: "workout_streak",
			Title:         fmt.Sprintf("Challenge %d", i),
			TargetValue:   3,
			Status:        status,
			RewardPoints:  50,
			StartDate:     now,
			EndDate:       now.AddDate(0, 0, 7),
		}
		if errCreate := conn.Create(&challenge).Error; errCreate != nil {
			t.Fatalf("seed challenge: %v", errCreate)
		}
	}

	report, err := service.UserReportFor(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("user report: %v", err)
	}
	stats := report.ChallengeStats
	if stats.Total != 4 || stats.Completed != 2 || stats.CompletionRate != 50 {
		t.Fatalf("expected 4/2/50%%, got %+v", stats)
	}
}

func TestRecommendations_StreakAndDiscovery(t *testing.T) {
	conn := testDB(t, "analytics_recs")
	service := NewService(conn)
	now := time.Now().UTC()

	// Low streak and no activity: streak nudge plus all four discovery
	// nudges.
	fresh := seedUser(t, conn, "fresh", 0, false)
	report, err := service.UserReportFor(context.Background(), fresh.ID)
	if err != nil {
		t.Fatalf("user report: %v", err)
	}
	if len(report.Recommendations) != 5 {
		t.Fatalf("expected 5 recommendations, got %d", len(report.Recommendations))
	}
	if report.Recommendations[0].Type != "streak" {
		t.Fatalf("expected streak nudge first, got %+v", report.Recommendations[0])
	}

	// Healthy streak and three of four features used: one discovery nudge.
	engaged := seedUser(t, conn, "engaged", 7, false)
	seedEvent(t, conn, engaged.ID, "exercise", 10, now)
	seedEvent(t, conn, engaged.ID, "read_article", 7, now)
	seedEvent(t, conn, engaged.ID, "view_policy", 15, now)

	report, err = service.UserReportFor(context.Background(), engaged.ID)
	if err != nil {
		t.Fatalf("user report: %v", err)
	}
	if len(report.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(report.Recommendations))
	}
	rec := report.Recommendations[0]
	if rec.Type != "feature_discovery" || rec.Feature != "invite_friend" {
		t.Fatalf("expected invite_friend discovery nudge, got %+v", rec)
	}
}

func TestPlatformReport_Aggregates(t *testing.T) {
	conn := testDB(t, "analytics_platform")
	service := NewService(conn)
	now := time.Now().UTC()

	today := seedUser(t, conn, "today", 1, true)
	thisMonth := seedUser(t, conn, "month", 1, false)
	dormant := seedUser(t, conn, "dormant", 0, false)
	_ = dormant

	seedEvent(t, conn, today.ID, "exercise", 10, now.Add(-time.Hour))
	seedEvent(t, conn, thisMonth.ID, "exercise", 10, now.AddDate(0, 0, -10))
	seedEvent(t, conn, thisMonth.ID, "read_article", 7, now.AddDate(0, 0, -10))

	report, err := service.PlatformReport(context.Background())
	if err != nil {
		t.Fatalf("platform report: %v", err)
	}
	if report.DAU != 1 || report.MAU != 2 {
		t.Fatalf("expected DAU 1 MAU 2, got %d / %d", report.DAU, report.MAU)
	}

	adoption := make(map[string]FeatureAdoption, len(report.FeatureAdoption))
	for _, row := range report.FeatureAdoption {
		adoption[row.Type] = row
	}
	exercise := adoption["exercise"]
	if exercise.UniqueUsers != 2 || exercise.TotalUses != 2 {
		t.Fatalf("expected exercise 2 users / 2 uses, got %+v", exercise)
	}
	// Two of three users adopted exercise.
	if exercise.AdoptionRate < 66.6 || exercise.AdoptionRate > 66.7 {
		t.Fatalf("expected adoption rate ~66.7, got %v", exercise.AdoptionRate)
	}

	conversion := report.PremiumConversion
	if conversion.TotalUsers != 3 || conversion.PremiumUsers != 1 {
		t.Fatalf("expected 3 users 1 premium, got %+v", conversion)
	}
	if conversion.ConversionRate < 33.3 || conversion.ConversionRate > 33.4 {
		t.Fatalf("expected conversion ~33.3, got %v", conversion.ConversionRate)
	}
}

func TestPlatformReport_EmptyPlatform(t *testing.T) {
	conn := testDB(t, "analytics_empty")
	service := NewService(conn)

	report, err := service.PlatformReport(context.Background())
	if err != nil {
		t.Fatalf("platform report: %v", err)
	}
	if report.DAU != 0 || report.MAU != 0 {
		t.Fatalf("expected zero active users, got %d / %d", report.DAU, report.MAU)
	}
	if report.PremiumConversion.ConversionRate != 0 {
		t.Fatalf("expected zero conversion, got %v", report.PremiumConversion.ConversionRate)
	}
}
