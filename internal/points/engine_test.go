package points

import (
	"context"
	"fmt"
	"testing"

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
	if errMigrate := conn.AutoMigrate(&models.User{}, &models.Event{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Level: 1}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	return user
}

func TestResolveEventType(t *testing.T) {
	cases := []struct {
		raw    string
		want   EventType
		points int
	}{
		{"daily_login", EventTypeDailyLogin, 5},
		{"log_workout", EventTypeExercise, 10},
		{"exercise", EventTypeExercise, 10},
		{"READ_ARTICLE", EventTypeReadArticle, 7},
		{"view_policy", EventTypeViewPolicy, 15},
		{"complete_challenge", EventTypeCompleteChallenge, 50},
		{"health_score", EventTypeHealthScore, 15},
		{"checkup", EventTypeCheckup, 25},
		{"something_else", EventTypeUseNewFeature, 30},
		{"", EventTypeUseNewFeature, 30},
	}
	for _, tc := range cases {
		got, award := ResolveEventType(tc.raw)
		if got != tc.want || award != tc.points {
			t.Fatalf("ResolveEventType(%q) = (%s, %d), want (%s, %d)", tc.raw, got, award, tc.want, tc.points)
		}
	}
}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		points int
		level  int
	}{
		{0, 1}, {35, 1}, {99, 1}, {100, 2}, {199, 2}, {200, 3}, {1000, 11},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.points); got != tc.level {
			t.Fatalf("LevelFor(%d) = %d, want %d", tc.points, got, tc.level)
		}
	}
}

func TestApplyPoints_PremiumUnlockAtLevelThree(t *testing.T) {
	conn := testDB(t, "points_premium")
	engine := NewEngine(conn)
	user := seedUser(t, conn, "alice")

	updated, err := engine.ApplyPoints(context.Background(), user.ID, 150)
	if err != nil {
		t.Fatalf("apply points: %v", err)
	}
	if updated.Level != 2 || updated.UnlockedPremiumDiscount || updated.DiscountPercentage != 0 {
		t.Fatalf("at 150 points: level=%d premium=%v discount=%d", updated.Level, updated.UnlockedPremiumDiscount, updated.DiscountPercentage)
	}

	updated, err = engine.ApplyPoints(context.Background(), user.ID, 50)
	if err != nil {
		t.Fatalf("apply points: %v", err)
	}
	if updated.Points != 200 || updated.Level != 3 {
		t.Fatalf("expected 200 points level 3, got %d points level %d", updated.Points, updated.Level)
	}
	if !updated.UnlockedPremiumDiscount || updated.DiscountPercentage != 10 {
		t.Fatalf("expected premium unlock with 10%% discount, got premium=%v discount=%d", updated.UnlockedPremiumDiscount, updated.DiscountPercentage)
	}
}

func TestApplyPoints_NegativeDeltaRejected(t *testing.T) {
	conn := testDB(t, "points_negative")
	engine := NewEngine(conn)
	user := seedUser(t, conn, "bob")

	if _, err := engine.ApplyPoints(context.Background(), user.ID, -5); err == nil {
		t.Fatal("expected error for negative delta")
	}
}

func TestApplyPoints_UserNotFound(t *testing.T) {
	conn := testDB(t, "points_missing")
	engine := NewEngine(conn)

	if _, err := engine.ApplyPoints(context.Background(), 9999, 10); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRecord_AppendsLedgerAndAppliesPoints(t *testing.T) {
	conn := testDB(t, "points_record")
	engine := NewEngine(conn)
	user := seedUser(t, conn, "carol")

	res, err := engine.Record(context.Background(), user.ID, "log_workout", nil)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if res.Event.EventType != string(EventTypeExercise) || res.Event.PointsAwarded != 10 {
		t.Fatalf("unexpected event %q/%d", res.Event.EventType, res.Event.PointsAwarded)
	}

	res, err = engine.Record(context.Background(), user.ID, "checkup", map[string]any{"provider": "clinic"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if res.User.Points != 35 || res.User.Level != 1 {
		t.Fatalf("expected 35 points level 1, got %d points level %d", res.User.Points, res.User.Level)
	}
	if res.LevelUp {
		t.Fatal("expected no level up at 35 points")
	}

	events, errHistory := engine.History(context.Background(), user.ID, 10)
	if errHistory != nil {
		t.Fatalf("history: %v", errHistory)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(events))
	}
}

func TestRecord_UnknownTypeFallsBack(t *testing.T) {
	conn := testDB(t, "points_unknown")
	engine := NewEngine(conn)
	user := seedUser(t, conn, "dave")

	res, err := engine.Record(context.Background(), user.ID, "totally_made_up", nil)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if res.Event.EventType != string(EventTypeUseNewFeature) || res.Event.PointsAwarded != 30 {
		t.Fatalf("expected use_new_feature/30 fallback, got %q/%d", res.Event.EventType, res.Event.PointsAwarded)
	}
}

func TestRecord_LevelUpFlag(t *testing.T) {
	conn := testDB(t, "points_levelup")
	engine := NewEngine(conn)
	user := seedUser(t, conn, "erin")

	if _, err := engine.ApplyPoints(context.Background(), user.ID, 95); err != nil {
		t.Fatalf("apply points: %v", err)
	}

	res, err := engine.Record(context.Background(), user.ID, "exercise", nil)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !res.LevelUp || res.User.Level != 2 {
		t.Fatalf("expected level up to 2, got levelUp=%v level=%d", res.LevelUp, res.User.Level)
	}
}
