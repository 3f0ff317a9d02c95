package leaderboard

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
	if errMigrate := conn.AutoMigrate(&models.User{}, &models.Event{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, username string, totalPoints int) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Points: totalPoints, Level: 1}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	return user
}

func seedEvent(t *testing.T, conn *gorm.DB, userID uint64, pts int, at time.Time) {
	t.Helper()
	event := models.Event{
		UserID:        userID,
		EventType:     "exercise",
		PointsAwarded: pts,
		Metadata:      []byte("{}"),
		Timestamp:     at,
	}
	if errCreate := conn.Create(&event).Error; errCreate != nil {
		t.Fatalf("seed event: %v", errCreate)
	}
}

func TestNormalizePeriod(t *testing.T) {
	cases := map[string]string{
		"weekly":   PeriodWeekly,
		"monthly":  PeriodMonthly,
		"alltime":  PeriodAllTime,
		"ALLTIME":  PeriodAllTime,
		"":         PeriodWeekly,
		"yearly":   PeriodWeekly,
		" weekly ": PeriodWeekly,
	}
	for raw, want := range cases {
		if got := NormalizePeriod(raw); got != want {
			t.Fatalf("NormalizePeriod(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestRank_OrdersByPeriodThenTotal(t *testing.T) {
	conn := testDB(t, "leaderboard_rank")
	ranker := NewRanker(conn)
	now := time.Now().UTC()

	alice := seedUser(t, conn, "alice", 500)
	bob := seedUser(t, conn, "bob", 100)
	carol := seedUser(t, conn, "carol", 900)

	// This week: bob 30, alice 20, carol 20 (carol wins the tie on
	// lifetime points).
	seedEvent(t, conn, bob.ID, 30, now.Add(-time.Hour))
	seedEvent(t, conn, alice.ID, 20, now.Add(-2*time.Hour))
	seedEvent(t, conn, carol.ID, 20, now.Add(-3*time.Hour))

	entries, err := ranker.Rank(context.Background(), PeriodWeekly, 10)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected all 3 users, got %d", len(entries))
	}
	if entries[0].Username != "bob" || entries[0].PeriodPoints != 30 || entries[0].Rank != 1 {
		t.Fatalf("unexpected first row: %+v", entries[0])
	}
	if entries[1].Username != "carol" || entries[2].Username != "alice" {
		t.Fatalf("tie on period points should break by total points, got %q then %q", entries[1].Username, entries[2].Username)
	}
}

func TestRank_IncludesUsersWithoutEvents(t *testing.T) {
	conn := testDB(t, "leaderboard_zero")
	ranker := NewRanker(conn)

	active := seedUser(t, conn, "active", 50)
	idle := seedUser(t, conn, "idle", 0)
	seedEvent(t, conn, active.ID, 10, time.Now().UTC())

	entries, err := ranker.Rank(context.Background(), PeriodWeekly, 10)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected both users, got %d", len(entries))
	}
	if entries[1].UserID != idle.ID || entries[1].PeriodPoints != 0 {
		t.Fatalf("expected idle user with 0 period points, got %+v", entries[1])
	}
}

func TestRank_PeriodWindows(t *testing.T) {
	conn := testDB(t, "leaderboard_windows")
	ranker := NewRanker(conn)
	now := time.Now().UTC()

	user := seedUser(t, conn, "alice", 0)
	seedEvent(t, conn, user.ID, 10, now.Add(-time.Hour))     // this week
	seedEvent(t, conn, user.ID, 20, now.AddDate(0, 0, -14))  // this month only
	seedEvent(t, conn, user.ID, 40, now.AddDate(0, 0, -100)) // alltime only

	cases := []struct {
		period string
		want   int
	}{
		{PeriodWeekly, 10},
		{PeriodMonthly, 30},
		{PeriodAllTime, 70},
	}
	for _, tc := range cases {
		entries, err := ranker.Rank(context.Background(), tc.period, 10)
		if err != nil {
			t.Fatalf("rank %s: %v", tc.period, err)
		}
		if entries[0].PeriodPoints != tc.want {
			t.Fatalf("%s: expected %d period points, got %d", tc.period, tc.want, entries[0].PeriodPoints)
		}
	}
}

func TestRankOf_StrictlyGreaterCounting(t *testing.T) {
	conn := testDB(t, "leaderboard_rankof")
	ranker := NewRanker(conn)
	now := time.Now().UTC()

	top := seedUser(t, conn, "top", 0)
	midA := seedUser(t, conn, "mid_a", 0)
	midB := seedUser(t, conn, "mid_b", 0)
	last := seedUser(t, conn, "last", 0)

	seedEvent(t, conn, top.ID, 50, now)
	seedEvent(t, conn, midA.ID, 20, now)
	seedEvent(t, conn, midB.ID, 20, now)
	seedEvent(t, conn, last.ID, 5, now)

	cases := []struct {
		userID uint64
		want   int
	}{
		{top.ID, 1},
		{midA.ID, 2},
		{midB.ID, 2}, // ties share a rank
		{last.ID, 4},
	}
	for _, tc := range cases {
		got, err := ranker.RankOf(context.Background(), tc.userID, PeriodWeekly)
		if err != nil {
			t.Fatalf("rank of %d: %v", tc.userID, err)
		}
		if got != tc.want {
			t.Fatalf("rank of user %d = %d, want %d", tc.userID, got, tc.want)
		}
	}

	if _, err := ranker.RankOf(context.Background(), 9999, PeriodWeekly); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestNearby_WindowAroundUser(t *testing.T) {
	conn := testDB(t, "leaderboard_nearby")
	ranker := NewRanker(conn)
	now := time.Now().UTC()

	// Ten users with descending period points, 100 down to 10.
	var ids []uint64
	for i := 0; i < 10; i++ {
		user := seedUser(t, conn, fmt.Sprintf("user%02d", i), 0)
		seedEvent(t, conn, user.ID, 100-10*i, now)
		ids = append(ids, user.ID)
	}

	// Rank 5 with range 2 sees ranks 3 through 7.
	entries, err := ranker.Nearby(context.Background(), ids[4], PeriodWeekly, 2)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(entries))
	}
	if entries[0].Rank != 3 || entries[4].Rank != 7 {
		t.Fatalf("expected ranks 3..7, got %d..%d", entries[0].Rank, entries[4].Rank)
	}
	if entries[2].UserID != ids[4] {
		t.Fatalf("expected requesting user in the middle, got %d", entries[2].UserID)
	}

	// The window clamps at the top of the table.
	entries, err = ranker.Nearby(context.Background(), ids[0], PeriodWeekly, 3)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if entries[0].Rank != 1 || len(entries) != 4 {
		t.Fatalf("expected ranks 1..4, got %d rows starting at %d", len(entries), entries[0].Rank)
	}

	if _, err := ranker.Nearby(context.Background(), 9999, PeriodWeekly, 2); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
