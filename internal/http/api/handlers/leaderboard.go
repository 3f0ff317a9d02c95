package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vitalpoint/wellness-backend/internal/leaderboard"
)

// LeaderboardHandler serves ranking endpoints.
type LeaderboardHandler struct {
	ranker *leaderboard.Ranker
}

// NewLeaderboardHandler constructs a LeaderboardHandler.
func NewLeaderboardHandler(ranker *leaderboard.Ranker) *LeaderboardHandler {
	return &LeaderboardHandler{ranker: ranker}
}

// List returns the top of the leaderboard for the requested period plus
// the current user's own rank.
func (h *LeaderboardHandler) List(c *gin.Context) {
	period := leaderboard.NormalizePeriod(c.Query("period"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, errRank := h.ranker.Rank(c.Request.Context(), period, limit)
	if errRank != nil {
		RespondError(c, http.StatusInternalServerError, CodeInternal, "rank failed")
		return
	}

	userID := CurrentUserID(c)
	userRank, errRankOf := h.ranker.RankOf(c.Request.Context(), userID, period)
	if errRankOf != nil && !errors.Is(errRankOf, leaderboard.ErrUserNotFound) {
		RespondError(c, http.StatusInternalServerError, CodeInternal, "rank failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period":            period,
		"leaderboard":       decorateEntries(entries, userID),
		"current_user_rank": userRank,
	})
}

// Nearby returns the slice of the leaderboard around the current user.
func (h *LeaderboardHandler) Nearby(c *gin.Context) {
	period := leaderboard.NormalizePeriod(c.Query("period"))
	rng, _ := strconv.Atoi(c.DefaultQuery("range", "5"))

	userID := CurrentUserID(c)
	entries, errNearby := h.ranker.Nearby(c.Request.Context(), userID, period, rng)
	if errNearby != nil {
		if errors.Is(errNearby, leaderboard.ErrUserNotFound) {
			RespondError(c, http.StatusNotFound, CodeNotFound, "user not found")
			return
		}
		RespondError(c, http.StatusInternalServerError, CodeInternal, "nearby rank failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period":      period,
		"leaderboard": decorateEntries(entries, userID),
	})
}

func decorateEntries(entries []leaderboard.Entry, userID uint64) []gin.H {
	out := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		out = append(out, gin.H{
			"rank":          entry.Rank,
			"userId":        entry.UserID,
			"username":      entry.Username,
			"level":         entry.Level,
			"avatar":        entry.AvatarURL,
			"badges":        entry.Badges,
			"points":        entry.PeriodPoints,
			"totalPoints":   entry.TotalPoints,
			"isCurrentUser": entry.UserID == userID,
		})
	}
	return out
}
